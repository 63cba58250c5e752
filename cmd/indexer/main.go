package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openalpha/perp-router/api"
	"github.com/openalpha/perp-router/api/ingest"
	"github.com/openalpha/perp-router/api/store"
	"github.com/openalpha/perp-router/api/websocket"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Indexes position request lifecycles and serves them over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := api.LoadConfig(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "Path to config file (yaml, toml or json)")
	f.String("listen-addr", "", "HTTP listen address")
	f.String("rpc-addr", "", "CometBFT RPC endpoint, empty disables ingestion")
	f.String("database-url", "", "PostgreSQL URL, empty uses the in-memory store")
	f.String("redis-url", "", "Redis URL for the read-through cache")
	f.Bool("disable-rate-limit", false, "Disable per-IP rate limiting")
	f.String("log-level", "", "Log level")

	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(fl.Name, "-", "_"), fl)
	})

	return cmd
}

func run(ctx context.Context, cfg *api.Config) error {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewLogger(os.Stdout, log.LevelOption(lvl))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	hub := websocket.NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	if cfg.RPCAddr != "" {
		ingester := ingest.NewIngester(st, hub, logger)
		go func() {
			if err := ingester.Run(ctx, cfg.RPCAddr); err != nil {
				logger.Error("ingester stopped", "err", err)
			}
		}()
	} else {
		logger.Warn("rpc_addr not set, serving existing records only")
	}

	server := api.NewServer(cfg, st, hub, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down indexer", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Stop(shutdownCtx)
}

func openStore(ctx context.Context, cfg *api.Config, logger log.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("database_url not set, using in-memory store (data will not persist)")
		return store.NewMemoryStore(), func() {}, nil
	}

	var cleanup []func()
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	cleanup = append(cleanup, pool.Close)

	pg := store.NewPostgresStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		closeAll()
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL")

	var st store.Store = pg
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { _ = rdb.Close() })
		st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
		logger.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
	}
	return st, closeAll, nil
}
