package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openalpha/perp-router/app"
	"github.com/openalpha/perp-router/metrics"
	"github.com/openalpha/perp-router/offchain/keeperbot"
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
		Use:   "keeperbot",
		Short: "Position keeper that drives the router's request queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := keeperbot.LoadConfig(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "Path to config file (yaml, toml or json)")
	f.String("grpc-addr", "", "Chain gRPC endpoint")
	f.String("chain-id", "", "Chain ID")
	f.String("key-name", "", "Keyring entry of the position keeper")
	f.String("keyring-backend", "", "Keyring backend (os, file, test)")
	f.String("keyring-dir", "", "Keyring root directory")
	f.String("fee-receiver", "", "Execution fee receiver")
	f.Duration("poll-interval", 0, "Queue polling interval")
	f.Uint64("batch-size", 0, "Maximum requests per drive")
	f.String("submitter", "", "Submitter type (mock or grpc)")
	f.String("metrics-addr", "", "Prometheus listen address")
	f.String("log-level", "", "Log level")

	// Unchanged flags fall below env, file and default values
	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(fl.Name, "-", "_"), fl)
	})

	return cmd
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewLogger(os.Stdout, log.LevelOption(lvl)), nil
}

func run(ctx context.Context, cfg *keeperbot.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	logger.Info("=== Perp Router Keeper Bot ===",
		"grpc", cfg.GRPCAddr,
		"chain_id", cfg.ChainID,
		"submitter", cfg.SubmitterType,
		"batch_size", cfg.BatchSize,
		"poll_interval", cfg.PollInterval,
	)

	conn, err := grpc.NewClient(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", cfg.GRPCAddr, err)
	}
	defer conn.Close()

	submitter, err := newSubmitter(conn, cfg)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
	}

	bot := keeperbot.NewBot(cfg, keeperbot.NewGRPCQueueSource(conn), submitter, logger)
	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start keeper bot: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	bot.Stop()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", "err", err)
		}
	}
	return nil
}

func newSubmitter(conn *grpc.ClientConn, cfg *keeperbot.Config) (keeperbot.TxSubmitter, error) {
	if cfg.SubmitterType != "grpc" {
		return keeperbot.NewMockSubmitter(), nil
	}

	app.SetAddressPrefixes()
	encCfg := app.MakeEncodingConfig()
	dir := cfg.KeyringDir
	if dir == "" {
		dir = app.DefaultNodeHome
	}
	kr, err := keyring.New("perprouter", cfg.KeyringBackend, dir, os.Stdin, encCfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return keeperbot.NewGRPCSubmitter(conn, encCfg.Codec, encCfg.TxConfig, kr, cfg)
}
