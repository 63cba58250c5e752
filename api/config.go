package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the indexer configuration
type Config struct {
	ListenAddr       string        `mapstructure:"listen_addr"`        // HTTP listen address
	RPCAddr          string        `mapstructure:"rpc_addr"`           // CometBFT RPC endpoint, empty disables ingestion
	DatabaseURL      string        `mapstructure:"database_url"`       // PostgreSQL URL, empty uses the in-memory store
	RedisURL         string        `mapstructure:"redis_url"`          // Redis URL for the read-through cache, optional
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`          // Redis entry TTL
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"`     // requests per second per IP
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`   // bucket capacity per IP
	DisableRateLimit bool          `mapstructure:"disable_rate_limit"` // for benchmarks
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
}

// DefaultConfig returns the default indexer configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":8080",
		RPCAddr:        "tcp://localhost:26657",
		CacheTTL:       30 * time.Second,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.RedisURL != "" && c.DatabaseURL == "" {
		return fmt.Errorf("redis cache requires a database url")
	}
	if !c.DisableRateLimit && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

// SetDefaults registers the default configuration on v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("rpc_addr", d.RPCAddr)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("rate_limit_rps", d.RateLimitRPS)
	v.SetDefault("rate_limit_burst", d.RateLimitBurst)
	v.SetDefault("disable_rate_limit", d.DisableRateLimit)
	v.SetDefault("read_timeout", d.ReadTimeout)
	v.SetDefault("write_timeout", d.WriteTimeout)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadConfig reads the configuration from v: bound flags, INDEXER_*
// environment variables, the config file at path and the defaults
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
