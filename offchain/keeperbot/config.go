package keeperbot

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the keeper bot configuration
type Config struct {
	GRPCAddr       string        `mapstructure:"grpc_addr"`       // chain gRPC endpoint
	ChainID        string        `mapstructure:"chain_id"`        // chain ID used for signing
	KeyName        string        `mapstructure:"key_name"`        // keyring entry of the position keeper
	KeyringBackend string        `mapstructure:"keyring_backend"` // os, file or test
	KeyringDir     string        `mapstructure:"keyring_dir"`     // keyring root directory
	FeeReceiver    string        `mapstructure:"fee_receiver"`    // execution fee receiver, defaults to the signer
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // queue polling interval
	BatchSize      uint64        `mapstructure:"batch_size"`      // max requests per drive transaction
	GasLimit       uint64        `mapstructure:"gas_limit"`       // gas limit per drive transaction
	Fees           string        `mapstructure:"fees"`            // tx fees, e.g. 2000uopen
	SubmitterType  string        `mapstructure:"submitter"`       // "mock" or "grpc"
	MetricsAddr    string        `mapstructure:"metrics_addr"`    // prometheus listen address, empty disables
	StatsInterval  time.Duration `mapstructure:"stats_interval"`  // stats logging interval
	LogLevel       string        `mapstructure:"log_level"`       // debug, info, warn or error
}

// DefaultConfig returns the default keeper bot configuration
func DefaultConfig() *Config {
	return &Config{
		GRPCAddr:       "localhost:9090",
		ChainID:        "perprouter-1",
		KeyName:        "keeper",
		KeyringBackend: "test",
		KeyringDir:     "",
		PollInterval:   time.Second,
		BatchSize:      20,
		GasLimit:       400000,
		Fees:           "2000uopen",
		SubmitterType:  "mock",
		MetricsAddr:    ":9464",
		StatsInterval:  30 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be positive")
	}
	switch c.SubmitterType {
	case "mock":
	case "grpc":
		if c.GRPCAddr == "" || c.ChainID == "" || c.KeyName == "" {
			return fmt.Errorf("grpc submitter requires grpc_addr, chain_id and key_name")
		}
	default:
		return fmt.Errorf("unknown submitter type %q", c.SubmitterType)
	}
	return nil
}

// SetDefaults registers the default configuration on v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("grpc_addr", d.GRPCAddr)
	v.SetDefault("chain_id", d.ChainID)
	v.SetDefault("key_name", d.KeyName)
	v.SetDefault("keyring_backend", d.KeyringBackend)
	v.SetDefault("keyring_dir", d.KeyringDir)
	v.SetDefault("fee_receiver", d.FeeReceiver)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("gas_limit", d.GasLimit)
	v.SetDefault("fees", d.Fees)
	v.SetDefault("submitter", d.SubmitterType)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("stats_interval", d.StatsInterval)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadConfig reads the configuration from v. Values come from, in order of
// precedence, bound flags, KEEPERBOT_* environment variables, the config
// file named by v (if any) and the defaults.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("KEEPERBOT")
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
