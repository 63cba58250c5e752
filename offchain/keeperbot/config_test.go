package keeperbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, true},
		{"unknown submitter", func(c *Config) { c.SubmitterType = "http" }, true},
		{"grpc without key", func(c *Config) { c.SubmitterType = "grpc"; c.KeyName = "" }, true},
		{"grpc complete", func(c *Config) { c.SubmitterType = "grpc" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keeperbot.yaml")
	content := "batch_size: 50\npoll_interval: 250ms\nsubmitter: mock\nchain_id: localnet\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(viper.New(), path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", cfg.BatchSize)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %s, want 250ms", cfg.PollInterval)
	}
	if cfg.ChainID != "localnet" {
		t.Errorf("chain id = %q, want localnet", cfg.ChainID)
	}
	if cfg.Fees != DefaultConfig().Fees {
		t.Errorf("fees = %q, want default", cfg.Fees)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("KEEPERBOT_BATCH_SIZE", "7")
	t.Setenv("KEEPERBOT_FEE_RECEIVER", "cosmos1receiver")

	cfg, err := LoadConfig(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BatchSize != 7 {
		t.Errorf("batch size = %d, want 7", cfg.BatchSize)
	}
	if cfg.FeeReceiver != "cosmos1receiver" {
		t.Errorf("fee receiver = %q", cfg.FeeReceiver)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("KEEPERBOT_SUBMITTER", "carrier-pigeon")
	if _, err := LoadConfig(viper.New(), ""); err == nil {
		t.Fatal("expected invalid submitter to be rejected")
	}
}
