package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"makemytrade/internal/domain"
)

const validYAML = `
storage:
  data_dir: "/tmp/backtest/data"
  sqlite_path: "/tmp/backtest/results.db"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
fetch:
  provider: "alpaca"
  rate_limit_per_min: 200
backtest:
  initial_capital: 100000
  instruments: ["BTC/USD", "ETH/USD"]
  timeframe: "day"
  start: "2023-01-01"
  end: "2024-01-01"
  strategy: "filtered-donchian"
  strategies:
    sma_cross:
      short: 5
      long: 20
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATA_DIR", "SQLITE_PATH",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL", "ALPACA_DATA_URL",
		"LOG_LEVEL", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/backtest/data" {
		t.Errorf("data_dir = %q", cfg.Storage.DataDir)
	}
	if cfg.Backtest.Strategy != "filtered-donchian" {
		t.Errorf("strategy = %q", cfg.Backtest.Strategy)
	}
	if len(cfg.Backtest.Instruments) != 2 {
		t.Errorf("instruments = %v, want 2", cfg.Backtest.Instruments)
	}
	if cfg.ParsedTimeframe() != domain.TimeframeDay {
		t.Errorf("timeframe = %q, want day", cfg.ParsedTimeframe())
	}
	if cfg.Backtest.Strategies.SMACross.Short != 5 || cfg.Backtest.Strategies.SMACross.Long != 20 {
		t.Errorf("sma_cross params = %+v", cfg.Backtest.Strategies.SMACross)
	}

	start, err := cfg.StartTime()
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}
	end, err := cfg.EndTime()
	if err != nil {
		t.Fatalf("EndTime: %v", err)
	}
	if !end.After(start) {
		t.Errorf("range %v..%v not ascending", start, end)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("DATA_DIR", "/env/data")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.Alpaca.APIKey)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("data_dir = %q, want env override", cfg.Storage.DataDir)
	}
}

func TestValidateRejections(t *testing.T) {
	clearEnvOverrides(t)
	base := func() *Config {
		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown timeframe", func(c *Config) { c.Backtest.Timeframe = "week" }},
		{"unknown provider", func(c *Config) { c.Fetch.Provider = "polygon" }},
		{"non-positive capital", func(c *Config) { c.Backtest.InitialCapital = -5 }},
		{"no instruments", func(c *Config) { c.Backtest.Instruments = nil }},
		{"bad start date", func(c *Config) { c.Backtest.Start = "Jan 1 2023" }},
		{"inverted range", func(c *Config) { c.Backtest.End = "2022-01-01" }},
		{"missing strategy", func(c *Config) { c.Backtest.Strategy = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Validate error = %v (%T), want *domain.ConfigError", err, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnvOverrides(t)
	minimal := `
backtest:
  instruments: ["BTC/USD"]
  start: "2023-01-01"
  end: "2024-01-01"
  strategy: "sma-cross"
`
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.Provider != "alpaca" {
		t.Errorf("default provider = %q, want alpaca", cfg.Fetch.Provider)
	}
	if cfg.Backtest.Timeframe != "day" {
		t.Errorf("default timeframe = %q, want day", cfg.Backtest.Timeframe)
	}
	if cfg.Backtest.InitialCapital != 10000 {
		t.Errorf("default capital = %v, want 10000", cfg.Backtest.InitialCapital)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
}
