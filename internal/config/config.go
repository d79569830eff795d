// Package config loads the YAML configuration file and applies environment
// variable overrides. Closed-set values (timeframe, data provider) are
// resolved at load time so a bad name fails before any data is fetched.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"makemytrade/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs. Crypto market
// data works without keys; keys raise the rate limit.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FetchConfig controls the historical data fetcher.
type FetchConfig struct {
	Provider        string `yaml:"provider"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	MaxAttempts     int    `yaml:"max_attempts"`
}

// BacktestConfig describes the runs to execute: which strategy, over which
// instruments, across which range.
type BacktestConfig struct {
	InitialCapital float64        `yaml:"initial_capital"`
	Instruments    []string       `yaml:"instruments"`
	Timeframe      string         `yaml:"timeframe"`
	Start          string         `yaml:"start"` // YYYY-MM-DD
	End            string         `yaml:"end"`   // YYYY-MM-DD
	Strategy       string         `yaml:"strategy"`
	Strategies     StrategyParams `yaml:"strategies"`
}

// StrategyParams carries per-strategy tuning blocks. Zero values fall back
// to each strategy's defaults.
type StrategyParams struct {
	SMACross PeriodPair   `yaml:"sma_cross"`
	SMATrend SinglePeriod `yaml:"sma_trend"`
	EMACross PeriodPair   `yaml:"ema_cross"`
}

// PeriodPair is a short/long lookback pair.
type PeriodPair struct {
	Short int `yaml:"short"`
	Long  int `yaml:"long"`
}

// SinglePeriod is a single lookback window.
type SinglePeriod struct {
	Period int `yaml:"period"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it,
// applies environment variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "results.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Fetch.Provider == "" {
		cfg.Fetch.Provider = "alpaca"
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 3
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.Timeframe == "" {
		cfg.Backtest.Timeframe = string(domain.TimeframeDay)
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks closed-set values and range consistency. All failures are
// ConfigErrors so callers can distinguish bad configuration from runtime
// faults.
func (c *Config) Validate() error {
	if _, err := domain.ParseTimeframe(c.Backtest.Timeframe); err != nil {
		return err
	}

	if c.Fetch.Provider != "alpaca" {
		return &domain.ConfigError{Field: "fetch.provider", Value: c.Fetch.Provider, Reason: "unknown data provider"}
	}

	if c.Backtest.InitialCapital <= 0 {
		return &domain.ConfigError{
			Field:  "backtest.initial_capital",
			Value:  fmt.Sprintf("%v", c.Backtest.InitialCapital),
			Reason: "must be positive",
		}
	}

	if len(c.Backtest.Instruments) == 0 {
		return &domain.ConfigError{Field: "backtest.instruments", Value: "", Reason: "at least one instrument required"}
	}

	start, err := c.StartTime()
	if err != nil {
		return err
	}
	end, err := c.EndTime()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return &domain.ConfigError{Field: "backtest.end", Value: c.Backtest.End, Reason: "must be after backtest.start"}
	}

	if c.Backtest.Strategy == "" {
		return &domain.ConfigError{Field: "backtest.strategy", Value: "", Reason: "strategy name required"}
	}
	return nil
}

// ParsedTimeframe returns the validated bar interval.
func (c *Config) ParsedTimeframe() domain.Timeframe {
	tf, _ := domain.ParseTimeframe(c.Backtest.Timeframe)
	return tf
}

// StartTime parses the backtest range start.
func (c *Config) StartTime() (time.Time, error) {
	return parseDate("backtest.start", c.Backtest.Start)
}

// EndTime parses the backtest range end.
func (c *Config) EndTime() (time.Time, error) {
	return parseDate("backtest.end", c.Backtest.End)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &domain.ConfigError{Field: field, Value: value, Reason: "want YYYY-MM-DD"}
	}
	return t.UTC(), nil
}
