// Package fetch retrieves historical market data for backtesting. A Fetcher
// hides the provider behind a single history call; the cache decorator makes
// repeated runs over the same range cheap.
package fetch

import (
	"context"
	"time"

	"makemytrade/internal/domain"
)

// Fetcher retrieves historical bars for an instrument over a closed time
// range.
type Fetcher interface {
	FetchHistory(ctx context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) ([]domain.Bar, error)
}

// Options configures the concrete fetcher implementations.
type Options struct {
	APIKey    string
	APISecret string
	BaseURL   string

	// RequestsPerMinute caps the API call rate; zero disables limiting.
	RequestsPerMinute int

	// MaxAttempts and RetryDelay drive the retry loop around each request.
	MaxAttempts int
	RetryDelay  time.Duration
}

// New creates a Fetcher for the named provider. The provider set is closed;
// unknown names fail with a ConfigError.
func New(provider string, opts Options) (Fetcher, error) {
	switch provider {
	case "alpaca":
		return NewAlpacaFetcher(opts), nil
	}
	return nil, &domain.ConfigError{Field: "fetcher", Value: provider, Reason: "unknown data provider"}
}
