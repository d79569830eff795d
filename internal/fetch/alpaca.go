package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"makemytrade/internal/domain"
	"makemytrade/internal/util"
)

// Compile-time interface check.
var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher retrieves crypto bar history from the Alpaca market-data
// API. Crypto data needs no credentials, but keys raise the rate limit.
type AlpacaFetcher struct {
	client      *marketdata.Client
	limiter     *util.RateLimiter
	maxAttempts int
	retryDelay  time.Duration
	log         *slog.Logger
}

// NewAlpacaFetcher creates an AlpacaFetcher from opts. Zero-valued retry
// settings fall back to 3 attempts starting at one second.
func NewAlpacaFetcher(opts Options) *AlpacaFetcher {
	clientOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.BaseURL != "" {
		clientOpts.BaseURL = opts.BaseURL
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	var limiter *util.RateLimiter
	if opts.RequestsPerMinute > 0 {
		limiter = util.NewRateLimiter(opts.RequestsPerMinute)
	}

	return &AlpacaFetcher{
		client:      marketdata.NewClient(clientOpts),
		limiter:     limiter,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		log:         slog.Default().With("fetcher", "alpaca"),
	}
}

// FetchHistory retrieves bars for instrument between start and end, retrying
// transient API failures with exponential backoff. Bars come back ordered
// ascending by timestamp.
func (f *AlpacaFetcher) FetchHistory(ctx context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	tf, err := alpacaTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var cryptoBars []marketdata.CryptoBar
	err = util.Retry(ctx, f.maxAttempts, f.retryDelay, func() error {
		var reqErr error
		cryptoBars, reqErr = f.client.GetCryptoBars(string(instrument), marketdata.GetCryptoBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
		})
		if reqErr != nil {
			f.log.Warn("bar request failed", "instrument", instrument, "err", reqErr)
		}
		return reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("GetCryptoBars %s: %w", instrument, err)
	}

	bars := make([]domain.Bar, 0, len(cryptoBars))
	for _, cb := range cryptoBars {
		bars = append(bars, domain.Bar{
			Symbol:    instrument.Symbol(),
			Timestamp: cb.Timestamp,
			Open:      cb.Open,
			High:      cb.High,
			Low:       cb.Low,
			Close:     cb.Close,
			Volume:    cb.Volume,
		})
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}

	f.log.Debug("fetched bars", "instrument", instrument, "timeframe", timeframe, "count", len(bars))
	return bars, nil
}

// alpacaTimeFrame maps the supported bar intervals onto the SDK's timeframe
// type.
func alpacaTimeFrame(tf domain.Timeframe) (marketdata.TimeFrame, error) {
	switch tf {
	case domain.TimeframeMinute:
		return marketdata.OneMin, nil
	case domain.TimeframeFifteenMin:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case domain.TimeframeHour:
		return marketdata.OneHour, nil
	case domain.TimeframeDay:
		return marketdata.OneDay, nil
	}
	return marketdata.TimeFrame{}, &domain.ConfigError{Field: "timeframe", Value: string(tf), Reason: "unknown timeframe"}
}
