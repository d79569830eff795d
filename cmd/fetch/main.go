package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"makemytrade/internal/config"
	"makemytrade/internal/domain"
	"makemytrade/internal/fetch"
	"makemytrade/internal/store"
	"makemytrade/internal/util"
)

// fetch warms the parquet bar cache for the configured instruments so
// subsequent backtest runs work offline.
func main() {
	cfgPath := "config/backtest.yaml"
	if p := os.Getenv("MAKEMYTRADE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	fetcher, err := fetch.New(cfg.Fetch.Provider, fetch.Options{
		APIKey:            cfg.Alpaca.APIKey,
		APISecret:         cfg.Alpaca.APISecret,
		BaseURL:           cfg.Alpaca.DataURL,
		RequestsPerMinute: cfg.Fetch.RateLimitPerMin,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("failed to build fetcher: %v", err)
	}
	cached := fetch.NewCachedFetcher(store.NewParquetCache(cfg.Storage.DataDir), fetcher)

	start, err := cfg.StartTime()
	if err != nil {
		log.Fatalf("invalid start date: %v", err)
	}
	end, err := cfg.EndTime()
	if err != nil {
		log.Fatalf("invalid end date: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	failures := 0
	for _, name := range cfg.Backtest.Instruments {
		instrument := domain.Instrument(name)

		bars, err := cached.FetchHistory(ctx, instrument, cfg.ParsedTimeframe(), start, end)
		if err != nil {
			slog.Error("prefetch failed", "instrument", instrument, "error", err)
			failures++
			continue
		}
		slog.Info("prefetched", "instrument", instrument, "timeframe", cfg.ParsedTimeframe(), "bars", len(bars))

		if ctx.Err() != nil {
			break
		}
	}

	if failures > 0 {
		log.Fatalf("%d of %d instruments failed", failures, len(cfg.Backtest.Instruments))
	}
}
