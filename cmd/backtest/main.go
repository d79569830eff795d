package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"makemytrade/internal/config"
	"makemytrade/internal/domain"
	"makemytrade/internal/fetch"
	"makemytrade/internal/store"
	"makemytrade/internal/strategy"
	"makemytrade/internal/strategy/builtins"
	"makemytrade/internal/util"
)

func main() {
	strategyFlag := flag.String("strategy", "", "override the configured strategy")
	listFlag := flag.Bool("list", false, "list available strategies and exit")
	flag.Parse()

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

	registry := buildRegistry(cfg)
	if *listFlag {
		fmt.Println(strings.Join(registry.List(), "\n"))
		return
	}

	strategyName := cfg.Backtest.Strategy
	if *strategyFlag != "" {
		strategyName = *strategyFlag
	}

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

	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer results.Close()

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

	backtester := strategy.NewBacktester(cached, registry, logger)

	// One instrument failing must not abort the batch.
	failures := 0
	for _, name := range cfg.Backtest.Instruments {
		instrument := domain.Instrument(name)

		report, err := backtester.Run(ctx, strategyName, instrument, cfg.ParsedTimeframe(), start, end, cfg.Backtest.InitialCapital)
		if err != nil {
			slog.Error("backtest failed", "instrument", instrument, "error", err)
			failures++
			continue
		}

		printSummary(report)
		persist(ctx, results, report, cfg.Backtest.InitialCapital)

		if ctx.Err() != nil {
			break
		}
	}

	if failures > 0 {
		log.Fatalf("%d of %d instruments failed", failures, len(cfg.Backtest.Instruments))
	}
}

// buildRegistry registers every built-in strategy, applying configured
// parameter overrides where present.
func buildRegistry(cfg *config.Config) *strategy.Registry {
	params := cfg.Backtest.Strategies

	smaCrossShort, smaCrossLong := 5, 20
	if params.SMACross.Short > 0 && params.SMACross.Long > 0 {
		smaCrossShort, smaCrossLong = params.SMACross.Short, params.SMACross.Long
	}
	smaTrendPeriod := 200
	if params.SMATrend.Period > 0 {
		smaTrendPeriod = params.SMATrend.Period
	}
	emaShort, emaLong := 8, 21
	if params.EMACross.Short > 0 && params.EMACross.Long > 0 {
		emaShort, emaLong = params.EMACross.Short, params.EMACross.Long
	}

	r := strategy.NewRegistry()
	r.Register(builtins.NewSMACross(smaCrossShort, smaCrossLong))
	r.Register(builtins.NewSMATrend(smaTrendPeriod))
	r.Register(builtins.NewEMACross(emaShort, emaLong))
	r.Register(builtins.NewFilteredDonchian())
	r.Register(builtins.NewMACDTrend())
	return r
}

func printSummary(report *strategy.Report) {
	m := report.Metrics
	fmt.Printf("\n=== %s on %s (%s, %s .. %s) ===\n",
		report.Strategy,
		report.Instrument,
		report.Timeframe,
		report.Start.Format("2006-01-02"),
		report.End.Format("2006-01-02"))
	fmt.Printf("  final capital:    %.2f\n", m.FinalCapital)
	fmt.Printf("  CAGR:             %.2f%%\n", m.CAGR*100)
	fmt.Printf("  Sharpe:           %.2f\n", m.Sharpe)
	fmt.Printf("  max drawdown:     %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  trades/day:       %.3f\n", m.AvgTradesPerDay)
	fmt.Printf("  trades/month:     %.2f\n", m.AvgTradesPerMonth)
	fmt.Printf("  trades:           %d\n", len(report.Result.Trades))
}

// persist records a completed run; persistence failures are logged, not
// fatal, since the summary was already reported.
func persist(ctx context.Context, results *store.SQLiteStore, report *strategy.Report, initialCapital float64) {
	runID, err := results.SaveRun(ctx, store.RunSummary{
		Strategy:       report.Strategy,
		Instrument:     report.Instrument.String(),
		Timeframe:      report.Timeframe.String(),
		Start:          report.Start,
		End:            report.End,
		InitialCapital: initialCapital,
		Metrics:        report.Metrics,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		slog.Error("saving run failed", "instrument", report.Instrument, "error", err)
		return
	}
	if err := results.SaveTrades(ctx, runID, report.Result.Trades); err != nil {
		slog.Error("saving trades failed", "run", runID, "error", err)
	}
}
