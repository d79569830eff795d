package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/fetch"
)

// Report is the outcome of a single strategy/instrument run.
type Report struct {
	Strategy   string
	Instrument domain.Instrument
	Timeframe  domain.Timeframe
	Start      time.Time
	End        time.Time
	Result     *engine.RunResult
	Metrics    domain.Metrics
}

// Backtester replays historical market data through registered strategies.
type Backtester struct {
	fetcher  fetch.Fetcher
	registry *Registry
	logger   *slog.Logger
}

// NewBacktester creates a Backtester over the given data source and registry.
func NewBacktester(fetcher fetch.Fetcher, registry *Registry, logger *slog.Logger) *Backtester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backtester{
		fetcher:  fetcher,
		registry: registry,
		logger:   logger,
	}
}

// Run fetches history for instrument and replays it through the named
// strategy. Failures are logged and returned, never swallowed.
func (b *Backtester) Run(ctx context.Context, name string, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time, initialCapital float64) (*Report, error) {
	s, err := b.registry.Get(name)
	if err != nil {
		return nil, err
	}

	b.logger.Info("fetching history",
		"strategy", name,
		"instrument", instrument,
		"timeframe", timeframe,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339))

	bars, err := b.fetcher.FetchHistory(ctx, instrument, timeframe, start, end)
	if err != nil {
		err = fmt.Errorf("fetch history for %s: %w", instrument, err)
		b.logger.Error("fetch failed", "instrument", instrument, "error", err)
		return nil, err
	}
	if len(bars) == 0 {
		err = &domain.DataError{Column: "bars", Reason: fmt.Sprintf("no history for %s between %s and %s", instrument, start.Format(time.RFC3339), end.Format(time.RFC3339))}
		b.logger.Error("fetch returned no bars", "instrument", instrument, "error", err)
		return nil, err
	}

	report, err := b.RunBars(s, instrument, bars, initialCapital)
	if err != nil {
		return nil, err
	}
	report.Timeframe = timeframe
	report.Start = start
	report.End = end

	b.logger.Info("backtest complete",
		"strategy", name,
		"instrument", instrument,
		"bars", len(bars),
		"trades", len(report.Result.Trades),
		"final_capital", report.Result.FinalCapital,
		"cagr", report.Metrics.CAGR,
		"sharpe", report.Metrics.Sharpe,
		"max_drawdown", report.Metrics.MaxDrawdown)

	return report, nil
}

// RunBars replays an in-memory bar sequence through s and computes the
// performance summary. It is the core path shared by Run and by callers
// that already hold bars (cache replays, tests).
func (b *Backtester) RunBars(s Strategy, instrument domain.Instrument, bars []domain.Bar, initialCapital float64) (*Report, error) {
	result, err := s.Backtest(bars, initialCapital)
	if err != nil {
		execErr := &domain.ExecutionError{Instrument: instrument, BarIndex: -1, Err: err}
		b.logger.Error("simulation failed", "strategy", s.Name(), "instrument", instrument, "error", execErr)
		return nil, execErr
	}

	return &Report{
		Strategy:   s.Name(),
		Instrument: instrument,
		Result:     result,
		Metrics:    engine.ComputeMetrics(result),
	}, nil
}
