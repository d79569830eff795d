package builtins

import (
	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/indicator"
	"makemytrade/internal/signal"
	"makemytrade/internal/strategy"
)

var _ strategy.Strategy = (*SMATrend)(nil)

// SMATrend buys when the bar's low crosses above a long SMA and sells when
// the bar's high falls below it. The sell is profit-gated: the exit is held
// until the position has gained at least the configured threshold.
type SMATrend struct {
	period          int
	investFrac      float64
	profitThreshold float64
}

// NewSMATrend creates an SMATrend over the given SMA period.
func NewSMATrend(period int) *SMATrend {
	return &SMATrend{
		period:          period,
		investFrac:      0.8,
		profitThreshold: 0.20,
	}
}

// Name returns "sma-trend".
func (s *SMATrend) Name() string {
	return "sma-trend"
}

// GenerateSignals fires a buy on the bar where the low first clears the SMA,
// and flags a sell on every bar whose high sits below it.
func (s *SMATrend) GenerateSignals(bars []domain.Bar) (signal.Frame, error) {
	cols, err := indicator.Series(bars)
	if err != nil {
		return signal.Frame{}, err
	}
	sma := indicator.SMA(cols.Close, s.period)
	return signal.Frame{
		Buy:  signal.Crossover(signal.Above(cols.Low, sma)),
		Sell: signal.Below(cols.High, sma),
	}, nil
}

// Risk configures balance-fraction sizing with debit accounting and a 20%
// profit gate on exits.
func (s *SMATrend) Risk() engine.RiskParams {
	return engine.RiskParams{
		Sizing:          engine.SizingBalanceFrac,
		Accounting:      engine.AccountingDebit,
		SellMode:        engine.SellClosesLong,
		InvestFrac:      s.investFrac,
		ProfitGate:      true,
		ProfitThreshold: s.profitThreshold,
	}
}

// Backtest runs the default simulation loop.
func (s *SMATrend) Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	return strategy.Generic(s, bars, initialCapital)
}
