// Package builtins provides the built-in strategy implementations that ship
// with the platform.
package builtins

import (
	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/indicator"
	"makemytrade/internal/signal"
	"makemytrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It generates
// a buy signal when the short-period SMA crosses above the long-period SMA,
// and a sell signal when it crosses below. Sells close the open long and are
// profit-gated: a crossover against a losing position is ignored.
type SMACross struct {
	shortPeriod int
	longPeriod  int
	investFrac  float64
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
		investFrac:  0.8,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// GenerateSignals computes short and long SMAs over closes and fires on the
// bars where one newly overtakes the other.
func (s *SMACross) GenerateSignals(bars []domain.Bar) (signal.Frame, error) {
	cols, err := indicator.Series(bars)
	if err != nil {
		return signal.Frame{}, err
	}
	short := indicator.SMA(cols.Close, s.shortPeriod)
	long := indicator.SMA(cols.Close, s.longPeriod)
	return signal.Frame{
		Buy:  signal.Crossover(signal.Above(short, long)),
		Sell: signal.Crossover(signal.Below(short, long)),
	}, nil
}

// Risk configures balance-fraction sizing with debit accounting and a
// break-even profit gate.
func (s *SMACross) Risk() engine.RiskParams {
	return engine.RiskParams{
		Sizing:     engine.SizingBalanceFrac,
		Accounting: engine.AccountingDebit,
		SellMode:   engine.SellClosesLong,
		InvestFrac: s.investFrac,
		ProfitGate: true,
		// Threshold zero: any positive gain clears the gate.
		ProfitThreshold: 0,
	}
}

// Backtest runs the default simulation loop.
func (s *SMACross) Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	return strategy.Generic(s, bars, initialCapital)
}
