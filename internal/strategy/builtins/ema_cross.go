package builtins

import (
	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/indicator"
	"makemytrade/internal/signal"
	"makemytrade/internal/strategy"
)

var _ strategy.Strategy = (*EMACross)(nil)

// EMACross buys when a short EMA crosses above a long EMA and closes the
// position on the reverse cross, but only once it is in profit. Entries are
// ATR-risk sized with a resting stop underneath.
type EMACross struct {
	shortSpan int
	longSpan  int
	atrPeriod int
}

// NewEMACross creates an EMACross with the given EMA spans.
func NewEMACross(short, long int) *EMACross {
	return &EMACross{
		shortSpan: short,
		longSpan:  long,
		atrPeriod: 14,
	}
}

// Name returns "ema-cross".
func (s *EMACross) Name() string {
	return "ema-cross"
}

func (s *EMACross) GenerateSignals(bars []domain.Bar) (signal.Frame, error) {
	cols, err := indicator.Series(bars)
	if err != nil {
		return signal.Frame{}, err
	}
	short := indicator.EMA(cols.Close, s.shortSpan)
	long := indicator.EMA(cols.Close, s.longSpan)
	return signal.Frame{
		Buy:  signal.Crossover(signal.Above(short, long)),
		Sell: signal.Crossover(signal.Below(short, long)),
		ATR:  indicator.ATR(cols.High, cols.Low, cols.Close, s.atrPeriod),
	}, nil
}

// Risk configures ATR-risk sizing with track accounting; exits are
// profit-gated reverse crosses, with the stop as backstop.
func (s *EMACross) Risk() engine.RiskParams {
	return engine.RiskParams{
		Sizing:          engine.SizingATRRisk,
		Accounting:      engine.AccountingTrack,
		SellMode:        engine.SellClosesLong,
		StopATRMult:     2.0,
		RiskPerTrade:    0.01,
		MaxNotionalFrac: 0.25,
		MinNotional:     10,
		ProfitGate:      true,
		ProfitThreshold: 0,
	}
}

// Backtest runs the default simulation loop.
func (s *EMACross) Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	return strategy.Generic(s, bars, initialCapital)
}
