package builtins

import (
	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/indicator"
	"makemytrade/internal/signal"
	"makemytrade/internal/strategy"
)

var _ strategy.Strategy = (*FilteredDonchian)(nil)

// FilteredDonchian is a Donchian channel breakout strategy with a
// volatility filter (bar range against the median ATR), a trend filter
// (long SMA) and a momentum filter (short SMA). Longs enter on an upside
// breakout of the entry channel; a downside break of the exit channel opens
// a short. Positions are ATR-risk sized and exit on their resting stops.
type FilteredDonchian struct {
	entryWindow    int
	exitWindow     int
	atrPeriod      int
	atrMultEntry   float64
	trendPeriod    int
	momentumPeriod int

	// Shifted computes channels from prior bars only, so the breakout bar
	// never contributes to its own channel.
	Shifted bool

	riskPerTrade    float64
	stopATRMult     float64
	maxNotionalFrac float64
	minNotional     float64
}

// NewFilteredDonchian creates a FilteredDonchian with the standard
// parameterisation: 20/10 channels, 14-period ATR, 200/50 SMA filters,
// 0.5% risk per trade with a 2xATR stop.
func NewFilteredDonchian() *FilteredDonchian {
	return &FilteredDonchian{
		entryWindow:     20,
		exitWindow:      10,
		atrPeriod:       14,
		atrMultEntry:    1.5,
		trendPeriod:     200,
		momentumPeriod:  50,
		Shifted:         true,
		riskPerTrade:    0.005,
		stopATRMult:     2.0,
		maxNotionalFrac: 0.10,
		minNotional:     10,
	}
}

// Name returns "filtered-donchian".
func (s *FilteredDonchian) Name() string {
	return "filtered-donchian"
}

// GenerateSignals computes the channel breakout conditions and their
// filters. Buy fires where the close breaks the entry channel high and the
// volatility, trend and momentum filters all hold; sell fires where the
// close breaks the exit channel low.
func (s *FilteredDonchian) GenerateSignals(bars []domain.Bar) (signal.Frame, error) {
	cols, err := indicator.Series(bars)
	if err != nil {
		return signal.Frame{}, err
	}

	entryHigh := indicator.DonchianHigh(cols.High, s.entryWindow, s.Shifted)
	exitLow := indicator.DonchianLow(cols.Low, s.exitWindow, s.Shifted)
	atr := indicator.ATR(cols.High, cols.Low, cols.Close, s.atrPeriod)

	// Volatility filter: today's range must exceed a multiple of the
	// median ATR, so breakouts in dead markets are skipped.
	atrMedian := indicator.RollingMedian(atr, 50)
	volOK := make([]bool, len(bars))
	for i := range bars {
		volOK[i] = (cols.High[i] - cols.Low[i]) > s.atrMultEntry*atrMedian[i]
	}

	trendOK := signal.Above(cols.Close, indicator.SMA(cols.Close, s.trendPeriod))
	momOK := signal.Above(cols.Close, indicator.SMA(cols.Close, s.momentumPeriod))

	return signal.Frame{
		Buy:  signal.Threshold(signal.Above(cols.Close, entryHigh), volOK, trendOK, momOK),
		Sell: signal.Below(cols.Close, exitLow),
		ATR:  atr,
	}, nil
}

// Risk configures ATR-risk sizing with track accounting; sell signals open
// shorts.
func (s *FilteredDonchian) Risk() engine.RiskParams {
	return engine.RiskParams{
		Sizing:          engine.SizingATRRisk,
		Accounting:      engine.AccountingTrack,
		SellMode:        engine.SellOpensShort,
		StopATRMult:     s.stopATRMult,
		RiskPerTrade:    s.riskPerTrade,
		MaxNotionalFrac: s.maxNotionalFrac,
		MinNotional:     s.minNotional,
	}
}

// Backtest runs the default simulation loop.
func (s *FilteredDonchian) Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	return strategy.Generic(s, bars, initialCapital)
}
