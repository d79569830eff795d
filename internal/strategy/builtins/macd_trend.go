package builtins

import (
	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/indicator"
	"makemytrade/internal/signal"
	"makemytrade/internal/strategy"
)

var _ strategy.Strategy = (*MACDTrend)(nil)

// MACDTrend trades MACD momentum confirmed by an SMA stack and a
// volatility filter. A buy requires the MACD line above its signal line,
// the close above the short SMA, the short SMA above the long SMA, and the
// 14-bar price range above its rolling median. A sell is the mirror image
// and opens a short.
type MACDTrend struct {
	fast       int
	slow       int
	signalSpan int

	shortSMA    int
	longSMA     int
	rangePeriod int
}

// NewMACDTrend creates a MACDTrend with the standard 12/26/9 MACD and
// 20/50 SMA stack.
func NewMACDTrend() *MACDTrend {
	return &MACDTrend{
		fast:        12,
		slow:        26,
		signalSpan:  9,
		shortSMA:    20,
		longSMA:     50,
		rangePeriod: 14,
	}
}

// Name returns "macd-trend".
func (s *MACDTrend) Name() string {
	return "macd-trend"
}

func (s *MACDTrend) GenerateSignals(bars []domain.Bar) (signal.Frame, error) {
	cols, err := indicator.Series(bars)
	if err != nil {
		return signal.Frame{}, err
	}

	macd, macdSignal := indicator.MACD(cols.Close, s.fast, s.slow, s.signalSpan)
	shortSMA := indicator.SMA(cols.Close, s.shortSMA)
	longSMA := indicator.SMA(cols.Close, s.longSMA)

	// Volatility proxy: width of the rolling high/low channel.
	width := make([]float64, len(bars))
	hi := indicator.DonchianHigh(cols.High, s.rangePeriod, false)
	lo := indicator.DonchianLow(cols.Low, s.rangePeriod, false)
	for i := range width {
		width[i] = hi[i] - lo[i]
	}
	volOK := signal.Above(width, indicator.RollingMedian(width, 50))

	atr := indicator.ATR(cols.High, cols.Low, cols.Close, s.rangePeriod)

	return signal.Frame{
		Buy: signal.Threshold(signal.Above(macd, macdSignal),
			signal.Above(cols.Close, shortSMA),
			signal.Above(shortSMA, longSMA),
			volOK),
		Sell: signal.Threshold(signal.Below(macd, macdSignal),
			signal.Below(cols.Close, shortSMA),
			signal.Below(shortSMA, longSMA),
			volOK),
		ATR: atr,
	}, nil
}

// Risk configures ATR-risk sizing with track accounting; sells open shorts.
func (s *MACDTrend) Risk() engine.RiskParams {
	return engine.RiskParams{
		Sizing:          engine.SizingATRRisk,
		Accounting:      engine.AccountingTrack,
		SellMode:        engine.SellOpensShort,
		StopATRMult:     2.0,
		RiskPerTrade:    0.01,
		MaxNotionalFrac: 0.25,
		MinNotional:     10,
	}
}

// Backtest runs the default simulation loop.
func (s *MACDTrend) Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	return strategy.Generic(s, bars, initialCapital)
}
