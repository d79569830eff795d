// Package domain defines the core data model shared across the backtesting
// engine: bars, signals, positions, trades, equity points, and performance
// metrics, plus the error taxonomy used throughout the module.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Bar is one OHLCV observation for a fixed time interval. Bar sequences fed
// to the engine must already be ordered ascending by timestamp; the core does
// not normalize duplicates or gaps.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Side identifies the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Signal is the per-bar trading intent produced by a signal generator. Buy
// and Sell are independent booleans; a generator never sets both for the
// same direction on one bar.
type Signal struct {
	Buy  bool
	Sell bool
}

// Position is an open or closed exposure. It is owned exclusively by the
// position manager for the duration of a run and becomes immutable once
// Closed is set.
type Position struct {
	Side       Side
	EntryPrice float64
	Size       float64
	StopPrice  float64
	EntryTime  time.Time
	Closed     bool
}

// TradeType classifies a ledger record.
type TradeType string

const (
	TradeBuy   TradeType = "buy"
	TradeSell  TradeType = "sell"
	TradeEntry TradeType = "entry"
	TradeExit  TradeType = "exit"
)

// Trade is an immutable ledger record emitted on entry and on exit. Balance
// is the cash balance snapshot taken immediately after the mutation this
// record describes; Profit is only set on exits.
type Trade struct {
	Timestamp time.Time
	Type      TradeType
	Side      Side
	Price     float64
	Size      float64
	Balance   float64
	Profit    float64
}

// EquityPoint samples total equity (cash plus unrealized P&L of open
// positions) after one bar has been processed.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Metrics is the fixed-key summary of a completed run. All fields are always
// finite; a run with zero trades yields FinalCapital equal to the initial
// capital and zeros elsewhere.
type Metrics struct {
	FinalCapital      float64 `json:"final_capital"`
	CAGR              float64 `json:"cagr"`
	Sharpe            float64 `json:"sharpe"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	AvgTradesPerDay   float64 `json:"avg_trades_per_day"`
	AvgTradesPerMonth float64 `json:"avg_trades_per_month"`
}

// Timeframe is the closed set of supported bar intervals.
type Timeframe string

const (
	TimeframeMinute     Timeframe = "min"
	TimeframeFifteenMin Timeframe = "15min"
	TimeframeHour       Timeframe = "hour"
	TimeframeDay        Timeframe = "day"
)

// ParseTimeframe resolves a timeframe identifier against the supported set.
// Unknown identifiers fail with a ConfigError at construction time rather
// than mid-run.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case TimeframeMinute:
		return TimeframeMinute, nil
	case TimeframeFifteenMin:
		return TimeframeFifteenMin, nil
	case TimeframeHour:
		return TimeframeHour, nil
	case TimeframeDay:
		return TimeframeDay, nil
	}
	return "", &ConfigError{Field: "timeframe", Value: s, Reason: "unknown timeframe"}
}

// Duration returns the bar interval length.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeMinute:
		return time.Minute
	case TimeframeFifteenMin:
		return 15 * time.Minute
	case TimeframeHour:
		return time.Hour
	case TimeframeDay:
		return 24 * time.Hour
	}
	return 0
}

// Instrument identifies a traded asset pair, e.g. "BTC/USD".
type Instrument string

const (
	InstrumentBTCUSD Instrument = "BTC/USD"
	InstrumentETHUSD Instrument = "ETH/USD"
	InstrumentSOLUSD Instrument = "SOL/USD"
)

// Symbol returns the instrument identifier with the pair separator removed,
// suitable for file names and database keys.
func (i Instrument) Symbol() string {
	return strings.ReplaceAll(string(i), "/", "")
}

func (i Instrument) String() string { return string(i) }

// String implements fmt.Stringer for Timeframe.
func (tf Timeframe) String() string { return string(tf) }

// ValidateBars checks a bar sequence for ascending timestamps. It returns a
// DataError naming the offending index when order is violated.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return &DataError{
				Column: "timestamp",
				Reason: fmt.Sprintf("bars out of order at index %d", i),
			}
		}
	}
	return nil
}
