// Package signal maps derived series to per-bar trading intents. Two styles
// are supported: threshold signals, which are true on every bar where a
// condition holds, and crossover signals, which fire only on the bar where a
// condition newly becomes true.
package signal

import "math"

// Frame holds per-bar signal columns aligned one-to-one with the bar
// sequence they were generated from. ATR carries the volatility series the
// position manager uses for stop placement and sizing; it may be nil for
// strategies that size on balance fraction alone.
type Frame struct {
	Buy  []bool
	Sell []bool
	ATR  []float64
}

// Len returns the number of bars the frame covers.
func (f Frame) Len() int { return len(f.Buy) }

// At returns the buy/sell intent for bar i.
func (f Frame) At(i int) (buy, sell bool) { return f.Buy[i], f.Sell[i] }

// ATRAt returns the ATR value for bar i, or NaN when no ATR series is
// attached.
func (f Frame) ATRAt(i int) float64 {
	if i < 0 || i >= len(f.ATR) {
		return math.NaN()
	}
	return f.ATR[i]
}

// Above returns a condition column that is true where a > b. Comparisons
// involving NaN (warm-up values) evaluate to false.
func Above(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] > b[i]
	}
	return out
}

// Below returns a condition column that is true where a < b, with the same
// NaN handling as Above.
func Below(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] < b[i]
	}
	return out
}

// Threshold AND-combines a base condition with any number of filter
// columns, producing a signal that is true on every bar where all hold.
func Threshold(cond []bool, filters ...[]bool) []bool {
	out := make([]bool, len(cond))
	copy(out, cond)
	for _, f := range filters {
		for i := range out {
			out[i] = out[i] && f[i]
		}
	}
	return out
}

// Crossover converts a condition column to fire only on bars where the
// condition newly becomes true, suppressing repeats while it stays true.
// The first bar has no predecessor and never fires.
func Crossover(cond []bool) []bool {
	out := make([]bool, len(cond))
	for i := 1; i < len(cond); i++ {
		out[i] = cond[i] && !cond[i-1]
	}
	return out
}
