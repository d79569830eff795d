// Package indicator computes derived series (moving averages, true range,
// Donchian channels, MACD) from bar data. All functions are pure: they take
// aligned float64 slices and return slices of the same length, using NaN for
// values that are undefined during warm-up.
//
// Rolling derivations follow a partial-window policy unless stated
// otherwise: before the window fills, the computation runs over the bars
// available so far instead of yielding NaN.
package indicator

import (
	"math"
	"sort"

	"makemytrade/internal/domain"
)

// Columns holds the numeric input columns extracted from a bar sequence.
type Columns struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Series extracts the numeric columns from bars, validating that every
// required price field is a finite number. A non-finite value fails with a
// DataError naming the column.
func Series(bars []domain.Bar) (Columns, error) {
	c := Columns{
		Open:   make([]float64, len(bars)),
		High:   make([]float64, len(bars)),
		Low:    make([]float64, len(bars)),
		Close:  make([]float64, len(bars)),
		Volume: make([]float64, len(bars)),
	}
	for i, b := range bars {
		for _, f := range []struct {
			name string
			v    float64
			dst  []float64
		}{
			{"open", b.Open, c.Open},
			{"high", b.High, c.High},
			{"low", b.Low, c.Low},
			{"close", b.Close, c.Close},
			{"volume", b.Volume, c.Volume},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return Columns{}, &domain.DataError{Column: f.name, Reason: "non-numeric value"}
			}
			f.dst[i] = f.v
		}
	}
	return c, nil
}

// SMA returns the simple moving average of values over the given window.
// The first window-1 entries average over the bars available so far.
func SMA(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i := range values {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// EMA returns the exponential moving average with the given span, using
// smoothing factor 2/(span+1). The first value seeds from the first
// observation.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if span <= 1 {
		copy(out, values)
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1.0-alpha)
	}
	return out
}

// TrueRange returns the per-bar true range: the greatest of high-low,
// |high - prevClose| and |low - prevClose|. The first bar has no previous
// close, so its true range degrades to high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR returns the average true range: a partial-window rolling mean of the
// true range over the given period.
func ATR(high, low, close []float64, period int) []float64 {
	return SMA(TrueRange(high, low, close), period)
}

// DonchianHigh returns the rolling maximum of values over the given window.
// When shifted is true the window is moved back one bar, so each entry is
// computed from prior bars only; shifted entries are NaN until a full
// window of prior bars exists.
func DonchianHigh(values []float64, window int, shifted bool) []float64 {
	return donchian(values, window, shifted, func(a, b float64) bool { return a > b })
}

// DonchianLow returns the rolling minimum of values over the given window,
// with the same shift semantics as DonchianHigh.
func DonchianLow(values []float64, window int, shifted bool) []float64 {
	return donchian(values, window, shifted, func(a, b float64) bool { return a < b })
}

func donchian(values []float64, window int, shifted bool, better func(a, b float64) bool) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		end := i + 1 // exclusive
		if shifted {
			end = i
		}
		start := end - window
		if shifted && start < 0 {
			// Shifted channels guard against lookahead; they stay
			// undefined until a full window of prior bars exists.
			out[i] = math.NaN()
			continue
		}
		if start < 0 {
			start = 0
		}
		if end <= start {
			out[i] = math.NaN()
			continue
		}
		best := values[start]
		for j := start + 1; j < end; j++ {
			if better(values[j], best) {
				best = values[j]
			}
		}
		out[i] = best
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (an EMA of the MACD line).
func MACD(values []float64, fast, slow, signalSpan int) (macd, signal []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signal = EMA(macd, signalSpan)
	return macd, signal
}

// RollingMedian returns the partial-window rolling median of values.
func RollingMedian(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	buf := make([]float64, 0, window)
	for i := range values {
		start := i + 1 - window
		if start < 0 {
			start = 0
		}
		buf = append(buf[:0], values[start:i+1]...)
		sort.Float64s(buf)
		n := len(buf)
		if n%2 == 1 {
			out[i] = buf[n/2]
		} else {
			out[i] = (buf[n/2-1] + buf[n/2]) / 2
		}
	}
	return out
}
