package engine

import (
	"math"

	"makemytrade/internal/domain"
)

const (
	// Annual risk-free rate assumed by the Sharpe computation.
	riskFreeRate = 0.02

	// Guard against zero volatility in the Sharpe denominator.
	sharpeEpsilon = 1e-10

	tradingDaysPerYear = 252
	daysPerYear        = 365.25
	daysPerMonth       = 30.44
)

// ComputeMetrics reduces a run's trade ledger and equity trajectory to the
// fixed-key performance summary. Every field is always finite: divide-by-
// zero and empty-series cases yield zero-valued, well-defined results
// instead of errors, and an empty ledger returns the initial capital with
// zeros elsewhere.
func ComputeMetrics(res *RunResult) domain.Metrics {
	m := domain.Metrics{FinalCapital: res.InitialCapital}
	if len(res.Trades) == 0 {
		return m
	}
	m.FinalCapital = res.FinalCapital

	first := res.Trades[0].Timestamp
	last := res.Trades[len(res.Trades)-1].Timestamp
	elapsedDays := last.Sub(first).Hours() / 24

	// CAGR over the traded span.
	years := elapsedDays / daysPerYear
	if years > 0 && res.InitialCapital > 0 && res.FinalCapital > 0 {
		m.CAGR = math.Pow(res.FinalCapital/res.InitialCapital, 1/years) - 1
	}

	m.Sharpe = sharpe(dailyReturns(res.Equity))
	m.MaxDrawdown = maxDrawdown(res.Equity)

	n := float64(len(res.Trades))
	if elapsedDays > 0 {
		m.AvgTradesPerDay = n / elapsedDays
		m.AvgTradesPerMonth = n / (elapsedDays / daysPerMonth)
	}

	return m
}

// dailyReturns computes the percent change of the equity trajectory,
// dropping entries that are not finite (the initial point, or changes off a
// zero base).
func dailyReturns(equity []domain.EquityPoint) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		r := (equity[i].Equity - prev) / prev
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns = append(returns, r)
	}
	return returns
}

// sharpe annualizes the mean excess daily return over its volatility.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)

	return (mean - riskFreeRate/tradingDaysPerYear) / (std + sharpeEpsilon) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the deepest decline from a running equity peak as a
// negative fraction, or 0 when equity never declines.
func maxDrawdown(equity []domain.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (p.Equity - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
