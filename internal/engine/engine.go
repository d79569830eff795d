package engine

import (
	"fmt"

	"makemytrade/internal/domain"
	"makemytrade/internal/signal"
)

// RunResult holds everything a completed simulation produced: the ordered
// trade ledger, the equity trajectory (one point per processed bar), and the
// closing cash balance.
type RunResult struct {
	Trades         []domain.Trade
	Equity         []domain.EquityPoint
	InitialCapital float64
	FinalCapital   float64
}

// Simulate replays bars through the position book in ascending order. For
// each bar it evaluates resting stops first, then exit signals, then new
// entries, and finally appends an equity sample, so the returned trajectory
// always has exactly one point per bar. Bars are never reordered and no
// indicator value from a later bar is consulted.
//
// Simulate is the generic run path: strategies without a bespoke simulation
// delegate to it from their Backtest method.
func Simulate(bars []domain.Bar, frame signal.Frame, params RiskParams, initialCapital float64) (*RunResult, error) {
	if frame.Len() != len(bars) {
		return nil, &domain.DataError{
			Column: "signals",
			Reason: fmt.Sprintf("signal frame covers %d bars, want %d", frame.Len(), len(bars)),
		}
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}

	book := NewBook(params, initialCapital)
	equity := make([]domain.EquityPoint, 0, len(bars))

	for i, bar := range bars {
		book.MarkStops(bar)

		buy, sell := frame.At(i)
		switch {
		case buy:
			book.Enter(bar, domain.SideLong, frame.ATRAt(i))
		case sell && params.SellMode == SellClosesLong:
			book.ExitLong(bar)
		case sell:
			book.Enter(bar, domain.SideShort, frame.ATRAt(i))
		}

		equity = append(equity, domain.EquityPoint{
			Timestamp: bar.Timestamp,
			Equity:    book.Equity(bar.Close),
		})
	}

	return &RunResult{
		Trades:         book.Trades(),
		Equity:         equity,
		InitialCapital: initialCapital,
		FinalCapital:   book.Cash(),
	}, nil
}
