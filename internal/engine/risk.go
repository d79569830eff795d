// Package engine implements the bar-by-bar simulation core: position and
// risk bookkeeping, the replay loop, and performance-metric computation.
package engine

import (
	"math"

	"makemytrade/internal/domain"
)

// Sizing selects how an entry's size is computed.
type Sizing string

const (
	// SizingATRRisk sizes so that a stop-out loses a fixed fraction of
	// the cash balance: size = (cash * riskPerTrade) / (stopATRMult * ATR).
	SizingATRRisk Sizing = "atr-risk"

	// SizingBalanceFrac invests a fixed fraction of the cash balance:
	// size = (cash * investFrac) / price. No stop is placed.
	SizingBalanceFrac Sizing = "balance-fraction"
)

// Accounting selects how the cash balance reacts to an entry. Both modes
// are valid configurations; strategy variants choose one.
type Accounting string

const (
	// AccountingTrack leaves cash untouched on entry; the position is
	// carried as unrealized exposure and cash moves only by realized P&L
	// on exit.
	AccountingTrack Accounting = "track"

	// AccountingDebit deducts the full notional from cash at entry and
	// credits the sale proceeds on exit. Short entries always use track
	// accounting: there is no notional to deduct when selling first.
	AccountingDebit Accounting = "debit"
)

// SellMode selects what a sell signal means for the book.
type SellMode string

const (
	// SellOpensShort treats a sell signal as a short entry request.
	SellOpensShort SellMode = "open-short"

	// SellClosesLong treats a sell signal as an exit request for the open
	// long position.
	SellClosesLong SellMode = "close-long"
)

// RiskParams carries the per-strategy risk, sizing, and accounting
// configuration consumed by the Book.
type RiskParams struct {
	Sizing     Sizing
	Accounting Accounting
	SellMode   SellMode

	// ATR-risk sizing.
	StopATRMult     float64
	RiskPerTrade    float64
	MaxNotionalFrac float64
	MinNotional     float64

	// Balance-fraction sizing.
	InvestFrac float64

	// Profit-gated exits (SellClosesLong only): a sell is honored only
	// when the fractional gain over the entry price reaches
	// ProfitThreshold.
	ProfitGate      bool
	ProfitThreshold float64
}

// Book owns all mutable run state: cash balance, open positions, and the
// trade ledger. A Book belongs to exactly one simulation run and must not
// be shared.
type Book struct {
	params    RiskParams
	cash      float64
	positions []*domain.Position
	trades    []domain.Trade
}

// NewBook creates a Book with the given starting cash.
func NewBook(params RiskParams, initialCapital float64) *Book {
	return &Book{params: params, cash: initialCapital}
}

// Cash returns the current cash balance.
func (b *Book) Cash() float64 { return b.cash }

// Trades returns the ledger accumulated so far, in emission order.
func (b *Book) Trades() []domain.Trade { return b.trades }

// open returns the non-closed position on the given side, or nil. At most
// one can exist per side.
func (b *Book) open(side domain.Side) *domain.Position {
	for _, p := range b.positions {
		if !p.Closed && p.Side == side {
			return p
		}
	}
	return nil
}

// OpenCount returns the number of non-closed positions on the given side.
func (b *Book) OpenCount(side domain.Side) int {
	n := 0
	for _, p := range b.positions {
		if !p.Closed && p.Side == side {
			n++
		}
	}
	return n
}

// MarkStops closes every still-open position whose resting stop is breached
// by the bar: a long closes when the bar's low reaches its stop, a short
// when the bar's high does. Stops fill at the stop price. This runs before
// any entry is considered for the same bar.
func (b *Book) MarkStops(bar domain.Bar) {
	for _, p := range b.positions {
		if p.Closed || math.IsNaN(p.StopPrice) {
			continue
		}
		switch {
		case p.Side == domain.SideLong && bar.Low <= p.StopPrice:
			b.close(p, bar, p.StopPrice)
		case p.Side == domain.SideShort && bar.High >= p.StopPrice:
			b.close(p, bar, p.StopPrice)
		}
	}
}

// close settles a position at the given price, mutates cash, and records
// the exit trade with the post-mutation balance.
func (b *Book) close(p *domain.Position, bar domain.Bar, price float64) {
	var profit float64
	if p.Side == domain.SideLong {
		profit = (price - p.EntryPrice) * p.Size
	} else {
		profit = (p.EntryPrice - price) * p.Size
	}

	if b.params.Accounting == AccountingDebit && p.Side == domain.SideLong {
		// Entry deducted the notional; return the full proceeds here.
		b.cash += price * p.Size
	} else {
		b.cash += profit
	}
	p.Closed = true

	typ := domain.TradeExit
	if b.params.Accounting == AccountingDebit && p.Side == domain.SideLong {
		typ = domain.TradeSell
	}
	b.trades = append(b.trades, domain.Trade{
		Timestamp: bar.Timestamp,
		Type:      typ,
		Side:      p.Side,
		Price:     price,
		Size:      p.Size,
		Balance:   b.cash,
		Profit:    profit,
	})
}

// ExitLong closes the open long at the bar's close in response to a sell
// signal. When the profit gate is enabled the exit is honored only if the
// fractional gain over the entry price reaches the configured threshold.
func (b *Book) ExitLong(bar domain.Bar) bool {
	p := b.open(domain.SideLong)
	if p == nil {
		return false
	}
	if b.params.ProfitGate {
		if p.EntryPrice <= 0 || bar.Close <= p.EntryPrice {
			return false
		}
		gain := (bar.Close - p.EntryPrice) / p.EntryPrice
		if gain < b.params.ProfitThreshold {
			return false
		}
	}
	b.close(p, bar, bar.Close)
	return true
}

// Enter opens a new position at the bar's close. The entry is skipped when
// the side already has an open position (capacity rule), when ATR-risk
// sizing has no usable ATR, or when the notional falls below the minimum.
// Oversized entries are clamped to the maximum notional fraction.
func (b *Book) Enter(bar domain.Bar, side domain.Side, atr float64) bool {
	if b.open(side) != nil {
		return false
	}

	price := bar.Close
	if price <= 0 {
		return false
	}

	var size, stop float64
	switch b.params.Sizing {
	case SizingBalanceFrac:
		size = b.cash * b.params.InvestFrac / price
		stop = math.NaN() // no resting stop in this mode
		if size <= 0 {
			return false
		}
	default: // SizingATRRisk
		if math.IsNaN(atr) || atr == 0 {
			// No safe stop distance, no position.
			return false
		}
		stopDistance := b.params.StopATRMult * atr
		dollarRisk := b.cash * b.params.RiskPerTrade
		size = dollarRisk / stopDistance

		notional := size * price
		if notional < b.params.MinNotional {
			return false
		}
		if maxNotional := b.cash * b.params.MaxNotionalFrac; notional > maxNotional {
			size = maxNotional / price
		}

		if side == domain.SideLong {
			stop = price - stopDistance
		} else {
			stop = price + stopDistance
		}
	}

	if b.params.Accounting == AccountingDebit && side == domain.SideLong {
		b.cash -= size * price
	}

	b.positions = append(b.positions, &domain.Position{
		Side:       side,
		EntryPrice: price,
		Size:       size,
		StopPrice:  stop,
		EntryTime:  bar.Timestamp,
	})

	typ := domain.TradeEntry
	if b.params.Accounting == AccountingDebit && side == domain.SideLong {
		typ = domain.TradeBuy
	}
	b.trades = append(b.trades, domain.Trade{
		Timestamp: bar.Timestamp,
		Type:      typ,
		Side:      side,
		Price:     price,
		Size:      size,
		Balance:   b.cash,
	})
	return true
}

// Equity returns total equity at the given price: cash plus the unrealized
// value of every open position under the configured accounting mode.
func (b *Book) Equity(price float64) float64 {
	eq := b.cash
	for _, p := range b.positions {
		if p.Closed {
			continue
		}
		switch {
		case b.params.Accounting == AccountingDebit && p.Side == domain.SideLong:
			eq += p.Size * price
		case p.Side == domain.SideLong:
			eq += (price - p.EntryPrice) * p.Size
		default:
			eq += (p.EntryPrice - price) * p.Size
		}
	}
	return eq
}
