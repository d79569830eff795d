package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"makemytrade/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker implements the Broker interface for paper trading. It
// tracks cash, positions, and orders in memory. Market orders and
// marketable limit orders fill immediately at the current mark price;
// non-marketable limits rest until cancelled or until a later mark crosses
// them.
type SimulatorBroker struct {
	mu        sync.Mutex
	cash      float64
	marks     map[string]float64
	positions map[string]*Position
	orders    map[string]*Order
	resting   map[string]OrderRequest
	nextID    int
}

// NewSimulatorBroker creates a SimulatorBroker seeded with initialCash.
func NewSimulatorBroker(initialCash float64) *SimulatorBroker {
	return &SimulatorBroker{
		cash:      initialCash,
		marks:     make(map[string]float64),
		positions: make(map[string]*Position),
		orders:    make(map[string]*Order),
		resting:   make(map[string]OrderRequest),
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// SetPrice updates the mark price for an instrument and fills any resting
// limit orders the new price crosses.
func (b *SimulatorBroker) SetPrice(instrument domain.Instrument, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.marks[string(instrument)] = price
	for id, req := range b.resting {
		if string(req.Instrument) != string(instrument) {
			continue
		}
		if limitCrossed(req, price) {
			b.fill(b.orders[id], req, req.LimitPrice)
			delete(b.resting, id)
		}
	}
}

// PlaceOrder records the order and simulates execution against the current
// mark price.
func (b *SimulatorBroker) PlaceOrder(_ context.Context, req OrderRequest) (*Order, error) {
	if req.Qty <= 0 {
		return nil, fmt.Errorf("order qty must be positive, got %v", req.Qty)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	mark, ok := b.marks[string(req.Instrument)]
	if !ok && req.Type == OrderMarket {
		return nil, fmt.Errorf("no mark price for %s", req.Instrument)
	}

	b.nextID++
	order := &Order{
		ID:          fmt.Sprintf("sim-%d", b.nextID),
		Instrument:  req.Instrument,
		Qty:         req.Qty,
		Side:        req.Side,
		Type:        req.Type,
		Status:      OrderStatusNew,
		SubmittedAt: time.Now().UTC(),
	}
	b.orders[order.ID] = order

	switch {
	case req.Type == OrderMarket:
		b.fill(order, req, mark)
	case ok && limitCrossed(req, mark):
		b.fill(order, req, req.LimitPrice)
	default:
		b.resting[order.ID] = req
	}

	copied := *order
	return &copied, nil
}

// limitCrossed reports whether a limit order is executable at price.
func limitCrossed(req OrderRequest, price float64) bool {
	if req.Type != OrderLimit {
		return false
	}
	if req.Side == OrderBuy {
		return price <= req.LimitPrice
	}
	return price >= req.LimitPrice
}

// fill settles an order at price, adjusting cash and the net position for
// the instrument. Callers hold the mutex.
func (b *SimulatorBroker) fill(order *Order, req OrderRequest, price float64) {
	symbol := req.Instrument.Symbol()
	signed := req.Qty
	if req.Side == OrderSell {
		signed = -signed
		b.cash += req.Qty * price
	} else {
		b.cash -= req.Qty * price
	}

	pos := b.positions[symbol]
	if pos == nil {
		side := domain.SideLong
		if signed < 0 {
			side = domain.SideShort
		}
		b.positions[symbol] = &Position{
			Symbol:        symbol,
			Qty:           signed,
			AvgEntryPrice: price,
			Side:          side,
		}
	} else {
		newQty := pos.Qty + signed
		switch {
		case newQty == 0:
			delete(b.positions, symbol)
		case (pos.Qty > 0) == (newQty > 0):
			// Same direction: average the entry when adding, keep it
			// when reducing.
			if (signed > 0) == (pos.Qty > 0) {
				pos.AvgEntryPrice = (pos.AvgEntryPrice*abs(pos.Qty) + price*abs(signed)) / abs(newQty)
			}
			pos.Qty = newQty
		default:
			// Crossed through zero: the remainder is a fresh position
			// at the fill price.
			pos.Qty = newQty
			pos.AvgEntryPrice = price
			if newQty > 0 {
				pos.Side = domain.SideLong
			} else {
				pos.Side = domain.SideShort
			}
		}
	}

	order.Status = OrderStatusFilled
	order.FilledPrice = price
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// CancelOrder marks a resting order as cancelled. Filled orders cannot be
// cancelled.
func (b *SimulatorBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("unknown order %s", orderID)
	}
	if order.Status == OrderStatusFilled {
		return fmt.Errorf("order %s already filled", orderID)
	}
	order.Status = OrderStatusCancelled
	delete(b.resting, orderID)
	return nil
}

// GetPositions returns copies of all simulated positions.
func (b *SimulatorBroker) GetPositions(_ context.Context) ([]Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	positions := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		positions = append(positions, *p)
	}
	return positions, nil
}

// GetAccount returns the simulated account: cash plus positions marked at
// the latest known prices.
func (b *SimulatorBroker) GetAccount(_ context.Context) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.cash
	for symbol, p := range b.positions {
		mark, ok := b.markForSymbol(symbol)
		if !ok {
			mark = p.AvgEntryPrice
		}
		equity += p.Qty * mark
	}
	return &Account{
		Cash:        b.cash,
		Equity:      equity,
		BuyingPower: b.cash,
	}, nil
}

// markForSymbol resolves the latest mark for a position symbol. Marks are
// keyed by instrument (with separator), positions by bare symbol.
func (b *SimulatorBroker) markForSymbol(symbol string) (float64, bool) {
	for instrument, mark := range b.marks {
		if domain.Instrument(instrument).Symbol() == symbol {
			return mark, true
		}
	}
	return 0, false
}
