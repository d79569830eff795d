// Package broker abstracts order execution and account access. The
// simulation core never touches a broker; the trader command uses one to
// mirror signals onto a real or paper account.
package broker

import (
	"context"
	"time"

	"makemytrade/internal/domain"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// OrderType selects how an order prices.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	GTC TimeInForce = "gtc"
	Day TimeInForce = "day"
)

// OrderStatus is the lifecycle state of a submitted order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderRequest describes an order to submit. LimitPrice is consulted only
// for limit orders.
type OrderRequest struct {
	Instrument  domain.Instrument
	Qty         float64
	Side        OrderSide
	Type        OrderType
	LimitPrice  float64
	TimeInForce TimeInForce
}

// Order is a submitted order as the brokerage reports it.
type Order struct {
	ID          string
	Instrument  domain.Instrument
	Qty         float64
	Side        OrderSide
	Type        OrderType
	Status      OrderStatus
	FilledPrice float64
	SubmittedAt time.Time
}

// Position is an exposure held at the brokerage.
type Position struct {
	Symbol        string
	Qty           float64
	AvgEntryPrice float64
	Side          domain.Side
}

// Account is a snapshot of the account's financial state.
type Account struct {
	Cash        float64
	Equity      float64
	BuyingPower float64
}

// Broker abstracts brokerage operations for order execution and account
// management.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// PlaceOrder submits an order for execution.
	PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// CancelOrder requests cancellation of a working order by its ID.
	CancelOrder(ctx context.Context, orderID string) error

	// GetPositions returns all current positions held at the brokerage.
	GetPositions(ctx context.Context) ([]Position, error)

	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*Account, error)
}

// Options configures broker construction.
type Options struct {
	APIKey    string
	APISecret string
	BaseURL   string

	// InitialCash seeds the simulator's account.
	InitialCash float64
}

// New creates a Broker for the named backend. The backend set is closed;
// unknown names fail with a ConfigError.
func New(name string, opts Options) (Broker, error) {
	switch name {
	case "alpaca":
		return NewAlpacaBroker(opts.APIKey, opts.APISecret, opts.BaseURL), nil
	case "simulator":
		return NewSimulatorBroker(opts.InitialCash), nil
	}
	return nil, &domain.ConfigError{Field: "broker", Value: name, Reason: "unknown broker"}
}
