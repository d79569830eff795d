package broker

import (
	"context"
	"fmt"
	"log/slog"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"makemytrade/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker implements the Broker interface on the Alpaca trading API.
type AlpacaBroker struct {
	client *alpacaapi.Client
	log    *slog.Logger
}

// NewAlpacaBroker creates an AlpacaBroker configured with the given
// credentials and API endpoint. An empty baseURL targets the SDK default
// (paper trading).
func NewAlpacaBroker(apiKey, apiSecret, baseURL string) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpacaapi.NewClient(alpacaapi.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		log: slog.Default().With("broker", "alpaca"),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// PlaceOrder submits an order to the Alpaca API for execution.
func (b *AlpacaBroker) PlaceOrder(_ context.Context, req OrderRequest) (*Order, error) {
	qty := decimal.NewFromFloat(req.Qty)
	placeReq := alpacaapi.PlaceOrderRequest{
		Symbol:      string(req.Instrument),
		Qty:         &qty,
		Side:        alpacaapi.Side(req.Side),
		Type:        alpacaapi.OrderType(req.Type),
		TimeInForce: alpacaapi.TimeInForce(req.TimeInForce),
	}
	if req.Type == OrderLimit {
		limit := decimal.NewFromFloat(req.LimitPrice)
		placeReq.LimitPrice = &limit
	}

	order, err := b.client.PlaceOrder(placeReq)
	if err != nil {
		return nil, fmt.Errorf("placing %s %s order for %s: %w", req.Side, req.Type, req.Instrument, err)
	}
	b.log.Debug("order placed", "id", order.ID, "instrument", req.Instrument, "side", req.Side, "qty", req.Qty)

	out := &Order{
		ID:          order.ID,
		Instrument:  req.Instrument,
		Side:        req.Side,
		Type:        req.Type,
		Status:      OrderStatus(order.Status),
		SubmittedAt: order.SubmittedAt,
	}
	if order.Qty != nil {
		out.Qty = order.Qty.InexactFloat64()
	}
	if order.FilledAvgPrice != nil {
		out.FilledPrice = order.FilledAvgPrice.InexactFloat64()
	}
	return out, nil
}

// CancelOrder requests cancellation of a working order via the Alpaca API.
func (b *AlpacaBroker) CancelOrder(_ context.Context, orderID string) error {
	if err := b.client.CancelOrder(orderID); err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	b.log.Debug("order cancelled", "id", orderID)
	return nil
}

// GetPositions returns all current positions from the Alpaca account.
func (b *AlpacaBroker) GetPositions(_ context.Context) ([]Position, error) {
	alpacaPositions, err := b.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}

	positions := make([]Position, 0, len(alpacaPositions))
	for _, p := range alpacaPositions {
		side := domain.SideLong
		if p.Side == "short" {
			side = domain.SideShort
		}
		positions = append(positions, Position{
			Symbol:        p.Symbol,
			Qty:           p.Qty.InexactFloat64(),
			AvgEntryPrice: p.AvgEntryPrice.InexactFloat64(),
			Side:          side,
		})
	}
	return positions, nil
}

// GetAccount returns the current account information from the Alpaca API.
func (b *AlpacaBroker) GetAccount(_ context.Context) (*Account, error) {
	account, err := b.client.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return &Account{
		Cash:        account.Cash.InexactFloat64(),
		Equity:      account.Equity.InexactFloat64(),
		BuyingPower: account.BuyingPower.InexactFloat64(),
	}, nil
}
