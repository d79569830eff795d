// Package strategy defines the Strategy interface for trading strategies,
// a Registry for managing multiple strategy implementations, and the
// Backtester that replays historical data through them.
package strategy

import (
	"sort"

	"makemytrade/internal/domain"
	"makemytrade/internal/engine"
	"makemytrade/internal/signal"
)

// Strategy is the interface all trading strategies implement. Backtest is
// part of the interface so that run-path selection is ordinary interface
// dispatch: strategies without a bespoke simulation delegate to Generic,
// the engine-supplied default.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// GenerateSignals maps the bar sequence to per-bar trading intents.
	// It must not perform allocation or risk adjustments; those belong to
	// the position book configured via Risk.
	GenerateSignals(bars []domain.Bar) (signal.Frame, error)

	// Risk returns the sizing, stop, and accounting configuration the
	// simulation applies to this strategy's signals.
	Risk() engine.RiskParams

	// Backtest runs the full simulation over bars starting from
	// initialCapital.
	Backtest(bars []domain.Bar, initialCapital float64) (*engine.RunResult, error)
}

// Generic is the default run path: generate signals, then drive the
// engine's simulation loop with the strategy's risk parameters.
func Generic(s Strategy, bars []domain.Bar, initialCapital float64) (*engine.RunResult, error) {
	frame, err := s.GenerateSignals(bars)
	if err != nil {
		return nil, err
	}
	return engine.Simulate(bars, frame, s.Risk(), initialCapital)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. Unknown names fail with a ConfigError
// so that misconfigured runs are rejected before any bar is processed.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, &domain.ConfigError{Field: "strategy", Value: name, Reason: "unknown strategy"}
	}
	return s, nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
