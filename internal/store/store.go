// Package store persists backtest inputs and outputs: Parquet files cache
// fetched bar history, and a SQLite database records completed runs with
// their metrics and trade ledgers.
package store

import (
	"context"
	"time"

	"makemytrade/internal/domain"
)

// RunSummary is one completed backtest run as persisted. ID and CreatedAt
// are assigned by the store.
type RunSummary struct {
	ID             int64
	Strategy       string
	Instrument     string
	Timeframe      string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	Metrics        domain.Metrics
	CreatedAt      time.Time
}

// ResultStore records completed runs and their trade ledgers.
type ResultStore interface {
	// SaveRun inserts a run record and returns its assigned ID.
	SaveRun(ctx context.Context, run RunSummary) (int64, error)

	// SaveTrades persists the trade ledger for a saved run.
	SaveTrades(ctx context.Context, runID int64, trades []domain.Trade) error

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
