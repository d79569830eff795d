package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"makemytrade/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy         TEXT NOT NULL,
	instrument       TEXT NOT NULL,
	timeframe        TEXT NOT NULL,
	start_time       TEXT NOT NULL,
	end_time         TEXT NOT NULL,
	initial_capital  REAL NOT NULL,
	final_capital    REAL NOT NULL,
	cagr             REAL NOT NULL,
	sharpe           REAL NOT NULL,
	max_drawdown     REAL NOT NULL,
	trades_per_day   REAL NOT NULL,
	trades_per_month REAL NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    INTEGER NOT NULL REFERENCES runs(id),
	timestamp TEXT NOT NULL,
	type      TEXT NOT NULL,
	side      TEXT NOT NULL,
	price     REAL NOT NULL,
	size      REAL NOT NULL,
	balance   REAL NOT NULL,
	profit    REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run record and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunSummary) (int64, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			strategy, instrument, timeframe, start_time, end_time,
			initial_capital, final_capital, cagr, sharpe, max_drawdown,
			trades_per_day, trades_per_month, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Strategy,
		run.Instrument,
		run.Timeframe,
		run.Start.UTC().Format(time.RFC3339),
		run.End.UTC().Format(time.RFC3339),
		run.InitialCapital,
		run.Metrics.FinalCapital,
		run.Metrics.CAGR,
		run.Metrics.Sharpe,
		run.Metrics.MaxDrawdown,
		run.Metrics.AvgTradesPerDay,
		run.Metrics.AvgTradesPerMonth,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// SaveTrades persists the trade ledger for a saved run inside a single
// transaction.
func (s *SQLiteStore) SaveTrades(ctx context.Context, runID int64, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, timestamp, type, side, price, size, balance, profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			runID,
			t.Timestamp.UTC().Format(time.RFC3339),
			string(t.Type),
			string(t.Side),
			t.Price,
			t.Size,
			t.Balance,
			t.Profit,
		); err != nil {
			return fmt.Errorf("inserting trade: %w", err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, instrument, timeframe, start_time, end_time,
		       initial_capital, final_capital, cagr, sharpe, max_drawdown,
		       trades_per_day, trades_per_month, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run                            RunSummary
			startStr, endStr, createdAtStr string
		)
		if err := rows.Scan(
			&run.ID,
			&run.Strategy,
			&run.Instrument,
			&run.Timeframe,
			&startStr,
			&endStr,
			&run.InitialCapital,
			&run.Metrics.FinalCapital,
			&run.Metrics.CAGR,
			&run.Metrics.Sharpe,
			&run.Metrics.MaxDrawdown,
			&run.Metrics.AvgTradesPerDay,
			&run.Metrics.AvgTradesPerMonth,
			&createdAtStr,
		); err != nil {
			return nil, err
		}
		if run.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("parsing run start: %w", err)
		}
		if run.End, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("parsing run end: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing run created_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadTrades returns the trade ledger for a run, in insertion order.
func (s *SQLiteStore) LoadTrades(ctx context.Context, runID int64) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, type, side, price, size, balance, profit
		FROM trades
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t       domain.Trade
			tsStr   string
			typStr  string
			sideStr string
		)
		if err := rows.Scan(&tsStr, &typStr, &sideStr, &t.Price, &t.Size, &t.Balance, &t.Profit); err != nil {
			return nil, err
		}
		if t.Timestamp, err = time.Parse(time.RFC3339, tsStr); err != nil {
			return nil, fmt.Errorf("parsing trade timestamp: %w", err)
		}
		t.Type = domain.TradeType(typStr)
		t.Side = domain.Side(sideStr)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
