package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"makemytrade/internal/domain"
	"makemytrade/internal/fetch"
)

// Compile-time interface check.
var _ fetch.BarCache = (*ParquetCache)(nil)

// ParquetCache caches fetched bar history as Parquet files on disk, one file
// per (instrument, timeframe, range) key. A key either exists in full or not
// at all; there is no partial-range reuse.
type ParquetCache struct {
	DataDir string
}

// NewParquetCache creates a ParquetCache rooted at the given data directory.
func NewParquetCache(dataDir string) *ParquetCache {
	return &ParquetCache{DataDir: dataDir}
}

// BarRecord is the Parquet schema for cached bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// Load reads the cached bars for the exact key, reporting ok == false when
// no file exists for it.
func (c *ParquetCache) Load(_ context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) ([]domain.Bar, bool, error) {
	path := c.barPath(instrument, timeframe, start, end)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}

	records, err := readParquetFile[BarRecord](path)
	if err != nil {
		return nil, false, fmt.Errorf("reading cached bars %s: %w", path, err)
	}

	bars := make([]domain.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.Bar{
			Symbol:    r.Symbol,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars, true, nil
}

// Save writes bars for the key, replacing any previous file. Records are
// sorted by timestamp so cached ranges replay in order.
func (c *ParquetCache) Save(_ context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time, bars []domain.Bar) error {
	records := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, BarRecord{
			Symbol:    b.Symbol,
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	path := c.barPath(instrument, timeframe, start, end)
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing cached bars %s: %w", path, err)
	}
	return nil
}

// barPath returns the cache file path for a key.
// Layout: <dataDir>/bars/<SYMBOL>/<timeframe>/<start>_<end>.parquet
func (c *ParquetCache) barPath(instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s.parquet", start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	return filepath.Join(c.DataDir, "bars", instrument.Symbol(), string(timeframe), name)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
