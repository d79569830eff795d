package fetch

import (
	"context"
	"log/slog"
	"time"

	"makemytrade/internal/domain"
)

// BarCache persists bar ranges keyed by instrument, timeframe and time
// range. Load reports a miss with ok == false; only a corrupt or unreadable
// cache yields an error.
type BarCache interface {
	Load(ctx context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) (bars []domain.Bar, ok bool, err error)
	Save(ctx context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time, bars []domain.Bar) error
}

var _ Fetcher = (*CachedFetcher)(nil)

// CachedFetcher serves history from a BarCache and falls through to the
// wrapped Fetcher on a miss, writing the result back. Cache write failures
// are logged, not fatal: the caller still gets its bars.
type CachedFetcher struct {
	cache BarCache
	next  Fetcher
	log   *slog.Logger
}

// NewCachedFetcher wraps next with the given cache.
func NewCachedFetcher(cache BarCache, next Fetcher) *CachedFetcher {
	return &CachedFetcher{
		cache: cache,
		next:  next,
		log:   slog.Default().With("fetcher", "cached"),
	}
}

func (f *CachedFetcher) FetchHistory(ctx context.Context, instrument domain.Instrument, timeframe domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	bars, ok, err := f.cache.Load(ctx, instrument, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	if ok {
		f.log.Debug("cache hit", "instrument", instrument, "timeframe", timeframe, "count", len(bars))
		return bars, nil
	}

	f.log.Debug("cache miss", "instrument", instrument, "timeframe", timeframe)
	bars, err = f.next.FetchHistory(ctx, instrument, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Save(ctx, instrument, timeframe, start, end, bars); err != nil {
		f.log.Warn("cache save failed", "instrument", instrument, "err", err)
	}
	return bars, nil
}
