package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

// ErrCacheMiss is returned by a Store that holds nothing for a key.
var ErrCacheMiss = errors.New("cache: key not found")

// Store persists fetched series by request key.
type Store interface {
	Get(ctx context.Context, key Key) (model.Series, error)
	Set(ctx context.Context, key Key, series model.Series, ttl time.Duration) error
}

// CacheObserver receives cache outcomes; the metrics recorder implements it.
type CacheObserver interface {
	ObserveCache(result string)
}

// CachedProvider serves repeated fetches of the same key from a Store.
type CachedProvider struct {
	next     Provider
	store    Store
	ttl      time.Duration
	observer CacheObserver
	logger   zerolog.Logger
}

// NewCachedProvider wraps next with store. A nil observer disables cache metrics.
func NewCachedProvider(next Provider, store Store, ttl time.Duration, observer CacheObserver) *CachedProvider {
	return &CachedProvider{
		next:     next,
		store:    store,
		ttl:      ttl,
		observer: observer,
		logger:   log.With().Str("component", "fetch_cache").Logger(),
	}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string {
	return c.next.Name()
}

// Fetch returns the cached series for the key or fetches and stores it. Store failures
// are logged and never fail the fetch; fetch failures are never cached.
func (c *CachedProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error) {
	if err := ValidateRequest(ticker, start, end); err != nil {
		return model.Series{}, err
	}
	key := NewKey(ticker, start, end)

	series, err := c.store.Get(ctx, key)
	switch {
	case err == nil && series.Len() > 0:
		c.observe("hit")
		c.logger.Debug().Str("key", key.String()).Int("bars", series.Len()).Msg("Cache hit")
		return series, nil
	case err != nil && !errors.Is(err, ErrCacheMiss):
		c.observe("error")
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed")
	default:
		c.observe("miss")
	}

	series, err = c.next.Fetch(ctx, key.Ticker, key.Start, key.End)
	if err != nil {
		return model.Series{}, err
	}

	if err := c.store.Set(ctx, key, series, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
	}
	return series, nil
}

func (c *CachedProvider) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}
