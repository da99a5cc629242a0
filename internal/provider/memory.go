package provider

import (
	"context"
	"sync"
	"time"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

type memoryItem struct {
	series   model.Series
	expireAt time.Time
}

func (m memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryStore is a process-local Store guarded by a mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[Key]memoryItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[Key]memoryItem),
		now:   time.Now,
	}
}

// Get returns a copy of the stored series so callers cannot alter cached bars.
func (s *MemoryStore) Get(_ context.Context, key Key) (model.Series, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return model.Series{}, ErrCacheMiss
	}
	if item.expired(s.now()) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return model.Series{}, ErrCacheMiss
	}
	return cloneSeries(item.series), nil
}

// Set stores the series; ttl <= 0 keeps it until the process exits.
func (s *MemoryStore) Set(_ context.Context, key Key, series model.Series, ttl time.Duration) error {
	item := memoryItem{series: cloneSeries(series)}
	if ttl > 0 {
		item.expireAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func cloneSeries(series model.Series) model.Series {
	return model.Series{
		Symbol:  series.Symbol,
		Candles: append([]model.Candle(nil), series.Candles...),
	}
}
