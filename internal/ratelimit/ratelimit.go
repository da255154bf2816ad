// Package ratelimit counts requests per key in fixed windows backed by a keyed
// expiry table, either in process or in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"safewatch/internal/cache/memory"
)

// Store increments the counter for key, starting a new window of the given
// length when none is live, and reports the count and when the window resets.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
}

func NewLimiter(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimit: store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("ratelimit: limit and window must be positive")
	}
	return &Limiter{store: store, limit: limit, window: window, prefix: "ratelimit:"}, nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	n, reset, err := l.store.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: %w", err)
	}
	d := Decision{Allowed: n <= int64(l.limit), Limit: l.limit, ResetAt: reset}
	if rem := int64(l.limit) - n; rem > 0 {
		d.Remaining = int(rem)
	}
	return d, nil
}

// MemoryStore keeps counters in an LRU table; only valid within one process.
type MemoryStore struct {
	table *memory.LRUTTL[string, int64]
}

func NewMemoryStore(maxKeys int) *MemoryStore {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryStore{table: memory.NewLRUTTL[string, int64](maxKeys)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	n, reset := s.table.Upsert(key, window, func(old int64, _ bool) int64 { return old + 1 })
	return n, reset, nil
}
