package search

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"safewatch/internal/types"
)

// Cached memoizes non-empty result batches per query for a fixed TTL.
// Errors are never cached.
type Cached struct {
	next  Searcher
	cache *expirable.LRU[string, []types.SearchResult]
}

func NewCached(next Searcher, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 256
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []types.SearchResult](size, nil, ttl),
	}
}

func (c *Cached) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	if hit, ok := c.cache.Get(query); ok {
		return append([]types.SearchResult(nil), hit...), nil
	}
	results, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		c.cache.Add(query, append([]types.SearchResult(nil), results...))
	}
	return results, nil
}
