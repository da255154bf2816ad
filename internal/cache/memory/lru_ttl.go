package memory

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUTTL is a threadsafe LRU table whose entries each carry their own expiry.
// When full, the least recently touched entry is evicted.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[K]*list.Element
	maxEntries int
	now        func() time.Time
}

func NewLRUTTL[K comparable, V any](maxEntries int) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &LRUTTL[K, V]{
		ll:         list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// WithClock replaces the time source; for tests.
func (c *LRUTTL[K, V]) WithClock(now func() time.Time) *LRUTTL[K, V] {
	c.now = now
	return c
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.live(key)
	if !ok {
		return zero, false
	}
	c.ll.MoveToFront(ele)
	return ele.Value.(*entry[K, V]).value, true
}

// Set stores value until ttl has passed.
func (c *LRUTTL[K, V]) Set(key K, value V, ttl time.Duration) {
	c.Upsert(key, ttl, func(V, bool) V { return value })
}

// Upsert atomically replaces the value for key with fn(old, found). A live
// entry keeps its expiry; a missing or expired one expires ttl from now.
// It returns the stored value and its expiry.
func (c *LRUTTL[K, V]) Upsert(key K, ttl time.Duration, fn func(old V, found bool) V) (V, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.live(key); ok {
		ent := ele.Value.(*entry[K, V])
		ent.value = fn(ent.value, true)
		c.ll.MoveToFront(ele)
		return ent.value, ent.expiresAt
	}

	var zero V
	ent := &entry[K, V]{
		key:       key,
		value:     fn(zero, false),
		expiresAt: c.now().Add(ttl),
	}
	c.items[key] = c.ll.PushFront(ent)
	c.evictLocked()
	return ent.value, ent.expiresAt
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.removeElement(ele)
	}
}

func (c *LRUTTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// live returns the element for key, dropping it if it has expired.
func (c *LRUTTL[K, V]) live(key K) (*list.Element, bool) {
	ele, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(ele.Value.(*entry[K, V]).expiresAt) {
		c.removeElement(ele)
		return nil, false
	}
	return ele, true
}

func (c *LRUTTL[K, V]) evictLocked() {
	for c.ll.Len() > c.maxEntries {
		c.removeElement(c.ll.Back())
	}
}

func (c *LRUTTL[K, V]) removeElement(ele *list.Element) {
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	delete(c.items, ele.Value.(*entry[K, V]).key)
}
