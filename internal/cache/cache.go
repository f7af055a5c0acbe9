package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a concurrency-safe in-memory key-value cache with a per-cache
// TTL. A TTL of zero (or negative) disables expiry, which is how the
// session-lifetime place-name cache is configured.
//
// Instances are constructed and injected by the caller; there is no
// package-level state.
type Cache[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]entry[V]

	now func() time.Time // overridable in tests
}

// New creates a Cache with the given TTL.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
// Expired entries are evicted on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		delete(c.m, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry[V]{value: value, storedAt: c.now()}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
