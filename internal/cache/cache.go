// Package cache provides the time-bounded fetch cache shared by repeated
// pipeline runs. Entries are keyed by resolved URL; the last successful
// write for a key wins.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the default time-to-live for cached fetch results.
const DefaultTTL = 60 * time.Second

type entry struct {
	value    string
	storedAt time.Time
}

// Cache is a TTL-bounded string cache. Thread-safe for concurrent access.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option customizes cache construction.
type Option func(*Cache)

// WithClock allows tests to control entry expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// New creates a cache with the specified TTL. Non-positive TTLs fall back to
// DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached value if present and not expired.
// Returns (value, true) on hit, ("", false) on miss.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return "", false
	}
	return e.value, true
}

// Put stores a value under the key, restarting its TTL window.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// InvalidateAll drops every entry. A manual refresh calls this before the
// next fetch begins, so a run never observes a half-cleared cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Len reports how many entries are stored, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
