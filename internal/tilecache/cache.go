// Package tilecache keeps rendered tile bytes for a bounded time and count.
package tilecache

import (
	"sync"
	"time"
)

const (
	DefaultTTL      = 10 * time.Minute
	DefaultCapacity = 256
)

type entry struct {
	data    []byte
	created time.Time
}

// Cache is an in-memory tile store. Entries expire TTL after insertion and,
// once the cache is over capacity, the entry inserted earliest is evicted.
// Reads do not refresh an entry.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// New returns a cache; non-positive arguments select the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[string]entry, capacity+1),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the bytes stored under key. Expired entries are removed and
// reported as a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Put stores data under key with the current time, replacing any previous
// entry. The caller must not modify data afterwards.
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, created: c.now()}
	if len(c.entries) > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.created.Before(oldest) {
			oldestKey, oldest, found = k, e.created, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }
