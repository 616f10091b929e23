// Package cache holds short-lived inference results (customer insight
// bundles, the churn composition snapshot) so repeated dashboard visits do
// not re-trigger expensive model calls. Entries expire on a fixed TTL; there
// is no size bound because the key space is tiny (one key per customer plus
// a handful of singletons).
package cache

import (
	"sync"
	"time"
)

// minSweepInterval caps how often the janitor wakes up when the TTL is very
// short (tests use millisecond TTLs).
const minSweepInterval = time.Second

type item[T any] struct {
	value    T
	deadline time.Time
}

// InMemory is a TTL cache safe for concurrent use.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New creates a cache whose entries expire ttl after Set. A janitor
// goroutine sweeps expired entries for the life of the process.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.janitor()
	return c
}

// Get returns the cached value, or false if the key is absent or expired.
// Expired entries are left for the janitor; Get stays read-locked.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || time.Now().After(it.deadline) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key with a fresh deadline.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{value: value, deadline: time.Now().Add(c.ttl)}
}

// Delete evicts key immediately.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *InMemory[T]) janitor() {
	interval := c.ttl
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, it := range c.items {
			if now.After(it.deadline) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
