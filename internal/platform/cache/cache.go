// Package cache provides an in-memory LRU cache with per-entry TTL.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// entry represents a cached item with metadata
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	element   *list.Element
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a goroutine-safe LRU cache. Entries with a zero TTL never
// expire; expired entries are dropped lazily on access or by CleanExpired.
type MemoryCache[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry[V]
	lruList  *list.List
	now      func() time.Time
}

// Option configures a MemoryCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int, opts ...Option) *MemoryCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache[V]{
		capacity: capacity,
		items:    make(map[string]*entry[V]),
		lruList:  list.New(),
		now:      o.now,
	}
}

// Get returns the value for key and marks it as recently used.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		c.deleteEntry(e)
		return zero, false
	}
	c.lruList.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key. A ttl of 0 means no expiry.
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.expiresAt = expiresAt
		c.lruList.MoveToFront(existing.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictLRU()
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lruList.PushFront(e)
	c.items[key] = e
}

// Delete removes key if present.
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.deleteEntry(e)
	}
}

// Clear removes every entry.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry[V])
	c.lruList.Init()
}

// Size returns the number of stored entries, expired ones included until
// they are cleaned.
func (c *MemoryCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache[V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// CleanExpired drops expired entries and returns how many were removed.
func (c *MemoryCache[V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, e := range c.items {
		if e.expired(now) {
			c.deleteEntry(e)
			removed++
		}
	}
	return removed
}

// Range calls fn for each live entry until fn returns false.
// fn must not call back into the cache.
func (c *MemoryCache[V]) Range(fn func(key string, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for el := c.lruList.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[V])
		if e.expired(now) {
			continue
		}
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Keys returns live keys, most recently used first.
func (c *MemoryCache[V]) Keys() []string {
	var keys []string
	c.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// must hold c.mu
func (c *MemoryCache[V]) evictLRU() {
	if el := c.lruList.Back(); el != nil {
		c.deleteEntry(el.Value.(*entry[V]))
	}
}

// must hold c.mu
func (c *MemoryCache[V]) deleteEntry(e *entry[V]) {
	delete(c.items, e.key)
	c.lruList.Remove(e.element)
}

// StartCleanupWorker runs CleanExpired every interval until the returned
// stop function is called.
func (c *MemoryCache[V]) StartCleanupWorker(interval time.Duration) func() {
	stop := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
