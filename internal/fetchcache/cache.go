// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetchcache

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/golang-lru/simplelru"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 128
)

// Entry is a single memoized value. Entries are replaced wholesale and never
// mutated in place.
type Entry struct {
	Key       string
	Value     any
	Timestamp time.Time
}

// pending is the one in-flight request allowed per key.
type pending struct {
	id     uint64
	cancel context.CancelFunc
}

// Cache is a key addressed store shared by every consumer it is handed to.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    *simplelru.LRU
	pending    map[string]*pending
	gens       map[string]uint64
	seq        uint64
	now        func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL sets how long an entry stays live. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the number of entries kept. The least recently used
// entry is dropped when the bound is exceeded. Non-positive values are ignored.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		pending:    make(map[string]*pending),
		gens:       make(map[string]uint64),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// maxEntries is always positive here, which is the only failure mode of
	// NewLRU.
	c.entries, _ = simplelru.NewLRU(c.maxEntries, func(key, _ interface{}) {
		log.Debugf("fetchcache: evicted %v", key)
	})

	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for key if it is younger than the TTL.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(key)
}

func (c *Cache) liveLocked(key string) (Entry, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false
	}
	entry := v.(Entry) //nolint:forcetypeassert
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// Set stores value under key stamped with the current time.
func (c *Cache) Set(key string, value any) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Key: key, Value: value, Timestamp: c.now()}
	c.entries.Add(key, entry)
	return entry
}

// Invalidate removes the entry for key and starts a new generation for it. A
// request in flight for key is left alone and will repopulate the entry when it
// completes, but a later read will not join it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[key]++
	if c.entries.Remove(key) {
		log.Debugf("fetchcache: invalidated %s", key)
	}
}

// Age reports how old the live entry for key is.
func (c *Cache) Age(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.liveLocked(key)
	if !ok {
		return 0, false
	}
	return c.now().Sub(entry.Timestamp), true
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// generation returns the invalidation count of key.
func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Pending reports whether a request is in flight for key.
func (c *Cache) Pending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// begin cancels whatever request is in flight for key and registers a new
// one. The returned context is cancelled when a later begin for the same key
// supersedes it.
func (c *Cache) begin(parent context.Context, key string) (context.Context, uint64, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pending[key]; ok {
		log.Debugf("fetchcache: superseding request %d for %s", p.id, key)
		p.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	c.seq++
	c.pending[key] = &pending{id: c.seq, cancel: cancel}
	return ctx, c.seq, c.gens[key]
}

// finish releases the request id for key and reports whether it was still the
// current one.
func (c *Cache) finish(key string, id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[key]
	if !ok || p.id != id {
		return false
	}
	p.cancel()
	delete(c.pending, key)
	return true
}
