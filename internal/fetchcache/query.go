// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetchcache

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/apex/log"
)

// FetchFunc performs the read for a Query. It should honor ctx, but results
// that arrive after ctx is cancelled are discarded either way.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is what a Query exposes to its consumer.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     error
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	// gen is the key's invalidation generation when the run began.
	gen uint64
}

// Query is one consumer's view of a cached read. Several queries may share a
// key; they then share the entry and the single in-flight request slot, so one
// may cancel the other's request.
type Query[T any] struct {
	cache *Cache
	key   string
	fetch FetchFunc[T]

	mu      sync.Mutex
	state   State[T]
	deps    []any
	invoked bool
	closed  bool
	run     *run
}

// NewQuery binds fetch to key on c.
func NewQuery[T any](c *Cache, key string, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{cache: c, key: key, fetch: fetch}
}

// Key returns the cache key of the query.
func (q *Query[T]) Key() string {
	return q.key
}

// State returns a copy of the current state.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Invalidate drops the cached entry for the query's key.
func (q *Query[T]) Invalidate() {
	q.cache.Invalidate(q.key)
}

// Load reads through the cache and blocks until the read settles.
//
// A live entry is returned without fetching. Otherwise any request in flight
// for the key is cancelled and a new one is started. Calling Load again with
// the same deps while this query's own request is in flight waits for that
// request instead of starting another, unless the key was invalidated since it
// began; different deps or an invalidation cancel it.
func (q *Query[T]) Load(ctx context.Context, deps ...any) State[T] {
	q.mu.Lock()
	if q.closed {
		defer q.mu.Unlock()
		return q.state
	}

	if q.run != nil && q.invoked && reflect.DeepEqual(q.deps, deps) &&
		q.run.gen == q.cache.generation(q.key) {
		done := q.run.done
		q.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return q.State()
	}

	if q.run != nil {
		q.run.cancel()
		q.run = nil
	}
	q.deps = deps
	q.invoked = true

	if entry, ok := q.cache.Get(q.key); ok {
		if v, ok := entry.Value.(T); ok {
			log.Debugf("fetchcache: hit %s", q.key)
			q.state = State[T]{Data: v, HasData: true}
			defer q.mu.Unlock()
			return q.state
		}
	}

	rctx, id, gen := q.cache.begin(ctx, q.key)
	r := &run{
		cancel: func() { q.cache.finish(q.key, id) },
		done:   make(chan struct{}),
		gen:    gen,
	}
	q.run = r
	q.state.Loading = true
	q.mu.Unlock()

	log.Debugf("fetchcache: miss %s, fetching", q.key)
	v, err := q.fetch(rctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	defer close(r.done)

	cancelled := rctx.Err() != nil || errors.Is(err, context.Canceled)
	current := q.cache.finish(q.key, id)
	own := q.run == r
	if own {
		q.run = nil
	}

	if cancelled || !current {
		log.Debugf("fetchcache: discarded superseded result for %s", q.key)
		// Nothing newer of our own will clear the flag.
		if own {
			q.state.Loading = false
		}
		return q.state
	}

	if err != nil {
		log.WithError(err).WithField("key", q.key).Warn("fetch failed")
		q.state.Loading = false
		q.state.Err = err
		return q.state
	}

	q.cache.Set(q.key, v)
	q.state = State[T]{Data: v, HasData: true}
	return q.state
}

// Close cancels the query's in-flight request, if any. Later Loads return the
// last state without fetching.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.run != nil {
		q.run.cancel()
	}
}
