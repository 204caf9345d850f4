// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetchcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type dashboard struct {
	TodayReading  int
	StudySessions int
}

func TestCache_GetSetTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithTTL(time.Minute), WithClock(clock.Now))

	_, ok := c.Get("dashboard")
	assert.False(t, ok)

	c.Set("dashboard", 42)
	entry, ok := c.Get("dashboard")
	require.True(t, ok)
	assert.Equal(t, "dashboard", entry.Key)
	assert.Equal(t, 42, entry.Value)
	assert.Equal(t, clock.Now(), entry.Timestamp)

	clock.Advance(59 * time.Second)
	age, ok := c.Age("dashboard")
	assert.True(t, ok)
	assert.Equal(t, 59*time.Second, age)

	clock.Advance(time.Second)
	_, ok = c.Get("dashboard")
	assert.False(t, ok, "entry at exactly TTL is stale")
	assert.Equal(t, 1, c.Len(), "stale entries are not removed on read")
}

func TestCache_Defaults(t *testing.T) {
	c := New(WithTTL(0), WithMaxEntries(-1))
	assert.Equal(t, DefaultTTL, c.TTL())
	assert.Equal(t, DefaultMaxEntries, c.maxEntries)
}

func TestCache_MaxEntries(t *testing.T) {
	c := New(WithMaxEntries(2))
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	c.Set("timetables", []string{"week 1"})
	c.Invalidate("timetables")
	_, ok := c.Get("timetables")
	assert.False(t, ok)

	// Invalidating a missing key is harmless.
	c.Invalidate("missing")
}

func TestCache_BeginSupersedes(t *testing.T) {
	c := New()
	ctx1, id1, gen1 := c.begin(context.Background(), "dashboard")
	c.Invalidate("dashboard")
	ctx2, id2, gen2 := c.begin(context.Background(), "dashboard")

	assert.Equal(t, gen1+1, gen2)

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
	assert.True(t, c.Pending("dashboard"))

	assert.False(t, c.finish("dashboard", id1))
	assert.True(t, c.finish("dashboard", id2))
	assert.False(t, c.Pending("dashboard"))
}

func TestQuery_ServesLiveEntryWithoutFetching(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls atomic.Int32
	q := NewQuery(c, "dashboard", func(context.Context) (dashboard, error) {
		calls.Add(1)
		return dashboard{TodayReading: 30, StudySessions: 2}, nil
	})

	st := q.Load(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, dashboard{TodayReading: 30, StudySessions: 2}, st.Data)
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)

	clock.Advance(4 * time.Minute)
	st = q.Load(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 30, st.Data.TodayReading)

	clock.Advance(time.Minute)
	q.Load(context.Background())
	assert.Equal(t, int32(2), calls.Load(), "entry past TTL is refetched")
}

func TestQuery_DashboardScenario(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls atomic.Int32
	q := NewQuery(c, "dashboard", func(context.Context) (*dashboard, error) {
		calls.Add(1)
		return &dashboard{TodayReading: 30, StudySessions: 2}, nil
	})

	first := q.Load(context.Background())
	require.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Second)
	second := q.Load(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, first.Data, second.Data)

	q.Invalidate()
	clock.Advance(time.Second)
	q.Load(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_SharedKeyAcrossQueries(t *testing.T) {
	c := New()
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "week-a", nil
	}

	q1 := NewQuery(c, "timetables", fetch)
	q2 := NewQuery(c, "timetables", fetch)

	q1.Load(context.Background())
	st := q2.Load(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "week-a", st.Data)
}

func TestQuery_ErrorKeepsPreviousData(t *testing.T) {
	c := New()
	fail := false
	q := NewQuery(c, "dashboard", func(context.Context) (string, error) {
		if fail {
			return "", errors.New("502 bad gateway")
		}
		return "ok", nil
	})

	q.Load(context.Background())
	q.Invalidate()
	fail = true

	st := q.Load(context.Background())
	assert.EqualError(t, st.Err, "502 bad gateway")
	assert.False(t, st.Loading)
	assert.True(t, st.HasData)
	assert.Equal(t, "ok", st.Data)

	_, ok := c.Get("dashboard")
	assert.False(t, ok, "failures are not cached")
}

func TestQuery_CancelledFailureIsSilent(t *testing.T) {
	c := New()
	q := NewQuery(c, "dashboard", func(context.Context) (string, error) {
		return "", context.Canceled
	})

	st := q.Load(context.Background())
	assert.NoError(t, st.Err)
	assert.False(t, st.HasData)
	assert.False(t, st.Loading)
}

func TestQuery_LatestRequestWins(t *testing.T) {
	c := New()

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	var calls atomic.Int32

	q := NewQuery(c, "notes", func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(startedA)
			// Ignore ctx on purpose: the transport already has a response.
			<-releaseA
			return "A", nil
		}
		return "B", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Load(context.Background(), "page", 1)
	}()
	<-startedA

	st := q.Load(context.Background(), "page", 2)
	assert.Equal(t, "B", st.Data)

	close(releaseA)
	wg.Wait()

	assert.Equal(t, "B", q.State().Data)
	entry, ok := c.Get("notes")
	require.True(t, ok)
	assert.Equal(t, "B", entry.Value)
}

func TestQuery_LatestRequestWinsAcrossQueries(t *testing.T) {
	c := New()

	startedA := make(chan struct{})
	releaseA := make(chan struct{})

	qa := NewQuery(c, "dashboard", func(context.Context) (string, error) {
		close(startedA)
		<-releaseA
		return "A", nil
	})
	qb := NewQuery(c, "dashboard", func(context.Context) (string, error) {
		return "B", nil
	})

	done := make(chan State[string])
	go func() { done <- qa.Load(context.Background()) }()
	<-startedA

	assert.Equal(t, "B", qb.Load(context.Background()).Data)
	close(releaseA)

	st := <-done
	assert.False(t, st.HasData, "superseded result is not applied")
	assert.False(t, st.Loading)

	entry, ok := c.Get("dashboard")
	require.True(t, ok)
	assert.Equal(t, "B", entry.Value)
}

func TestQuery_SameDepsJoinInFlight(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	q := NewQuery(c, "timetables", func(context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 7, nil
	})

	results := make(chan State[int], 2)
	go func() { results <- q.Load(context.Background()) }()
	<-started
	assert.True(t, q.State().Loading)

	go func() { results <- q.Load(context.Background()) }()
	// Give the joiner a chance to block before the fetch completes; either
	// order leads to a single fetch since the result is cached.
	time.Sleep(10 * time.Millisecond)
	close(release)

	assert.Equal(t, 7, (<-results).Data)
	assert.Equal(t, 7, (<-results).Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_InvalidateDuringSameDepsLoadRefetches(t *testing.T) {
	c := New()

	started := make(chan struct{})
	var calls atomic.Int32

	q := NewQuery(c, "dashboard", func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-ctx.Done()
			return 1, ctx.Err()
		}
		return int(n), nil
	})

	first := make(chan State[int], 1)
	go func() { first <- q.Load(context.Background(), "week") }()
	<-started

	q.Invalidate()
	st := q.Load(context.Background(), "week")

	assert.Equal(t, int32(2), calls.Load(), "read after invalidate fetches again")
	assert.True(t, st.HasData)
	assert.Equal(t, 2, st.Data)

	// The request begun before the invalidate is discarded, not stored.
	<-first
	assert.Equal(t, 2, q.State().Data)

	entry, ok := c.Get("dashboard")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Value)
}

func TestQuery_CloseCancelsInFlight(t *testing.T) {
	c := New()
	started := make(chan struct{})

	q := NewQuery(c, "dashboard", func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})

	done := make(chan State[string])
	go func() { done <- q.Load(context.Background()) }()
	<-started

	q.Close()
	st := <-done
	assert.NoError(t, st.Err)
	assert.False(t, c.Pending("dashboard"))
	assert.Equal(t, 0, c.Len())

	// A closed query never fetches again.
	assert.False(t, q.Load(context.Background()).Loading)
}
