// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package gate provides a debounced gate that accepts at most one invocation
// per minimum interval and silently rejects the rest.
package gate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum time between two accepted refreshes.
const DefaultInterval = 2000 * time.Millisecond

// Window is a snapshot of the gate's rate window.
type Window struct {
	LastAccepted time.Time
	MinInterval  time.Duration
}

// Gate accepts an invocation only when MinInterval has elapsed since the last
// accepted one. Rejected invocations leave the gate untouched.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
}

// New returns a Gate for the given interval. A non-positive interval yields a
// gate that accepts everything.
func New(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Allow reports whether an invocation at now is accepted.
func (g *Gate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	// rate.Limiter tolerates clocks that go backwards, but an accepted time
	// earlier than the last one would make the window meaningless.
	if !g.last.IsZero() && now.Before(g.last) {
		return false
	}

	if !g.limiter.AllowN(now, 1) {
		return false
	}
	g.last = now
	return true
}

// Window returns the current rate window. LastAccepted is zero until the
// first accepted invocation.
func (g *Gate) Window() Window {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Window{LastAccepted: g.last, MinInterval: g.interval}
}
