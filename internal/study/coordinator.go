// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package study

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/studyctl/internal/api"
	"github.com/staranto/studyctl/internal/fetchcache"
	"github.com/staranto/studyctl/internal/gate"
)

// Cache keys of the two aggregate reads.
const (
	KeyDashboard  = "dashboard"
	KeyTimetables = "timetables"
)

// DefaultPeriod is the stats period used when none is given.
const DefaultPeriod = "week"

// ErrNoSession is returned by operations that need a current session.
var ErrNoSession = errors.New("no current session")

// API is the part of the REST client the coordinator needs.
type API interface {
	Dashboard(ctx context.Context) (*api.Dashboard, error)
	Timetables(ctx context.Context) ([]api.Timetable, error)
	State(ctx context.Context) (*api.SessionState, error)
	SaveState(ctx context.Context, s api.SessionState) (*api.SessionState, error)
	ClearState(ctx context.Context) error
	CreateSession(ctx context.Context, s api.CompletedSession) error
	TodaySessions(ctx context.Context) ([]api.CompletedSubject, error)
	SessionStats(ctx context.Context, period string) (*api.SessionStats, error)
	Notes(ctx context.Context, q api.NotesQuery) (*api.NotesPage, error)
	CreateNote(ctx context.Context, n api.Note) (*api.Note, error)
	UpdateNote(ctx context.Context, id string, n api.Note) (*api.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// EndRequest carries what the user reports when finishing a session. Times
// are minutes; a zero ActualTime is derived from the session's elapsed time.
type EndRequest struct {
	ActualTime int
	TargetTime int
	Notes      string
}

// State is a point-in-time copy of everything the coordinator exposes.
type State struct {
	Current           *api.SessionState
	IsStudying        bool
	Dashboard         fetchcache.State[*api.Dashboard]
	Timetables        fetchcache.State[[]api.Timetable]
	ActiveTimetable   *api.Timetable
	CompletedSubjects []api.CompletedSubject
	Notes             *api.NotesPage
	LoadingNotes      bool
}

// Coordinator owns the study session and the reads that depend on it.
type Coordinator struct {
	api   API
	cache *fetchcache.Cache
	gate  *gate.Gate
	now   func() time.Time

	dashboard  *fetchcache.Query[*api.Dashboard]
	timetables *fetchcache.Query[[]api.Timetable]

	mu           sync.Mutex
	current      *api.SessionState
	isStudying   bool
	completed    []api.CompletedSubject
	notes        *api.NotesPage
	notesQuery   api.NotesQuery
	loadingNotes bool
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRefreshInterval sets the minimum time between accepted refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.gate = gate.New(d) }
}

// New wires a Coordinator to client and the shared cache.
func New(client API, cache *fetchcache.Cache, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:   client,
		cache: cache,
		gate:  gate.New(gate.DefaultInterval),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.dashboard = fetchcache.NewQuery(cache, KeyDashboard, client.Dashboard)
	c.timetables = fetchcache.NewQuery(cache, KeyTimetables, client.Timetables)
	return c
}

// Cache returns the cache the coordinator reads through.
func (c *Coordinator) Cache() *fetchcache.Cache {
	return c.cache
}

// Load reads the dashboard and the timetables concurrently. Each settles on
// its own; the first error, if any, is returned after both are done.
func (c *Coordinator) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return c.Dashboard(ctx).Err })
	g.Go(func() error { return c.Timetables(ctx).Err })
	return g.Wait()
}

// Dashboard reads the dashboard through the cache.
func (c *Coordinator) Dashboard(ctx context.Context) fetchcache.State[*api.Dashboard] {
	return c.dashboard.Load(ctx)
}

// Timetables reads the timetables through the cache.
func (c *Coordinator) Timetables(ctx context.Context) fetchcache.State[[]api.Timetable] {
	return c.timetables.Load(ctx)
}

// RestoreSession picks up a session that is already in progress on the
// server.
func (c *Coordinator) RestoreSession(ctx context.Context) error {
	s, err := c.api.State(ctx)
	if err != nil {
		log.WithError(err).Error("failed to restore session")
		return fmt.Errorf("restore session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
	c.isStudying = s != nil
	return nil
}

// StartSession begins a new active session for subject.
func (c *Coordinator) StartSession(ctx context.Context, subject string) error {
	return c.StartSessionWithTarget(ctx, subject, 0)
}

// StartSessionWithTarget begins a session with a target time in minutes.
func (c *Coordinator) StartSessionWithTarget(ctx context.Context, subject string, target int) error {
	now := c.now()
	rec := api.SessionState{
		Subject:     subject,
		Status:      api.StatusActive,
		StartTime:   now,
		ElapsedTime: 0,
		ResumedAt:   &now,
		TargetTime:  target,
	}

	stored, err := c.api.SaveState(ctx, rec)
	if err != nil {
		log.WithError(err).WithField("subject", subject).Error("failed to start session")
		return fmt.Errorf("start session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = stored
	c.isStudying = true
	log.Debugf("started session for %s", subject)
	return nil
}

// PauseSession pauses the current session, folding the active stretch into
// its elapsed time.
func (c *Coordinator) PauseSession(ctx context.Context) error {
	return c.toggle(ctx, api.StatusPaused)
}

// ResumeSession makes a paused session active again.
func (c *Coordinator) ResumeSession(ctx context.Context) error {
	return c.toggle(ctx, api.StatusActive)
}

func (c *Coordinator) toggle(ctx context.Context, to api.SessionStatus) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	if cur == nil {
		return ErrNoSession
	}
	if cur.Status == to {
		return nil
	}

	now := c.now()
	next := *cur
	next.Status = to
	switch to {
	case api.StatusPaused:
		next.ElapsedTime = int64(cur.Elapsed(now) / time.Second)
		next.ResumedAt = nil
	case api.StatusActive:
		next.ResumedAt = &now
	}

	stored, err := c.api.SaveState(ctx, next)
	if err != nil {
		log.WithError(err).WithField("status", to).Error("failed to update session")
		return fmt.Errorf("set session %s: %w", to, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = stored
	return nil
}

// EndSession records the current session as completed, clears it, and
// refreshes the reads it affects. If recording or clearing fails the session
// is left as it was.
func (c *Coordinator) EndSession(ctx context.Context, req EndRequest) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	if cur == nil {
		return ErrNoSession
	}

	now := c.now()
	actual := req.ActualTime
	if actual == 0 {
		actual = int(cur.Elapsed(now).Round(time.Minute) / time.Minute)
	}
	target := req.TargetTime
	if target == 0 {
		target = cur.TargetTime
	}

	rec := api.CompletedSession{
		Subject:    cur.Subject,
		StartTime:  cur.StartTime,
		EndTime:    now,
		ActualTime: actual,
		TargetTime: target,
		Notes:      req.Notes,
	}

	if err := c.api.CreateSession(ctx, rec); err != nil {
		log.WithError(err).WithField("subject", cur.Subject).Error("failed to save completed session")
		return fmt.Errorf("end session: %w", err)
	}

	if err := c.api.ClearState(ctx); err != nil {
		log.WithError(err).Error("failed to clear session state")
		return fmt.Errorf("end session: %w", err)
	}

	c.mu.Lock()
	c.current = nil
	c.isStudying = false
	c.mu.Unlock()

	c.RefreshDashboardAndTimetables()
	c.FetchCompletedSubjects(ctx)
	return nil
}

// RefreshDashboardAndTimetables invalidates both aggregate reads unless it
// already did so within the refresh interval. It reports whether it did.
func (c *Coordinator) RefreshDashboardAndTimetables() bool {
	if !c.gate.Allow(c.now()) {
		log.Debug("refresh dropped, too soon")
		return false
	}
	c.dashboard.Invalidate()
	c.timetables.Invalidate()
	return true
}

// RefreshWindow exposes the refresh gate's window.
func (c *Coordinator) RefreshWindow() gate.Window {
	return c.gate.Window()
}

// FetchCompletedSubjects reads today's completed subjects. On failure the list
// is emptied rather than left stale.
func (c *Coordinator) FetchCompletedSubjects(ctx context.Context) []api.CompletedSubject {
	list, err := c.api.TodaySessions(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to fetch completed subjects")
		list = []api.CompletedSubject{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = list
	return list
}

// FetchSessionStats reads the stats for period, DefaultPeriod when empty. It
// returns nil when the stats are unavailable.
func (c *Coordinator) FetchSessionStats(ctx context.Context, period string) *api.SessionStats {
	if period == "" {
		period = DefaultPeriod
	}
	stats, err := c.api.SessionStats(ctx, period)
	if err != nil {
		log.WithError(err).WithField("period", period).Warn("failed to fetch session stats")
		return nil
	}
	return stats
}

// FetchNotes reads one page of notes. LoadingNotes is set for the duration of
// the call whatever its outcome; on failure the previous page is kept.
func (c *Coordinator) FetchNotes(ctx context.Context, q api.NotesQuery) (*api.NotesPage, error) {
	c.setLoadingNotes(true)
	defer c.setLoadingNotes(false)

	page, err := c.api.Notes(ctx, q)
	if err != nil {
		log.WithError(err).Warn("failed to fetch notes")
		return nil, fmt.Errorf("fetch notes: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = page
	c.notesQuery = q
	return page, nil
}

func (c *Coordinator) setLoadingNotes(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingNotes = v
}

// CreateNote stores a note and refreshes the notes list.
func (c *Coordinator) CreateNote(ctx context.Context, n api.Note) (*api.Note, error) {
	out, err := c.api.CreateNote(ctx, n)
	if err != nil {
		log.WithError(err).Error("failed to create note")
		return nil, fmt.Errorf("create note: %w", err)
	}
	c.refetchNotes(ctx)
	return out, nil
}

// UpdateNote replaces a note and refreshes the notes list.
func (c *Coordinator) UpdateNote(ctx context.Context, id string, n api.Note) (*api.Note, error) {
	out, err := c.api.UpdateNote(ctx, id, n)
	if err != nil {
		log.WithError(err).WithField("id", id).Error("failed to update note")
		return nil, fmt.Errorf("update note %s: %w", id, err)
	}
	c.refetchNotes(ctx)
	return out, nil
}

// DeleteNote removes a note and refreshes the notes list.
func (c *Coordinator) DeleteNote(ctx context.Context, id string) error {
	if err := c.api.DeleteNote(ctx, id); err != nil {
		log.WithError(err).WithField("id", id).Error("failed to delete note")
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	c.refetchNotes(ctx)
	return nil
}

func (c *Coordinator) refetchNotes(ctx context.Context) {
	c.mu.Lock()
	q := c.notesQuery
	c.mu.Unlock()
	_, _ = c.FetchNotes(ctx, q)
}

// Snapshot returns a copy of the coordinator's state.
func (c *Coordinator) Snapshot() State {
	dash := c.dashboard.State()
	tts := c.timetables.State()

	c.mu.Lock()
	defer c.mu.Unlock()

	var cur *api.SessionState
	if c.current != nil {
		cp := *c.current
		cur = &cp
	}

	return State{
		Current:           cur,
		IsStudying:        c.isStudying,
		Dashboard:         dash,
		Timetables:        tts,
		ActiveTimetable:   ActiveTimetable(tts.Data),
		CompletedSubjects: append([]api.CompletedSubject(nil), c.completed...),
		Notes:             c.notes,
		LoadingNotes:      c.loadingNotes,
	}
}

// Close cancels any read still in flight.
func (c *Coordinator) Close() {
	c.dashboard.Close()
	c.timetables.Close()
}
