// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package study

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/staranto/studyctl/internal/api"
)

var errBoom = errors.New("boom")

// fakeAPI records calls and returns canned responses. Fields ending in Err
// make the matching call fail.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	dashboard  *api.Dashboard
	timetables []api.Timetable
	state      *api.SessionState
	today      []api.CompletedSubject
	stats      *api.SessionStats
	notes      *api.NotesPage

	saved     []api.SessionState
	completed []api.CompletedSession

	dashboardErr error
	saveErr      error
	clearErr     error
	createErr    error
	todayErr     error
	statsErr     error
	notesErr     error
	stateErr     error

	// notesHook runs inside Notes before it returns.
	notesHook func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:      map[string]int{},
		dashboard:  &api.Dashboard{TodayReading: 30, StudySessions: 2},
		timetables: []api.Timetable{{ID: "t1", Name: "spring"}, {ID: "t2", Name: "exam", IsActive: true}},
		today:      []api.CompletedSubject{{Subject: "math", ActualTime: 25}},
		notes:      &api.NotesPage{Notes: []api.Note{{ID: "n1", Title: "limits"}}, Total: 1, Page: 1},
	}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Dashboard(context.Context) (*api.Dashboard, error) {
	f.hit("dashboard")
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	return f.dashboard, nil
}

func (f *fakeAPI) Timetables(context.Context) ([]api.Timetable, error) {
	f.hit("timetables")
	return f.timetables, nil
}

func (f *fakeAPI) State(context.Context) (*api.SessionState, error) {
	f.hit("state")
	return f.state, f.stateErr
}

func (f *fakeAPI) SaveState(_ context.Context, s api.SessionState) (*api.SessionState, error) {
	f.hit("save")
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return &s, nil
}

func (f *fakeAPI) ClearState(context.Context) error {
	f.hit("clear")
	return f.clearErr
}

func (f *fakeAPI) CreateSession(_ context.Context, s api.CompletedSession) error {
	f.hit("create")
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, s)
	return nil
}

func (f *fakeAPI) TodaySessions(context.Context) ([]api.CompletedSubject, error) {
	f.hit("today")
	if f.todayErr != nil {
		return nil, f.todayErr
	}
	return f.today, nil
}

func (f *fakeAPI) SessionStats(_ context.Context, period string) (*api.SessionStats, error) {
	f.hit("stats:" + period)
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeAPI) Notes(context.Context, api.NotesQuery) (*api.NotesPage, error) {
	f.hit("notes")
	if f.notesHook != nil {
		f.notesHook()
	}
	if f.notesErr != nil {
		return nil, f.notesErr
	}
	return f.notes, nil
}

func (f *fakeAPI) CreateNote(_ context.Context, n api.Note) (*api.Note, error) {
	f.hit("create note")
	n.ID = "new"
	return &n, nil
}

func (f *fakeAPI) UpdateNote(_ context.Context, id string, n api.Note) (*api.Note, error) {
	f.hit("update note")
	n.ID = id
	return &n, nil
}

func (f *fakeAPI) DeleteNote(context.Context, string) error {
	f.hit("delete note")
	return nil
}

// clock is a manually advanced clock shared by the cache and coordinator.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
