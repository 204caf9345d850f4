// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package timer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/staranto/studyctl/internal/api"
	"github.com/staranto/studyctl/internal/fetchcache"
	"github.com/staranto/studyctl/internal/study"
)

// Controller is the part of the coordinator the timer drives.
type Controller interface {
	Snapshot() study.State
	PauseSession(ctx context.Context) error
	ResumeSession(ctx context.Context) error
	EndSession(ctx context.Context, req study.EndRequest) error
	Dashboard(ctx context.Context) fetchcache.State[*api.Dashboard]
	RefreshDashboardAndTimetables() bool
}

type actionMsg struct {
	action string
	err    error
}

type dashboardMsg fetchcache.State[*api.Dashboard]

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6be00"))
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 2)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the timer.
type Model struct {
	ctx context.Context
	ctl Controller
	now func() time.Time

	sw      stopwatch.Model
	state   study.State
	today   fetchcache.State[*api.Dashboard]
	busy    bool
	status  string
	err     error
	ended   bool
	summary string
}

// Option customizes a Model.
type Option func(*Model)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New returns a timer for the session the controller currently holds.
func New(ctx context.Context, ctl Controller, opts ...Option) Model {
	m := Model{
		ctx:   ctx,
		ctl:   ctl,
		now:   time.Now,
		sw:    stopwatch.NewWithInterval(time.Second),
		state: ctl.Snapshot(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	// A paused session leaves the stopwatch stopped until it is resumed.
	if m.paused() {
		return m.loadDashboard()
	}
	return tea.Batch(m.loadDashboard(), m.sw.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case actionMsg:
		m.busy = false
		m.state = m.ctl.Snapshot()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		switch msg.action {
		case "pause":
			m.status = "paused"
			return m, m.sw.Stop()
		case "resume":
			m.status = "resumed"
			return m, m.sw.Start()
		case "end":
			m.ended = true
			return m, tea.Sequence(m.sw.Stop(), m.loadDashboard(), tea.Quit)
		}
		return m, nil

	case dashboardMsg:
		m.today = fetchcache.State[*api.Dashboard](msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.sw, cmd = m.sw.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}

	if m.busy || m.ended || m.state.Current == nil {
		return m, nil
	}

	switch msg.String() {
	case " ", "p":
		m.busy = true
		if m.paused() {
			return m, m.run("resume", m.ctl.ResumeSession)
		}
		return m, m.run("pause", m.ctl.PauseSession)
	case "e":
		m.busy = true
		m.summary = fmt.Sprintf("%s: %d min", m.state.Current.Subject, minutes(m.elapsed()))
		return m, m.run("end", func(ctx context.Context) error {
			return m.ctl.EndSession(ctx, study.EndRequest{})
		})
	case "r":
		if !m.ctl.RefreshDashboardAndTimetables() {
			m.status = "refreshed a moment ago"
			return m, nil
		}
		m.status = "refreshing"
		return m, m.loadDashboard()
	}
	return m, nil
}

func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := fn(ctx)
		if err != nil {
			log.WithError(err).Debugf("timer %s failed", action)
		}
		return actionMsg{action: action, err: err}
	}
}

func (m Model) loadDashboard() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return dashboardMsg(ctl.Dashboard(ctx))
	}
}

func (m Model) paused() bool {
	return m.state.Current != nil && m.state.Current.Status == api.StatusPaused
}

func (m Model) elapsed() time.Duration {
	if m.state.Current == nil {
		return 0
	}
	return m.state.Current.Elapsed(m.now())
}

func (m Model) View() string {
	var b strings.Builder

	if m.ended {
		b.WriteString(titleStyle.Render("session recorded") + "\n")
		b.WriteString(m.summary + "\n")
		b.WriteString(m.todayLine() + "\n")
		return b.String()
	}

	cur := m.state.Current
	if cur == nil {
		b.WriteString(errStyle.Render("no session in progress") + "\n")
		b.WriteString(helpStyle.Render("q quit") + "\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render(cur.Subject))
	if m.paused() {
		b.WriteString(" " + pausedStyle.Render("(paused)"))
	}
	b.WriteString("\n")

	b.WriteString(clockStyle.Render(clock(m.elapsed())))
	if cur.TargetTime > 0 {
		b.WriteString(fmt.Sprintf("/ %d min", cur.TargetTime))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("this sitting "+m.sw.View()) + "\n")
	b.WriteString(m.todayLine() + "\n")

	if m.err != nil {
		b.WriteString(errStyle.Render("error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(helpStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render("space pause/resume • e end • r refresh • q quit") + "\n")
	return b.String()
}

func (m Model) todayLine() string {
	switch {
	case m.today.HasData && m.today.Data != nil:
		return fmt.Sprintf("today %d min in %d sessions, streak %d",
			m.today.Data.TodayReading, m.today.Data.StudySessions, m.today.Data.CurrentStreak)
	case m.today.Loading:
		return "today loading…"
	case m.today.Err != nil:
		return errStyle.Render("today unavailable")
	}
	return ""
}

// clock formats d as H:MM:SS.
func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mm := d / time.Minute
	d -= mm * time.Minute
	return fmt.Sprintf("%d:%02d:%02d", h, mm, d/time.Second)
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}

// Run starts the timer on the terminal and blocks until the user quits.
func Run(ctx context.Context, ctl Controller, opts ...Option) error {
	if ctl.Snapshot().Current == nil {
		return study.ErrNoSession
	}
	_, err := tea.NewProgram(New(ctx, ctl, opts...), tea.WithContext(ctx)).Run()
	return err
}
