// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// SessionStatus is the state of the in-progress session.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusPaused SessionStatus = "paused"
)

// DayTotal is one point of the dashboard's weekly series.
type DayTotal struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// Dashboard is the aggregate summary. Reading times are minutes.
type Dashboard struct {
	TodayReading  int        `json:"todayReading"`
	StudySessions int        `json:"studySessions"`
	CurrentStreak int        `json:"currentStreak"`
	LongestStreak int        `json:"longestStreak"`
	WeeklyData    []DayTotal `json:"weeklyData"`
}

// TimetableEntry is one slot in a timetable.
type TimetableEntry struct {
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type Timetable struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	IsActive bool             `json:"isActive"`
	Entries  []TimetableEntry `json:"entries,omitempty"`
}

// SessionState is the in-progress session record. ElapsedTime is seconds of
// active study accumulated up to the last pause; ResumedAt marks when the
// current active stretch began.
type SessionState struct {
	Subject     string        `json:"subject"`
	Status      SessionStatus `json:"status"`
	StartTime   time.Time     `json:"startTime"`
	ElapsedTime int64         `json:"elapsedTime"`
	ResumedAt   *time.Time    `json:"resumedAt,omitempty"`
	TargetTime  int           `json:"targetTime,omitempty"`
}

// Elapsed returns the active study time as of now.
func (s *SessionState) Elapsed(now time.Time) time.Duration {
	d := time.Duration(s.ElapsedTime) * time.Second
	if s.Status == StatusActive {
		since := s.StartTime
		if s.ResumedAt != nil {
			since = *s.ResumedAt
		}
		if now.After(since) {
			d += now.Sub(since)
		}
	}
	return d
}

// CompletedSession is a finished session. ActualTime and TargetTime are
// minutes.
type CompletedSession struct {
	Subject    string    `json:"subject"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	ActualTime int       `json:"actualTime"`
	TargetTime int       `json:"targetTime,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// CompletedSubject is an entry of today's completed list.
type CompletedSubject struct {
	Subject     string    `json:"subject"`
	ActualTime  int       `json:"actualTime"`
	TargetTime  int       `json:"targetTime,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// SessionStats is the aggregate for a reporting period. The server's shape
// varies by period so the document is kept raw and queried by path.
type SessionStats struct {
	Period string
	Raw    json.RawMessage
}

// Get queries the stats document with a gjson path.
func (s *SessionStats) Get(path string) gjson.Result {
	return gjson.GetBytes(s.Raw, path)
}

// TotalMinutes is the total study time of the period.
func (s *SessionStats) TotalMinutes() int64 {
	return s.Get("totalTime").Int()
}

// SessionCount is the number of sessions in the period.
func (s *SessionStats) SessionCount() int64 {
	return s.Get("totalSessions").Int()
}

// BySubject maps subject to minutes studied.
func (s *SessionStats) BySubject() map[string]int64 {
	out := map[string]int64{}
	s.Get("subjectBreakdown").ForEach(func(key, value gjson.Result) bool {
		// Either {"math": 40} or [{"subject": "math", "time": 40}].
		if value.IsObject() {
			out[value.Get("subject").String()] += value.Get("time").Int()
		} else {
			out[key.String()] += value.Int()
		}
		return true
	})
	return out
}

// Note is a study note. The timestamps are set by the server and left out of
// writes when nil.
type Note struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Subject   string     `json:"subject,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NotesQuery filters and paginates the notes list. Zero values are omitted.
type NotesQuery struct {
	Search  string
	Subject string
	Page    int
	Limit   int
}

type NotesPage struct {
	Notes      []Note `json:"notes"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}
