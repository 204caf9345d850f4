// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000"

// Sentinel errors matched by StatusError via errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("studyapi: %s: %d %s", e.Op, e.StatusCode, msg)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the study API. The bearer token is shared by every call
// made through the client once SetToken has been called.
type Client struct {
	baseURL string
	http    *retryablehttp.Client

	mu    sync.RWMutex
	token string
}

type options struct {
	retries    int
	timeout    time.Duration
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*options)

// WithRetries sets how many times a failed request is retried. The default is
// zero, failures are reported to the caller as is.
func WithRetries(n int) Option {
	return func(o *options) { o.retries = n }
}

// WithTimeout bounds each HTTP attempt. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the underlying pooled client. The client is copied,
// so WithTimeout never changes the caller's.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New returns a Client for baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := retryablehttp.NewClient()
	if o.httpClient != nil {
		hc := *o.httpClient
		rc.HTTPClient = &hc
	} else {
		rc.HTTPClient = cleanhttp.DefaultPooledClient()
	}
	if o.timeout > 0 {
		rc.HTTPClient.Timeout = o.timeout
	}
	rc.RetryMax = o.retries
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{}
	// Hand the last response back instead of a generic "giving up" error so
	// the status code survives.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken attaches a bearer credential to all subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Dashboard fetches the aggregate summary.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, "dashboard", http.MethodGet, "/api/study/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timetables fetches all timetables in server order.
func (c *Client) Timetables(ctx context.Context) ([]Timetable, error) {
	var out []Timetable
	if err := c.do(ctx, "timetables", http.MethodGet, "/api/study/timetables", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// State fetches the in-progress session. It returns nil without error when
// there is none.
func (c *Client) State(ctx context.Context) (*SessionState, error) {
	var raw json.RawMessage
	err := c.do(ctx, "get state", http.MethodGet, "/api/study/state", nil, nil, &raw)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// An empty body, null or {} all mean no session.
	if !gjson.GetBytes(raw, "subject").Exists() {
		return nil, nil
	}

	var out SessionState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("studyapi: get state: decode response: %w", err)
	}
	return &out, nil
}

// SaveState upserts the in-progress session and returns the stored record.
func (c *Client) SaveState(ctx context.Context, s SessionState) (*SessionState, error) {
	var out SessionState
	if err := c.do(ctx, "save state", http.MethodPost, "/api/study/state", nil, s, &out); err != nil {
		return nil, err
	}
	// Some servers answer 204; fall back to what was sent.
	if out.Subject == "" {
		out = s
	}
	return &out, nil
}

// ClearState deletes the in-progress session.
func (c *Client) ClearState(ctx context.Context) error {
	return c.do(ctx, "clear state", http.MethodDelete, "/api/study/state", nil, nil, nil)
}

// CreateSession persists a finished session.
func (c *Client) CreateSession(ctx context.Context, s CompletedSession) error {
	return c.do(ctx, "create session", http.MethodPost, "/api/study/sessions", nil, s, nil)
}

// TodaySessions lists the subjects completed today.
func (c *Client) TodaySessions(ctx context.Context) ([]CompletedSubject, error) {
	var out []CompletedSubject
	if err := c.do(ctx, "today sessions", http.MethodGet, "/api/study/sessions/today", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionStats fetches aggregated statistics for period (day, week, month...).
func (c *Client) SessionStats(ctx context.Context, period string) (*SessionStats, error) {
	q := url.Values{}
	q.Set("period", period)

	var raw json.RawMessage
	if err := c.do(ctx, "session stats", http.MethodGet, "/api/study/sessions/stats", q, nil, &raw); err != nil {
		return nil, err
	}
	return &SessionStats{Period: period, Raw: raw}, nil
}

// Notes fetches one page of notes.
func (c *Client) Notes(ctx context.Context, nq NotesQuery) (*NotesPage, error) {
	q := url.Values{}
	if nq.Search != "" {
		q.Set("search", nq.Search)
	}
	if nq.Subject != "" {
		q.Set("subject", nq.Subject)
	}
	if nq.Page > 0 {
		q.Set("page", strconv.Itoa(nq.Page))
	}
	if nq.Limit > 0 {
		q.Set("limit", strconv.Itoa(nq.Limit))
	}

	var out NotesPage
	if err := c.do(ctx, "list notes", http.MethodGet, "/api/study/notes", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNote stores a new note and returns it as stored.
func (c *Client) CreateNote(ctx context.Context, n Note) (*Note, error) {
	var out Note
	if err := c.do(ctx, "create note", http.MethodPost, "/api/study/notes", nil, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNote replaces the note with the given id.
func (c *Client) UpdateNote(ctx context.Context, id string, n Note) (*Note, error) {
	var out Note
	path := "/api/study/notes/" + url.PathEscape(id)
	if err := c.do(ctx, "update note", http.MethodPut, path, nil, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNote removes the note with the given id.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	path := "/api/study/notes/" + url.PathEscape(id)
	return c.do(ctx, "delete note", http.MethodDelete, path, nil, nil, nil)
}

// do performs a JSON request. A nil out discards the response body; an empty
// body leaves out untouched.
func (c *Client) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	query url.Values,
	in any,
	out any,
) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("studyapi: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("studyapi: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debugf("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("studyapi: %s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("studyapi: %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(doc.Bytes()),
		}
	}

	if out == nil || len(bytes.TrimSpace(doc.Bytes())) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Bytes(), out); err != nil {
		return fmt.Errorf("studyapi: %s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(body []byte) string {
	for _, path := range []string{"message", "error", "msg"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String {
			return r.String()
		}
	}
	return strings.TrimSpace(string(body))
}

// leveledLogger routes retryablehttp's logging through apex.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }

func fields(kv []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
