// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/api"
	"github.com/staranto/studyctl/internal/meta"
	"github.com/staranto/studyctl/internal/study"
)

// sessionRow is how a session in progress is rendered.
type sessionRow struct {
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"startTime"`
	Elapsed   int       `json:"elapsed"`
	Target    int       `json:"target,omitempty"`
}

func newSessionRow(s *api.SessionState, now time.Time) sessionRow {
	return sessionRow{
		Subject:   s.Subject,
		Status:    string(s.Status),
		StartTime: s.StartTime,
		Elapsed:   int(s.Elapsed(now).Round(time.Minute) / time.Minute),
		Target:    s.TargetTime,
	}
}

var sessionAttrs = []string{"subject", "status", "elapsed", "target", "startTime:started:r"}

// emitSession renders the current session of c, or a notice when there is
// none.
func emitSession(cmd *cli.Command, c *study.Coordinator) error {
	cur := c.Snapshot().Current
	if cur == nil {
		fmt.Fprintln(stderr(cmd), "no session in progress")
		return nil
	}
	return EmitJSON(cmd, newSessionRow(cur, time.Now()), sessionAttrs...)
}

func statusCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	if err := c.RestoreSession(ctx); err != nil {
		return err
	}
	return emitSession(cmd, c)
}

// StatusCommandBuilder shows the session in progress.
func StatusCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "status",
		Usage:     "show the session in progress",
		UsageText: "studyctl status [options]",
		Listing:   true,
		Examples: [][2]string{
			{"Show the current session", "studyctl status"},
			{"As JSON", "studyctl status -o json"},
		},
		Action: statusCommandAction,
		Meta:   m,
	}
	return b.Build()
}

func startCommandAction(ctx context.Context, cmd *cli.Command) error {
	subject := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if err := FlagValidators(subject, RequiredArgValidator("subject")); err != nil {
		return err
	}

	c := NewCoordinator(cmd)
	defer c.Close()

	if err := c.StartSessionWithTarget(ctx, subject, cmd.Int("target")); err != nil {
		return err
	}
	return emitSession(cmd, c)
}

// StartCommandBuilder begins a session.
func StartCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "start",
		Usage:     "start a study session",
		UsageText: "studyctl start <subject> [--target minutes]",
		Flags:     []cli.Flag{NewTargetFlag()},
		Listing:   true,
		Examples: [][2]string{
			{"Start studying math", "studyctl start math"},
			{"With a 45 minute target", "studyctl start physics --target 45"},
		},
		Action: startCommandAction,
		Meta:   m,
	}
	return b.Build()
}

// toggleAction restores the session and applies op to it.
func toggleAction(op func(*study.Coordinator, context.Context) error) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		c := NewCoordinator(cmd)
		defer c.Close()

		if err := c.RestoreSession(ctx); err != nil {
			return err
		}
		if err := op(c, ctx); err != nil {
			return err
		}
		return emitSession(cmd, c)
	}
}

// PauseCommandBuilder pauses the session in progress.
func PauseCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "pause",
		Usage:     "pause the session in progress",
		UsageText: "studyctl pause",
		Listing:   true,
		Action:    toggleAction((*study.Coordinator).PauseSession),
		Meta:      m,
	}
	return b.Build()
}

// ResumeCommandBuilder resumes a paused session.
func ResumeCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "resume",
		Usage:     "resume a paused session",
		UsageText: "studyctl resume",
		Listing:   true,
		Action:    toggleAction((*study.Coordinator).ResumeSession),
		Meta:      m,
	}
	return b.Build()
}

func endCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	if err := c.RestoreSession(ctx); err != nil {
		return err
	}
	subject := ""
	if cur := c.Snapshot().Current; cur != nil {
		subject = cur.Subject
	}

	req := study.EndRequest{
		ActualTime: cmd.Int("actual"),
		TargetTime: cmd.Int("target"),
		Notes:      cmd.String("notes"),
	}
	if err := c.EndSession(ctx, req); err != nil {
		return err
	}

	fmt.Fprintf(stderr(cmd), "ended %s\n", subject)
	return EmitJSON(cmd, c.Snapshot().CompletedSubjects, todayAttrs...)
}

// EndCommandBuilder finishes the session in progress and records it.
func EndCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "end",
		Usage:     "end the session in progress",
		UsageText: "studyctl end [--actual minutes] [--target minutes] [--notes text]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "actual",
				Usage: "minutes actually studied, defaults to the elapsed time",
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeValidator)
				},
			},
			NewTargetFlag(),
			&cli.StringFlag{
				Name:    "notes",
				Aliases: []string{"n"},
				Usage:   "notes to keep with the completed session",
			},
		},
		Listing: true,
		Examples: [][2]string{
			{"End the session", "studyctl end"},
			{"Override the time and add notes", "studyctl end --actual 30 --notes 'chapter 4'"},
		},
		Action: endCommandAction,
		Meta:   m,
	}
	return b.Build()
}
