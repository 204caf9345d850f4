// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/meta"
	"github.com/staranto/studyctl/internal/study"
)

var (
	dashboardAttrs = []string{
		"todayReading:today",
		"studySessions:sessions",
		"currentStreak:streak",
		"longestStreak:longest",
	}
	weeklyAttrs    = []string{"day", "minutes"}
	timetableAttrs = []string{"id", "name", "isActive:active"}
	entryAttrs     = []string{"day", "subject", "startTime:start", "endTime:end"}
	todayAttrs     = []string{"subject", "actualTime:actual", "targetTime:target", "completedAt:done:r"}
	statsAttrs     = []string{"subject", "minutes"}
)

var errNoActiveTimetable = errors.New("no active timetable")

func dashboardCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	st := c.Dashboard(ctx)
	if !st.HasData {
		if st.Err != nil {
			return st.Err
		}
		return errors.New("dashboard unavailable")
	}
	Freshness(cmd, c, study.KeyDashboard)

	if cmd.Bool("weekly") {
		return EmitJSON(cmd, st.Data.WeeklyData, weeklyAttrs...)
	}
	return EmitJSON(cmd, st.Data, dashboardAttrs...)
}

// DashboardCommandBuilder shows the study summary.
func DashboardCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "dashboard",
		Usage:     "show the study summary",
		UsageText: "studyctl dashboard [--weekly] [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "weekly",
				Aliases: []string{"w"},
				Usage:   "show minutes per day for the week",
			},
		},
		Listing: true,
		Examples: [][2]string{
			{"Today's totals and streaks", "studyctl dashboard"},
			{"Weekly series, busiest day first", "studyctl dashboard --weekly --sort -minutes"},
		},
		Action: dashboardCommandAction,
		Meta:   m,
	}
	return b.Build()
}

func timetablesCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	st := c.Timetables(ctx)
	if st.Err != nil && !st.HasData {
		return st.Err
	}
	Freshness(cmd, c, study.KeyTimetables)

	if cmd.Bool("active") {
		active := study.ActiveTimetable(st.Data)
		if active == nil {
			return errNoActiveTimetable
		}
		return EmitJSON(cmd, active.Entries, entryAttrs...)
	}
	return EmitJSON(cmd, st.Data, timetableAttrs...)
}

// TimetablesCommandBuilder lists timetables.
func TimetablesCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "timetables",
		Usage:     "list timetables",
		UsageText: "studyctl timetables [--active] [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "active",
				Usage: "show the entries of the active timetable",
			},
		},
		Listing: true,
		Examples: [][2]string{
			{"All timetables", "studyctl timetables"},
			{"Monday in the active timetable", "studyctl timetables --active --filter day=Monday"},
		},
		Action: timetablesCommandAction,
		Meta:   m,
	}
	return b.Build()
}

func todayCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	return EmitJSON(cmd, c.FetchCompletedSubjects(ctx), todayAttrs...)
}

// TodayCommandBuilder lists the subjects completed today.
func TodayCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "today",
		Usage:     "list the sessions completed today",
		UsageText: "studyctl today [options]",
		Listing:   true,
		Examples: [][2]string{
			{"Completed today, longest first", "studyctl today --sort -actual"},
		},
		Action: todayCommandAction,
		Meta:   m,
	}
	return b.Build()
}

type statsRow struct {
	Subject string `json:"subject"`
	Minutes int64  `json:"minutes"`
}

func statsCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	period := cmd.String("period")
	stats := c.FetchSessionStats(ctx, period)
	if stats == nil {
		return fmt.Errorf("stats for %s unavailable", period)
	}

	if cmd.String("output") == "raw" {
		_, err := stdout(cmd).Write(stats.Raw)
		return err
	}

	var rows []statsRow
	for subject, minutes := range stats.BySubject() {
		rows = append(rows, statsRow{Subject: subject, Minutes: minutes})
	}
	slices.SortFunc(rows, func(a, b statsRow) int {
		return strings.Compare(a.Subject, b.Subject)
	})
	if err := EmitJSON(cmd, rows, statsAttrs...); err != nil {
		return err
	}

	fmt.Fprintf(stderr(cmd), "%s: %d sessions, %d min\n",
		period, stats.SessionCount(), stats.TotalMinutes())
	return nil
}

// StatsCommandBuilder shows study time per subject for a period.
func StatsCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "stats",
		Usage:     "show study time per subject for a period",
		UsageText: "studyctl stats [--period day|week|month|year] [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "reporting period (day, week, month, year)",
				Value:   study.DefaultPeriod,
				Validator: func(value string) error {
					return FlagValidators(value, PeriodValidator)
				},
			},
		},
		Listing: true,
		Examples: [][2]string{
			{"This week", "studyctl stats"},
			{"This month, most studied first", "studyctl stats -p month -s -minutes"},
		},
		Action: statsCommandAction,
		Meta:   m,
	}
	return b.Build()
}
