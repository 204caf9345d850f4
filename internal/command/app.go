// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/config"
	"github.com/staranto/studyctl/internal/meta"
)

// InitApp loads the config and builds the root command. The arg following
// the binary is the subcommand and also the namespace for config lookups.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	return NewApp(ctx, args, meta.Meta{})
}

// NewApp builds the root command around m, filling in what m leaves unset.
func NewApp(ctx context.Context, args []string, m meta.Meta) (*cli.Command, error) {
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}
	config.SetNamespace(ns)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Debug("no config file, using defaults")
	}

	m.Args = args
	m.Config = cfg
	m.Context = ctx
	if m.Out == nil {
		m.Out = os.Stdout
	}
	if m.Err == nil {
		m.Err = os.Stderr
	}

	app := &cli.Command{
		Name:  "studyctl",
		Usage: "Study session control",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "studyctl version info",
				HideDefault: true,
			},
		},
		Writer:    m.Out,
		ErrWriter: m.Err,
	}

	app.Commands = append(app.Commands,
		DashboardCommandBuilder(m),
		TimetablesCommandBuilder(m),
		StatusCommandBuilder(m),
		StartCommandBuilder(m),
		PauseCommandBuilder(m),
		ResumeCommandBuilder(m),
		EndCommandBuilder(m),
		TodayCommandBuilder(m),
		StatsCommandBuilder(m),
		NotesCommandBuilder(m),
		TimerCommandBuilder(m),
		CompletionCommandBuilder(m),
	)

	// Make sure flags are sorted for the --help text.
	var sortFlags func(cmds []*cli.Command)
	sortFlags = func(cmds []*cli.Command) {
		for _, cmd := range cmds {
			sort.Slice(cmd.Flags, func(i, j int) bool {
				return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
			})
			sortFlags(cmd.Commands)
		}
	}
	sortFlags(app.Commands)

	return app, nil
}
