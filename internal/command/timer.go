// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/meta"
	"github.com/staranto/studyctl/internal/timer"
)

func timerCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	if err := c.RestoreSession(ctx); err != nil {
		return err
	}

	subject := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	cur := c.Snapshot().Current
	switch {
	case cur == nil:
		if err := FlagValidators(subject, RequiredArgValidator("subject")); err != nil {
			return fmt.Errorf("no session in progress, %w", err)
		}
		if err := c.StartSessionWithTarget(ctx, subject, cmd.Int("target")); err != nil {
			return err
		}
	case subject != "" && subject != cur.Subject:
		return fmt.Errorf("a %s session is already in progress", cur.Subject)
	default:
		log.Debugf("attaching to %s session", cur.Subject)
	}

	return timer.Run(ctx, c)
}

// TimerCommandBuilder runs the interactive timer.
func TimerCommandBuilder(m meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "timer",
		Usage:     "run an interactive session timer",
		UsageText: "studyctl timer [subject] [--target minutes]",
		Flags:     []cli.Flag{NewTargetFlag()},
		Examples: [][2]string{
			{"Start math and watch the clock", "studyctl timer math --target 50"},
			{"Attach to the session in progress", "studyctl timer"},
		},
		Action: timerCommandAction,
		Meta:   m,
	}
	return b.Build()
}
