// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/api"
	"github.com/staranto/studyctl/internal/meta"
	"github.com/staranto/studyctl/internal/study"
)

var noteAttrs = []string{"id", "title", "subject", "updatedAt:updated:r", "!content"}

func notesQuery(cmd *cli.Command) api.NotesQuery {
	return api.NotesQuery{
		Search:  cmd.String("search"),
		Subject: cmd.String("subject"),
		Page:    cmd.Int("page"),
		Limit:   cmd.Int("limit"),
	}
}

func notesListAction(ctx context.Context, cmd *cli.Command) error {
	c := NewCoordinator(cmd)
	defer c.Close()

	page, err := c.FetchNotes(ctx, notesQuery(cmd))
	if err != nil {
		return err
	}
	if err := EmitJSON(cmd, page.Notes, noteAttrs...); err != nil {
		return err
	}
	if cmd.String("output") == "text" && page.TotalPages > 1 {
		fmt.Fprintf(stderr(cmd), "page %d of %d, %d notes\n", page.Page, page.TotalPages, page.Total)
	}
	return nil
}

// noteFromFlags builds a note from the title, content and subject flags.
func noteFromFlags(cmd *cli.Command) api.Note {
	return api.Note{
		Title:   cmd.String("title"),
		Content: cmd.String("content"),
		Subject: cmd.String("subject"),
	}
}

func notesAddAction(ctx context.Context, cmd *cli.Command) error {
	n := noteFromFlags(cmd)
	if err := FlagValidators(n.Title, RequiredArgValidator("--title")); err != nil {
		return err
	}

	c := NewCoordinator(cmd)
	defer c.Close()

	out, err := c.CreateNote(ctx, n)
	if err != nil {
		return err
	}
	return EmitJSON(cmd, out, noteAttrs...)
}

func noteID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.Args().First())
	if err := FlagValidators(id, RequiredArgValidator("note id")); err != nil {
		return "", err
	}
	return id, nil
}

func notesEditAction(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}

	c := NewCoordinator(cmd)
	defer c.Close()

	// The API replaces the whole note, so unset flags keep the stored values.
	current, err := findNote(ctx, c, id)
	if err != nil {
		return err
	}
	n := *current
	n.CreatedAt, n.UpdatedAt = nil, nil
	if cmd.IsSet("title") {
		n.Title = cmd.String("title")
	}
	if cmd.IsSet("content") {
		n.Content = cmd.String("content")
	}
	if cmd.IsSet("subject") {
		n.Subject = cmd.String("subject")
	}

	out, err := c.UpdateNote(ctx, id, n)
	if err != nil {
		return err
	}
	return EmitJSON(cmd, out, noteAttrs...)
}

// findNote pages through the notes list until it finds id.
func findNote(ctx context.Context, c *study.Coordinator, id string) (*api.Note, error) {
	for p := 1; ; p++ {
		page, err := c.FetchNotes(ctx, api.NotesQuery{Page: p, Limit: 100})
		if err != nil {
			return nil, err
		}
		for i := range page.Notes {
			if page.Notes[i].ID == id {
				return &page.Notes[i], nil
			}
		}
		if p >= page.TotalPages {
			return nil, fmt.Errorf("note %s: %w", id, api.ErrNotFound)
		}
	}
}

func notesRmAction(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}

	c := NewCoordinator(cmd)
	defer c.Close()

	if err := c.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("no note with id %s", id)
		}
		return err
	}
	fmt.Fprintf(stderr(cmd), "deleted %s\n", id)
	return nil
}

func noteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "title",
			Usage: "note title",
		},
		&cli.StringFlag{
			Name:  "content",
			Usage: "note body",
		},
		&cli.StringFlag{
			Name:  "subject",
			Usage: "subject the note belongs to",
		},
	}
}

// NotesCommandBuilder groups the note subcommands.
func NotesCommandBuilder(m meta.Meta) *cli.Command {
	list := &CommandBuilder{
		Name:      "list",
		Usage:     "list notes",
		UsageText: "studyctl notes list [--search text] [--subject name] [--page n] [--limit n]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "search",
				Usage: "only notes containing text",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringFlag{
				Name:  "subject",
				Usage: "only notes for subject",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "page number",
				Value: 1,
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "notes per page",
				Value:   20,
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
		},
		Listing: true,
		Examples: [][2]string{
			{"Recent notes", "studyctl notes list"},
			{"Search within a subject", "studyctl notes list --subject math --search integrals"},
		},
		Action: notesListAction,
		Meta:   m,
	}

	add := &CommandBuilder{
		Name:      "add",
		Usage:     "create a note",
		UsageText: "studyctl notes add --title text [--content text] [--subject name]",
		Flags:     noteFlags(),
		Listing:   true,
		Examples: [][2]string{
			{"Add a note", "studyctl notes add --title 'Limits' --subject math --content 'epsilon-delta'"},
		},
		Action: notesAddAction,
		Meta:   m,
	}

	edit := &CommandBuilder{
		Name:      "edit",
		Usage:     "update a note",
		UsageText: "studyctl notes edit <id> [--title text] [--content text] [--subject name]",
		Flags:     noteFlags(),
		Listing:   true,
		Action:    notesEditAction,
		Meta:      m,
	}

	rm := &CommandBuilder{
		Name:      "rm",
		Usage:     "delete a note",
		UsageText: "studyctl notes rm <id>",
		Action:    notesRmAction,
		Meta:      m,
	}

	return &cli.Command{
		Name:      "notes",
		Usage:     "manage study notes",
		UsageText: "studyctl notes list|add|edit|rm",
		Metadata: map[string]any{
			"meta": m,
		},
		Commands: []*cli.Command{list.Build(), add.Build(), edit.Build(), rm.Build()},
	}
}
