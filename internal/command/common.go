// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/api"
	"github.com/staranto/studyctl/internal/attrs"
	"github.com/staranto/studyctl/internal/config"
	"github.com/staranto/studyctl/internal/fetchcache"
	"github.com/staranto/studyctl/internal/gate"
	"github.com/staranto/studyctl/internal/meta"
	"github.com/staranto/studyctl/internal/output"
	"github.com/staranto/studyctl/internal/study"
)

// GetMeta returns the meta.Meta stored in the command's Metadata, looking up
// through parent commands. If missing it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	for _, c := range cmd.Lineage() {
		if c.Metadata == nil {
			continue
		}
		if m, ok := c.Metadata["meta"].(meta.Meta); ok {
			return m
		}
	}
	return meta.Meta{}
}

func stdout(cmd *cli.Command) io.Writer {
	if w := GetMeta(cmd).Out; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := GetMeta(cmd).Err; w != nil {
		return w
	}
	return os.Stderr
}

// NewClient builds the REST client from flags and config.
func NewClient(cmd *cli.Command) *api.Client {
	retries, _ := config.GetInt("api.retries", 0)
	timeout, _ := config.GetDuration("api.timeout", 0)

	client := api.New(cmd.String("url"),
		api.WithRetries(retries),
		api.WithTimeout(timeout),
	)
	if token := cmd.String("token"); token != "" {
		client.SetToken(token)
	}
	log.Debugf("api: %s retries=%d timeout=%s", client.BaseURL(), retries, timeout)
	return client
}

// NewCoordinator wires a coordinator to the API and a cache configured from
// the config file.
func NewCoordinator(cmd *cli.Command) *study.Coordinator {
	var client study.API = GetMeta(cmd).API
	if client == nil {
		client = NewClient(cmd)
	}

	ttl, _ := config.GetDuration("cache.ttl", fetchcache.DefaultTTL)
	maxEntries, _ := config.GetInt("cache.max", fetchcache.DefaultMaxEntries)
	interval, _ := config.GetDuration("refresh.interval", gate.DefaultInterval)

	cache := fetchcache.New(
		fetchcache.WithTTL(ttl),
		fetchcache.WithMaxEntries(maxEntries),
	)
	return study.New(client, cache, study.WithRefreshInterval(interval))
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	var al attrs.AttrList
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, fmt.Errorf("--attrs: %w", err)
		}
	}
	al.SetGlobalTransformSpec()
	return al, nil
}

// OutputOptions collects the presentation flags.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Local:  cmd.Bool("local"),
	}
}

// EmitJSON marshals results and passes them to the common output routine.
func EmitJSON(cmd *cli.Command, results any, defaults ...string) error {
	al, err := BuildAttrs(cmd, defaults...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if string(raw) == "null" {
		raw = []byte("[]")
	}
	return output.SliceDiceSpit(raw, al, OutputOptions(cmd), "", stdout(cmd))
}

// Freshness reports how old the cached entry for key is, for text output
// only.
func Freshness(cmd *cli.Command, c *study.Coordinator, key string) {
	if cmd.String("output") != output.FormatText {
		return
	}
	age, ok := c.Cache().Age(key)
	if !ok {
		return
	}
	fmt.Fprintf(stderr(cmd), "updated %s\n", humanize.Time(time.Now().Add(-age)))
}

// ShortCircuit handles --tldr and --examples, returning true when the
// command should not run.
func ShortCircuit(ctx context.Context, cmd *cli.Command, examples [][2]string) bool {
	if cmd.Bool("examples") {
		output.DumpExamples(stdout(cmd), examples)
		return true
	}
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "studyctl-"+cmd.Name)
			c.Stdout = stdout(cmd)
			c.Stderr = stderr(cmd)
			_ = c.Run()
		}
		return true
	}
	return false
}

// CommandBuilder constructs a cli.Command with the shared wiring: metadata,
// connection flags, and optionally the listing flags.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Listing   bool
	Examples  [][2]string
	Action    func(context.Context, *cli.Command) error
	Commands  []*cli.Command
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (b *CommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{}, b.Flags...)
	flags = append(flags, NewConnectionFlags(b.Meta.Config.Source)...)
	flags = append(flags, newHelpFlags()...)
	if b.Listing {
		flags = append(flags, NewGlobalFlags(b.Name, b.Meta.Config.Source)...)
	}

	examples := b.Examples
	action := b.Action
	cmd := &cli.Command{
		Name:      b.Name,
		Usage:     b.Usage,
		UsageText: b.UsageText,
		Metadata: map[string]any{
			"meta": b.Meta,
		},
		Flags:    flags,
		Commands: b.Commands,
	}
	if action != nil {
		cmd.Action = func(ctx context.Context, c *cli.Command) error {
			if ShortCircuit(ctx, c, examples) {
				return nil
			}
			log.Debugf("executing %s %v", c.FullName(), c.Args().Slice())
			return action(ctx, c)
		}
	}
	return cmd
}
