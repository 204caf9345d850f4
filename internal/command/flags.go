// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/studyctl/internal/api"
)

// newHelpFlags returns --tldr and --examples. Flags hold parse state, so each
// command gets its own.
func newHelpFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "tldr",
			Usage:       "show tldr page",
			Hidden:      !pathHas("tldr"),
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "examples",
			Usage:       "show usage examples",
			HideDefault: true,
		},
	}
}

// NewGlobalFlags returns the presentation flags shared by every listing
// command. Values may also come from the config file, under the command's
// namespace first and then the root.
func NewGlobalFlags(ns string, source string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(source)),
				yaml.YAML("color", altsrc.StringSourcer(source)),
			),
			Value: isTerminal(),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolFlag{
			Name:  "local",
			Usage: "show timestamps in the configured timezone",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".local", altsrc.StringSourcer(source)),
				yaml.YAML("local", altsrc.StringSourcer(source)),
			),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml, raw)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(source)),
				yaml.YAML("output", altsrc.StringSourcer(source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(source)),
				yaml.YAML("titles", altsrc.StringSourcer(source)),
			),
			Value: false,
		},
	}
}

// NewConnectionFlags returns the flags locating the study API.
func NewConnectionFlags(source string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "base URL of the study API",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("STUDYCTL_API_URL"),
				yaml.YAML("api.url", altsrc.StringSourcer(source)),
			),
			Value: api.DefaultBaseURL,
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "bearer token for the study API",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("STUDYCTL_TOKEN"),
				yaml.YAML("api.token", altsrc.StringSourcer(source)),
			),
			HideDefault: true,
		},
	}
}

// NewTargetFlag is the target time of a session in minutes.
func NewTargetFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "target",
		Usage: "target study time in minutes",
		Validator: func(value int) error {
			return FlagValidators(value, NonNegativeValidator)
		},
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// pathHas checks if the given binary is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
