// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/studyctl/internal/command"
	"github.com/staranto/studyctl/internal/config"
	mylog "github.com/staranto/studyctl/internal/log"
	"github.com/staranto/studyctl/internal/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the args stored under
// <command>.<set> in the config file. Without an @set, <command>.defaults is
// used.
func mangleArguments(args []string) []string {
	if strings.HasPrefix(args[1], "-") {
		return args
	}

	// The command and any subcommand come before the inserted args.
	idx := 2
	if args[1] == "notes" && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		idx = 3
	}

	// Short-circuit for --help/-h. If help is requested, just keep the
	// command and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:idx]...), "--help")
		}
	}

	set := "defaults"

	out := append([]string{}, args...)
	for i := idx; i < len(out); i++ {
		if strings.HasPrefix(out[i], "@") {
			set = out[i][1:]
			out = append(out[:i], out[i+1:]...)
			break
		}
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	var parts []string
	for _, arg := range setArgs {
		parts = append(parts, strings.Fields(arg)...)
	}
	out = append(out[:idx], append(parts, out[idx:]...)...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
