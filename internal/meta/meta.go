// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"io"

	"github.com/staranto/studyctl/internal/config"
	"github.com/staranto/studyctl/internal/study"
)

// Meta are the meta-options that are available on all commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context

	// Out and Err receive command output and warnings. Nil means the standard
	// streams.
	Out io.Writer
	Err io.Writer

	// API replaces the REST client built from config and flags.
	API study.API
}
