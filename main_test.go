// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/studyctl/internal/config"
)

func TestMangleArguments(t *testing.T) {
	t.Setenv("STUDYCTL_CFG", "internal/config/testdata/sets.yaml")
	config.SetNamespace("")
	_, err := config.Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults inserted after command",
			args: []string{"studyctl", "today", "--titles"},
			want: []string{"studyctl", "today", "--output", "json", "--titles"},
		},
		{
			name: "named set replaces defaults",
			args: []string{"studyctl", "today", "@short", "--titles"},
			want: []string{"studyctl", "today", "--attrs", "subject", "--sort", "-actualTime", "--titles"},
		},
		{
			name: "scalar set after subcommand",
			args: []string{"studyctl", "notes", "list", "--subject", "math"},
			want: []string{"studyctl", "notes", "list", "--limit", "5", "--subject", "math"},
		},
		{
			name: "unknown set inserts nothing",
			args: []string{"studyctl", "today", "@nope"},
			want: []string{"studyctl", "today"},
		},
		{
			name: "command without sets",
			args: []string{"studyctl", "status"},
			want: []string{"studyctl", "status"},
		},
		{
			name: "help keeps command",
			args: []string{"studyctl", "today", "--sort", "x", "-h"},
			want: []string{"studyctl", "today", "--help"},
		},
		{
			name: "root flag untouched",
			args: []string{"studyctl", "--version"},
			want: []string{"studyctl", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}
