// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package study coordinates the study-session lifecycle against the remote
// API and exposes the cached and direct reads the front ends render.
package study
