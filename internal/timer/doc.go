// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package timer is the interactive terminal timer for a study session. It
// drives the session coordinator and renders its state once a second.
package timer
