// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package fetchcache memoizes the results of asynchronous reads by key for a
// fixed time-to-live, keeps at most one request in flight per key and lets
// callers invalidate entries explicitly.
package fetchcache
