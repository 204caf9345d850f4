// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package study

import "github.com/staranto/studyctl/internal/api"

// ActiveTimetable returns the first timetable flagged active, or nil. The
// server does not promise exclusivity, so list order breaks ties.
func ActiveTimetable(list []api.Timetable) *api.Timetable {
	for i := range list {
		if list[i].IsActive {
			return &list[i]
		}
	}
	return nil
}
