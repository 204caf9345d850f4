// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler_HandleLog(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{W: &buf}

	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	entry := log.NewEntry(logger).
		WithField("key", "dashboard").
		WithError(errors.New("boom"))
	entry.Timestamp = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	entry.Level = log.WarnLevel
	entry.Message = "fetch failed"

	assert.NoError(t, h.HandleLog(entry))
	assert.Equal(t, "2025-03-01 09:30:00 W fetch failed error=boom key=dashboard\n", buf.String())
}

func TestInitLogger_Level(t *testing.T) {
	t.Setenv("STUDYCTL_LOG", "debug")
	InitLogger()
	assert.Equal(t, log.DebugLevel, log.Log.(*log.Logger).Level)

	t.Setenv("STUDYCTL_LOG", "")
	InitLogger()
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)
}
