package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCapture(t *testing.T) {
	logger, logs := NewTestLogger(t)

	scoped := logger.With(slog.String("component", "analysis"))
	scoped.Info("Session created", slog.String("session_id", "abc"))
	logger.Warn("Export directory unavailable")

	records := logs.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "analysis", records[0].Attrs["component"])
	assert.Equal(t, "abc", records[0].Attrs["session_id"])
	assert.NotContains(t, records[1].Attrs, "component")

	r := AssertLogged(t, logs, slog.LevelInfo, "created")
	assert.Equal(t, "Session created", r.Message)

	_, ok := logs.Find(slog.LevelError, "Session")
	assert.False(t, ok)
	AssertNoErrors(t, logs)
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "run.csv", HotfireCSV)
	assert.FileExists(t, path)
}
