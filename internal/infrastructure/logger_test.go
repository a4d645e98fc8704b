package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotfire/internal/config"
)

func readLastEntry(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.FileExists(t, logFile)

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	entry := readLastEntry(t, logFile)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestContextIDsInjected(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-123")
	ctx = WithSessionID(ctx, "session-9")
	logger.InfoContext(ctx, "recomputed")
	require.NoError(t, CloseLogFile())

	entry := readLastEntry(t, logFile)
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "session-9", entry["session_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "json", tt.level)
			logger.Debug("debug line")
			assert.Equal(t, tt.debugOn, strings.Contains(buf.String(), "debug line"))
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf, "json", "info"), "burn")
	logger.Info("window computed", "first", 2, "last", 4)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "burn", entry["component"])
	assert.Equal(t, float64(2), entry["first"])

	buf.Reset()
	NewLogger(&buf, "text", "info").Info("window computed", "first", 2)
	assert.Contains(t, buf.String(), `msg="window computed" first=2`)
}

func TestExplicitSessionIDNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "info")

	ctx := WithSessionID(context.Background(), "from-context")
	logger.InfoContext(ctx, "session closed", "session_id", "explicit")

	assert.Equal(t, 1, strings.Count(buf.String(), `"session_id"`))
	assert.Contains(t, buf.String(), `"session_id":"explicit"`)
}

func TestNewTraceID(t *testing.T) {
	id := NewTraceID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewTraceID())

	ctx := WithTraceID(context.Background(), id)
	assert.Equal(t, id, GetTraceID(ctx))
	assert.Empty(t, GetSessionID(ctx))
}

func TestGetLoggerFallsBackToDefault(t *testing.T) {
	ResetLoggerForTesting()
	assert.NotNil(t, GetLogger())
}
