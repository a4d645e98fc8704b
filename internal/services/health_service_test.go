package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotfire/internal/config"
	"hotfire/pkg/contracts"
)

type fixedCount int

func (c fixedCount) Count() int       { return int(c) }
func (c fixedCount) ClientCount() int { return int(c) }

func healthConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ExportDir = filepath.Join(t.TempDir(), "exports")
	cfg.Analysis.MaxSessions = 2
	return cfg
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService(healthConfig(t), fixedCount(0), fixedCount(0), nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		sessions SessionCounter
		clients  ClientCounter
		want     string
	}{
		{"all ready", fixedCount(1), fixedCount(3), "ready"},
		{"session limit reached", fixedCount(2), fixedCount(0), "not_ready"},
		{"no analysis service", nil, fixedCount(0), "not_ready"},
		{"no hub", fixedCount(0), nil, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(healthConfig(t), tt.sessions, tt.clients, nil)
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Services, 3)
		})
	}
}

func TestHealthService_ExportDirNotWritable(t *testing.T) {
	cfg := healthConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.Paths.ExportDir = filepath.Join(blocker, "exports")

	hs := NewHealthService(cfg, fixedCount(0), fixedCount(0), nil)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)

	exports, ok := status.Services["exports"].(ServiceHealth)
	require.True(t, ok)
	assert.Contains(t, exports.Message, "Cannot write to export directory")
}

func TestHealthService_LivenessAndStats(t *testing.T) {
	hs := NewHealthService(healthConfig(t), fixedCount(1), fixedCount(5), nil)
	ctx := context.Background()

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	stats := hs.SystemStats(ctx)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 2, stats.MaxSessions)
	assert.Equal(t, 5, stats.WebSocketClients)

	detailed := hs.DetailedHealth(ctx)
	assert.Equal(t, "ready", detailed.Readiness.Status)
	assert.Equal(t, 5, detailed.Stats.WebSocketClients)
	assert.Equal(t, contracts.GetVersionInfo().Version, detailed.Version.Version)

	ws, ok := detailed.Readiness.Services["websocket"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "5 clients connected", ws.Message)
}
