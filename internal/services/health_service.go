package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"hotfire/internal/config"
	"hotfire/internal/infrastructure"
	"hotfire/internal/validation"
	"hotfire/pkg/contracts"
)

// SessionCounter reports the number of live analysis sessions.
type SessionCounter interface {
	Count() int
}

// ClientCounter reports the number of connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

const (
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// HealthStatus is the body of the health, readiness and liveness probes.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth is the readiness of one dependency.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats summarises load on the analyzer.
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	ActiveSessions   int     `json:"active_sessions"`
	MaxSessions      int     `json:"max_sessions"`
	WebSocketClients int     `json:"websocket_clients"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// DetailedHealth combines every probe for GET /api/health/detailed.
type DetailedHealth struct {
	Health    HealthStatus          `json:"health"`
	Readiness HealthStatus          `json:"readiness"`
	Liveness  HealthStatus          `json:"liveness"`
	Stats     SystemStats           `json:"stats"`
	Version   contracts.VersionInfo `json:"version"`
}

type readinessProbe struct {
	name  string
	check func() ServiceHealth
}

// HealthService answers the health endpoints. Readiness fails when the
// session table is full, the hub is missing or the export directory is not
// writable.
type HealthService struct {
	exportDir   string
	maxSessions int
	sessions    SessionCounter
	clients     ClientCounter
	files       *validation.FileValidator
	probes      []readinessProbe
	startTime   time.Time
	logger      *slog.Logger
}

func NewHealthService(cfg *config.Config, sessions SessionCounter, clients ClientCounter, logger *slog.Logger) *HealthService {
	logger = infrastructure.WithComponent(logger, "health_service")
	hs := &HealthService{
		exportDir:   cfg.Paths.ExportDir,
		maxSessions: cfg.Analysis.MaxSessions,
		sessions:    sessions,
		clients:     clients,
		files:       validation.NewFileValidator(logger),
		startTime:   time.Now(),
		logger:      logger,
	}
	hs.probes = []readinessProbe{
		{"analysis", hs.analysisReady},
		{"websocket", hs.websocketReady},
		{"exports", hs.exportsReady},
	}
	return hs
}

func (hs *HealthService) status(s string) HealthStatus {
	return HealthStatus{Status: s, Timestamp: time.Now(), Version: contracts.Version}
}

// HealthCheck always reports ok while the process serves requests.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return hs.status("ok")
}

// ReadinessCheck runs every probe. One failing probe makes the whole
// status not_ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	st := hs.status(statusReady)
	st.Services = make(map[string]interface{}, len(hs.probes))
	for _, p := range hs.probes {
		res := p.check()
		st.Services[p.name] = res
		if res.Status != statusReady {
			st.Status = statusNotReady
			hs.logger.DebugContext(ctx, "Readiness probe failed",
				slog.String("probe", p.name),
				slog.String("message", res.Message))
		}
	}
	return st
}

// LivenessCheck reports uptime and goroutine count.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	st := hs.status("alive")
	st.Runtime = map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	return st
}

func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		MaxSessions:   hs.maxSessions,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.sessions != nil {
		stats.ActiveSessions = hs.sessions.Count()
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	return stats
}

func (hs *HealthService) DetailedHealth(ctx context.Context) DetailedHealth {
	return DetailedHealth{
		Health:    hs.HealthCheck(ctx),
		Readiness: hs.ReadinessCheck(ctx),
		Liveness:  hs.LivenessCheck(ctx),
		Stats:     hs.SystemStats(ctx),
		Version:   hs.Version(),
	}
}

func (hs *HealthService) analysisReady() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: statusNotReady, Message: "analysis service not initialized"}
	}
	if n := hs.sessions.Count(); n >= hs.maxSessions {
		return ServiceHealth{Status: statusNotReady,
			Message: fmt.Sprintf("session limit reached (%d/%d)", n, hs.maxSessions)}
	}
	return ServiceHealth{Status: statusReady}
}

func (hs *HealthService) websocketReady() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: statusNotReady, Message: "websocket hub not initialized"}
	}
	return ServiceHealth{Status: statusReady,
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount())}
}

func (hs *HealthService) exportsReady() ServiceHealth {
	if hs.exportDir == "" {
		return ServiceHealth{Status: statusReady, Message: "exports are streamed"}
	}
	if err := hs.files.ValidateOutputDirectory(hs.exportDir); err != nil {
		return ServiceHealth{Status: statusNotReady,
			Message: fmt.Sprintf("Cannot write to export directory: %v", err)}
	}
	return ServiceHealth{Status: statusReady}
}
