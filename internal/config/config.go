package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "HOTFIRE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Security  SecurityConfig  `envconfig:"SECURITY"`
	Logging   LoggingConfig   `envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `envconfig:"ANALYSIS"`
	Paths     PathsConfig     `envconfig:"PATHS"`
	Telemetry TelemetryConfig `envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"45s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `envconfig:"ENABLED" default:"true"`
	RPS     float64 `envconfig:"RPS" default:"100"`
	Burst   int     `envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Format      string `envconfig:"FORMAT" default:"json"`
	Output      string `envconfig:"OUTPUT" default:"console"`
	FilePath    string `envconfig:"FILE_PATH" default:"logs/hotfire.log"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false"`
}

// AnalysisConfig holds defaults applied to new analysis sessions and
// the limits enforced on uploads.
type AnalysisConfig struct {
	DefaultPadding    float64       `envconfig:"DEFAULT_PADDING" default:"0"`
	DefaultDownsample int           `envconfig:"DEFAULT_DOWNSAMPLE" default:"10"`
	MaxUploadBytes    int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	MaxSessions       int           `envconfig:"MAX_SESSIONS" default:"64"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExportDir  string `envconfig:"EXPORT_DIR" default:"exports"`
	ChromePath string `envconfig:"CHROME_PATH"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"hotfire"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	TraceExporter  string `envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	// SampleRatio is the fraction of traces kept when tracing is enabled.
	SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
	Environment string  `envconfig:"ENVIRONMENT" default:"development"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from HOTFIRE_* environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ExportPath joins name onto the configured export directory.
func (c *Config) ExportPath(name string) string {
	if filepath.IsAbs(c.Paths.ExportDir) {
		return filepath.Join(c.Paths.ExportDir, name)
	}
	return filepath.Join(".", c.Paths.ExportDir, name)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Analysis.DefaultPadding < MinPaddingFraction || c.Analysis.DefaultPadding > MaxPaddingFraction {
		return fmt.Errorf("default padding %g outside [%g, %g]",
			c.Analysis.DefaultPadding, MinPaddingFraction, MaxPaddingFraction)
	}

	if c.Analysis.DefaultDownsample < 1 {
		c.Analysis.DefaultDownsample = 1
	}

	if c.Analysis.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Analysis.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "stderr", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/hotfire.log"
	}

	c.Telemetry.TraceExporter = strings.ToLower(c.Telemetry.TraceExporter)
	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio %g outside [0, 1]", c.Telemetry.SampleRatio)
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/hotfire.log",
		},
		Analysis: AnalysisConfig{
			DefaultPadding:    0,
			DefaultDownsample: 10,
			MaxUploadBytes:    50 << 20,
			SessionTTL:        2 * time.Hour,
			MaxSessions:       64,
			SweepInterval:     5 * time.Minute,
		},
		Paths: PathsConfig{
			ExportDir: "exports",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "hotfire",
			TraceExporter:  "none",
			MetricsEnabled: true,
			SampleRatio:    1,
			Environment:    "development",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
