package config

import "time"

// Application info
const (
	AppName    = "Hotfire Analyzer"
	AppVersion = "1.0.0"
)

// Burn window detection
const (
	// TargetLowerFactor and TargetUpperFactor bound the summed thrust
	// accepted by target-thrust windowing, relative to the target.
	TargetLowerFactor = 0.5
	TargetUpperFactor = 1.5

	MinPaddingFraction = 0.0
	MaxPaddingFraction = 3.0

	// OFEpsilon keeps the oxidizer/fuel ratio finite when fuel weight is zero.
	OFEpsilon = 1e-6
)

// Physical constants and unit conversions
const (
	GravityFtPerS2  = 32.174
	GravityMPerS2   = 9.80665
	SquareInchPerFt = 144.0
	MetersPerFoot   = 0.3048
)

// Presentation defaults
const (
	DefaultDownsample   = 10
	DefaultSmoothWindow = 1
	MaxSmoothWindow     = 501
	PlotWidth           = 1024
	PlotHeight          = 512
)

// Timeouts
const (
	DefaultHTTPTimeout  = 30 * time.Second
	PDFRenderTimeout    = 60 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// Endpoints
const (
	APIBasePath       = "/api"
	SessionsEndpoint  = "/api/sessions"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// Log settings
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
