// Package config loads Hotfire Analyzer configuration from the environment.
//
// Every setting is read from HOTFIRE_* variables through envconfig; there is
// no configuration file. Nested sections extend the prefix:
//
//	HOTFIRE_SERVER_PORT=8080
//	HOTFIRE_LOGGING_LEVEL=debug
//	HOTFIRE_ANALYSIS_DEFAULT_PADDING=0.1
//	HOTFIRE_ANALYSIS_MAX_SESSIONS=32
//	HOTFIRE_TELEMETRY_TRACE_EXPORTER=stdout
//
// Load applies defaults from struct tags, then validates. Values that can be
// normalised (log format, downsample step) are corrected in place; values
// that cannot (port, padding range) fail Load.
//
// Physical and windowing constants shared by the analysis packages live in
// constants.go.
package config
