// Package services implements the business logic layer of the hotfire
// analyzer. It sits between the HTTP handlers and the analysis packages:
// handlers decode requests, services own sessions and side effects, and
// the analysis packages stay pure.
//
// # Sessions
//
// AnalysisService keeps a registry of analysis.Session values keyed by a
// UUID. Each session holds one immutable analysis.State; every transition
// replaces it and is published to the session's websocket clients.
// Sessions idle for longer than the configured TTL are swept.
//
// # Error Handling
//
// Services return the sentinel errors declared in errors.go, wrapped with
// context. Engine errors never surface here as failures: they are part of
// the returned State. Handlers translate sentinels into API errors.
//
// # Observability
//
// Every transition is traced with an OpenTelemetry span and counted in the
// business metrics (recomputes, errors by kind, exports by format, active
// sessions).
package services
