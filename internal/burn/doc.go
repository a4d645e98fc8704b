// Package burn detects the burn window of a hotfire recording and derives
// its metrics.
//
// Every function is a pure computation over an immutable dataset. A core
// mask selects the samples inside the window, either by summed thrust
// relative to a target or by an explicit time range. A padded mask widens
// the core mask's span for plotting. ComputeMetrics integrates thrust over
// the core mask.
//
// Failures are returned as *EngineError values whose Kind can be matched
// with errors.Is against the Err* sentinels. Callers that need something
// to draw after a failure use AllTrue for a fallback mask.
package burn
