package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the HTTP and analysis instruments.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	AnalysisRecomputes        metric.Int64Counter
	AnalysisRecomputeDuration metric.Float64Histogram
	AnalysisErrors            metric.Int64Counter
	ActiveSessions            metric.Int64UpDownCounter
	ExportsTotal              metric.Int64Counter
	DatasetRowsLoaded         metric.Int64Counter
}

// CreateBusinessMetrics registers every instrument on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var m BusinessMetrics

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "HTTP requests served"},
		{&m.AnalysisRecomputes, "analysis_recomputes_total", "Burn window recomputations"},
		{&m.AnalysisErrors, "analysis_errors_total", "Recomputations that ended in an error state, by kind"},
		{&m.ExportsTotal, "exports_total", "Exports produced, by format"},
		{&m.DatasetRowsLoaded, "dataset_rows_loaded_total", "Rows parsed from uploaded datasets"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = inst
	}

	gauges := []struct {
		dst  *metric.Int64UpDownCounter
		name string
		desc string
	}{
		{&m.HTTPActiveRequests, "http_active_requests", "HTTP requests in flight"},
		{&m.ActiveSessions, "analysis_active_sessions", "Live analysis sessions"},
	}
	for _, g := range gauges {
		inst, err := meter.Int64UpDownCounter(g.name, metric.WithDescription(g.desc))
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", g.name, err)
		}
		*g.dst = inst
	}

	var err error
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("histogram http_request_duration_seconds: %w", err)
	}
	if m.AnalysisRecomputeDuration, err = meter.Float64Histogram("analysis_recompute_duration_seconds",
		metric.WithDescription("Burn window recomputation latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5)); err != nil {
		return nil, fmt.Errorf("histogram analysis_recompute_duration_seconds: %w", err)
	}

	return &m, nil
}

// RecordRecompute records one engine recomputation. kind is empty on
// success and names the error kind otherwise.
func RecordRecompute(ctx context.Context, metrics *BusinessMetrics, trigger string, duration time.Duration, kind string) {
	if metrics == nil {
		return
	}
	byTrigger := attribute.String("trigger", trigger)
	metrics.AnalysisRecomputes.Add(ctx, 1, metric.WithAttributes(byTrigger))

	status := "success"
	if kind != "" {
		status = "error"
		metrics.AnalysisErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
	metrics.AnalysisRecomputeDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(byTrigger, attribute.String("status", status)))
}

// RecordExport counts a produced export artefact.
func RecordExport(ctx context.Context, metrics *BusinessMetrics, format string) {
	if metrics != nil {
		metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
	}
}

// RecordActiveSessionChange adjusts the live session gauge.
func RecordActiveSessionChange(ctx context.Context, metrics *BusinessMetrics, delta int64) {
	if metrics != nil {
		metrics.ActiveSessions.Add(ctx, delta)
	}
}
