// Package observe provides application-wide observability primitives for
// Dictee: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Dictee metrics.
const meterName = "github.com/mzaiser/dictee"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// CompareDuration tracks dictation comparison latency.
	CompareDuration metric.Float64Histogram

	// SpokenCheckDuration tracks spoken-answer similarity check latency.
	SpokenCheckDuration metric.Float64Histogram

	// SentenceFetchDuration tracks sentence-source fetch latency.
	SentenceFetchDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// Attempts counts graded attempts. Use with attributes:
	//   attribute.String("language", ...), attribute.Bool("correct", ...)
	Attempts metric.Int64Counter

	// SentencesServed counts sentences handed out. Use with attributes:
	//   attribute.String("source", ...), attribute.String("language", ...)
	SentencesServed metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// --- Error counters ---

	// ProgressRecordErrors counts failed attempt-recording calls.
	ProgressRecordErrors metric.Int64Counter

	// --- Distributions ---

	// AttemptAccuracy tracks the accuracy distribution of graded attempts,
	// in percent.
	AttemptAccuracy metric.Float64Histogram

	// --- Gauges ---

	// ActiveLiveSessions tracks the number of open live dictation sessions.
	ActiveLiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Grading is
// sub-millisecond; sentence generation through an LLM can take seconds.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// accuracyBuckets defines bucket boundaries for the accuracy histogram,
// in percent.
var accuracyBuckets = []float64{
	0, 10, 25, 50, 75, 90, 95, 99, 100,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CompareDuration, err = m.Float64Histogram("dictee.compare.duration",
		metric.WithDescription("Latency of dictation comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpokenCheckDuration, err = m.Float64Histogram("dictee.spoken_check.duration",
		metric.WithDescription("Latency of spoken-answer similarity checks."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SentenceFetchDuration, err = m.Float64Histogram("dictee.sentence_fetch.duration",
		metric.WithDescription("Latency of sentence-source fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("dictee.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Attempts, err = m.Int64Counter("dictee.attempts",
		metric.WithDescription("Total graded attempts by language and correctness."),
	); err != nil {
		return nil, err
	}
	if met.SentencesServed, err = m.Int64Counter("dictee.sentences.served",
		metric.WithDescription("Total sentences served by source and language."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("dictee.tool.calls",
		metric.WithDescription("Total MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProgressRecordErrors, err = m.Int64Counter("dictee.progress.record.errors",
		metric.WithDescription("Total failed attempt-recording calls."),
	); err != nil {
		return nil, err
	}

	// Distributions.
	if met.AttemptAccuracy, err = m.Float64Histogram("dictee.attempt.accuracy",
		metric.WithDescription("Accuracy distribution of graded attempts, in percent."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(accuracyBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveLiveSessions, err = m.Int64UpDownCounter("dictee.active_live_sessions",
		metric.WithDescription("Number of open live dictation sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("dictee.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAttempt is a convenience method that records one graded attempt:
// the attempts counter and the accuracy distribution.
func (m *Metrics) RecordAttempt(ctx context.Context, language string, correct bool, accuracy float64) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("correct", correct),
	)
	m.Attempts.Add(ctx, 1, attrs)
	m.AttemptAccuracy.Record(ctx, accuracy,
		metric.WithAttributes(attribute.String("language", language)),
	)
}

// RecordSentenceServed is a convenience method that records one served
// sentence counter increment.
func (m *Metrics) RecordSentenceServed(ctx context.Context, source, language string) {
	m.SentencesServed.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("language", language),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}
