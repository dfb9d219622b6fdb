// Package observe provides observability primitives for the poll server:
// OpenTelemetry metrics, tracing, and the HTTP middleware tying them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported to
// Prometheus via the bridge set up in [InitProvider], so the standard
// /metrics scrape endpoint keeps working. Tests should build their own
// [Metrics] from a manual-reader provider rather than touch the global one.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all poll-server metrics.
const meterName = "github.com/T-sashi-pavan/Automatic-poll-generation-sub000"

// Metrics holds the application's metric instruments. All fields are safe
// for concurrent use; the underlying OTel types synchronise themselves.
type Metrics struct {
	// GenerationDuration tracks question-generation latency. Attributes:
	// provider, source ("segment"/"timer"), status ("ok"/"error").
	GenerationDuration metric.Float64Histogram

	// PersistDuration tracks transcript store write latency. Attributes:
	// operation, status.
	PersistDuration metric.Float64Histogram

	// SegmentsClosed counts closed segments by outcome: "committed",
	// "suppressed", or "below_minimum".
	SegmentsClosed metric.Int64Counter

	// TranscriptLines counts received transcript lines by kind
	// ("final"/"partial").
	TranscriptLines metric.Int64Counter

	// QuestionsGenerated counts individual generated questions by source.
	QuestionsGenerated metric.Int64Counter

	// GenerationFailures counts generation dispatches that exhausted every
	// provider, by source.
	GenerationFailures metric.Int64Counter

	// PersistFailures counts failed transcript store writes.
	PersistFailures metric.Int64Counter

	// ActiveRooms tracks rooms with a live recording session.
	ActiveRooms metric.Int64UpDownCounter

	// ConnectedClients tracks open WebSocket connections across all rooms.
	ConnectedClients metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	// method, route.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries in seconds, sized for
// LLM generation and database write latencies.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GenerationDuration, err = m.Float64Histogram("pollgen.generation.duration",
		metric.WithDescription("Latency of question generation by provider, source, and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PersistDuration, err = m.Float64Histogram("pollgen.persist.duration",
		metric.WithDescription("Latency of transcript store writes by operation and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.SegmentsClosed, err = m.Int64Counter("pollgen.segments.closed",
		metric.WithDescription("Total closed segments by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptLines, err = m.Int64Counter("pollgen.transcript.lines",
		metric.WithDescription("Total received transcript lines by kind."),
	); err != nil {
		return nil, err
	}
	if met.QuestionsGenerated, err = m.Int64Counter("pollgen.questions.generated",
		metric.WithDescription("Total generated questions by source."),
	); err != nil {
		return nil, err
	}
	if met.GenerationFailures, err = m.Int64Counter("pollgen.generation.failures",
		metric.WithDescription("Total generation dispatches that failed across all providers."),
	); err != nil {
		return nil, err
	}
	if met.PersistFailures, err = m.Int64Counter("pollgen.persist.failures",
		metric.WithDescription("Total failed transcript store writes."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRooms, err = m.Int64UpDownCounter("pollgen.active_rooms",
		metric.WithDescription("Number of rooms with a live recording session."),
	); err != nil {
		return nil, err
	}
	if met.ConnectedClients, err = m.Int64UpDownCounter("pollgen.connected_clients",
		metric.WithDescription("Number of open WebSocket connections."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("pollgen.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], creating it on first
// call from the global meter provider. Panics if instrument creation fails,
// which cannot happen with the global provider.
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

// RecordGeneration records one generation dispatch: its latency and, on
// success, the number of questions produced.
func (m *Metrics) RecordGeneration(ctx context.Context, source string, questions int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.GenerationFailures.Add(ctx, 1,
			metric.WithAttributes(attribute.String("source", source)))
	} else if questions > 0 {
		m.QuestionsGenerated.Add(ctx, int64(questions),
			metric.WithAttributes(attribute.String("source", source)))
	}
	m.GenerationDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		),
	)
}

// RecordSegmentClosed records one closed segment with its outcome.
func (m *Metrics) RecordSegmentClosed(ctx context.Context, outcome string) {
	m.SegmentsClosed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordTranscriptLine records one received transcript line.
func (m *Metrics) RecordTranscriptLine(ctx context.Context, isFinal bool) {
	kind := "partial"
	if isFinal {
		kind = "final"
	}
	m.TranscriptLines.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordPersistFailure records one failed transcript store write.
func (m *Metrics) RecordPersistFailure(ctx context.Context, operation string) {
	m.PersistFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("operation", operation)))
}
