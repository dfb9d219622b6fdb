package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestCorrelationID(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without a span = %q, want empty", got)
	}

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	cid := CorrelationID(ctx)
	if cid == "" {
		t.Fatal("CorrelationID inside a span is empty")
	}
	if want := span.SpanContext().TraceID().String(); cid != want {
		t.Errorf("CorrelationID = %q, want %q", cid, want)
	}
}

func TestLogger_CarriesTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Logger(ctx).Info("ping")

	out := buf.String()
	if want := "trace_id=" + span.SpanContext().TraceID().String(); !strings.Contains(out, want) {
		t.Errorf("log line %q missing %q", out, want)
	}
	if want := "span_id=" + span.SpanContext().SpanID().String(); !strings.Contains(out, want) {
		t.Errorf("log line %q missing %q", out, want)
	}

	buf.Reset()
	Logger(context.Background()).Info("ping")
	if out := buf.String(); strings.Contains(out, "trace_id=") {
		t.Errorf("log line without a span carries a trace id: %q", out)
	}
}
