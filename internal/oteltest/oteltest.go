// Package oteltest provides an in-memory span exporter harness for tests.
package oteltest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Setup creates a TracerProvider that exports synchronously to an in-memory
// Exporter. The provider is shut down when the test finishes.
func Setup(t *testing.T) (*sdktrace.TracerProvider, *Exporter) {
	t.Helper()

	inner := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(inner))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Errorf("failed to shut down tracer provider: %v", err)
		}
	})

	return tp, &Exporter{t: t, inner: inner}
}

// Exporter collects finished spans for assertions.
type Exporter struct {
	t     *testing.T
	inner *tracetest.InMemoryExporter
}

// Flush returns all finished spans and clears the exporter.
func (e *Exporter) Flush() []Span {
	stubs := e.inner.GetSpans()
	e.inner.Reset()

	spans := make([]Span, len(stubs))
	for i, stub := range stubs {
		spans[i] = Span{t: e.t, stub: stub}
	}
	return spans
}

// FlushOne returns the single finished span, failing the test if there is
// not exactly one.
func (e *Exporter) FlushOne() Span {
	e.t.Helper()
	spans := e.Flush()
	require.Len(e.t, spans, 1, "expected exactly one span")
	return spans[0]
}

// Timer tracks wall-clock ranges for span timing assertions.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer at the current time.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// TimeRange is a half-open wall-clock interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Tick returns the range from the last tick (or timer start) to now, and
// starts the next range.
func (tm *Timer) Tick() TimeRange {
	now := time.Now()
	r := TimeRange{Start: tm.start, End: now}
	tm.start = now
	return r
}

// Span wraps a finished span with assertion helpers.
type Span struct {
	t    *testing.T
	stub tracetest.SpanStub
}

// Name returns the span name.
func (s Span) Name() string {
	return s.stub.Name
}

// AssertNameIs asserts the span name.
func (s Span) AssertNameIs(name string) {
	s.t.Helper()
	assert.Equal(s.t, name, s.stub.Name)
}

// StatusCode returns the span status code.
func (s Span) StatusCode() codes.Code {
	return s.stub.Status.Code
}

// StatusDescription returns the span status description.
func (s Span) StatusDescription() string {
	return s.stub.Status.Description
}

// Attr returns the attribute value for key.
func (s Span) Attr(key string) (attribute.Value, bool) {
	for _, kv := range s.stub.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// HasAttr reports whether the span carries the attribute.
func (s Span) HasAttr(key string) bool {
	_, ok := s.Attr(key)
	return ok
}

// StringAttr returns the attribute as a string, failing the test if the
// attribute is missing.
func (s Span) StringAttr(key string) string {
	s.t.Helper()
	v, ok := s.Attr(key)
	require.True(s.t, ok, "span missing attribute %q", key)
	return v.AsString()
}

// IntAttr returns the attribute as an int64, failing the test if the
// attribute is missing.
func (s Span) IntAttr(key string) int64 {
	s.t.Helper()
	v, ok := s.Attr(key)
	require.True(s.t, ok, "span missing attribute %q", key)
	return v.AsInt64()
}

// AssertInTimeRange asserts the span started and ended within r.
func (s Span) AssertInTimeRange(r TimeRange) {
	s.t.Helper()
	assert.False(s.t, s.stub.StartTime.Before(r.Start), "span started before the range")
	assert.False(s.t, s.stub.EndTime.After(r.End), "span ended after the range")
}

// Events returns the names of the span's events.
func (s Span) Events() []string {
	names := make([]string, len(s.stub.Events))
	for i, ev := range s.stub.Events {
		names[i] = ev.Name
	}
	return names
}
