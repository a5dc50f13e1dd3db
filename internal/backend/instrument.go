package backend

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/telemetry"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// Instrument wraps a backend with OTel spans and metrics per operation.
// With telemetry disabled the global providers are no-ops, so the wrapper
// costs almost nothing.
func Instrument(b Backend) Backend {
	meter := telemetry.Meter("")
	calls, _ := meter.Int64Counter("foolery.backend.calls",
		metric.WithDescription("Backend port operations by op and result code"))
	duration, _ := meter.Float64Histogram("foolery.backend.duration",
		metric.WithDescription("Backend operation latency"),
		metric.WithUnit("ms"))
	return &instrumented{
		inner:    b,
		tracer:   telemetry.Tracer(""),
		calls:    calls,
		duration: duration,
	}
}

type instrumented struct {
	inner    Backend
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

func (m *instrumented) Name() string               { return m.inner.Name() }
func (m *instrumented) Capabilities() Capabilities { return m.inner.Capabilities() }
func (m *instrumented) Close() error               { return m.inner.Close() }

// Unwrap exposes the wrapped backend for adapter-specific interfaces
// (file watching, cache resets).
func (m *instrumented) Unwrap() Backend { return m.inner }

// record finishes a span and emits counters for one operation.
func (m *instrumented) record(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	code := ""
	if err != nil {
		code = string(backenderr.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", m.inner.Name()),
		attribute.String("op", op),
		attribute.String("code", code),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)
	span.End()
}

func (m *instrumented) start(ctx context.Context, op string) (context.Context, trace.Span, time.Time) {
	ctx, span := m.tracer.Start(ctx, "backend."+op,
		trace.WithAttributes(attribute.String("backend", m.inner.Name())))
	return ctx, span, time.Now()
}

func (m *instrumented) ListBeads(ctx context.Context, filter ListFilter) ([]*types.Bead, error) {
	ctx, span, start := m.start(ctx, "ListBeads")
	out, err := m.inner.ListBeads(ctx, filter)
	m.record(ctx, span, "ListBeads", start, err)
	return out, err
}

func (m *instrumented) ListReady(ctx context.Context, filter ListFilter) ([]*types.Bead, error) {
	ctx, span, start := m.start(ctx, "ListReady")
	out, err := m.inner.ListReady(ctx, filter)
	m.record(ctx, span, "ListReady", start, err)
	return out, err
}

func (m *instrumented) SearchBeads(ctx context.Context, text string, filter ListFilter) ([]*types.Bead, error) {
	ctx, span, start := m.start(ctx, "SearchBeads")
	out, err := m.inner.SearchBeads(ctx, text, filter)
	m.record(ctx, span, "SearchBeads", start, err)
	return out, err
}

func (m *instrumented) QueryBeads(ctx context.Context, expr string, filter ListFilter) ([]*types.Bead, error) {
	ctx, span, start := m.start(ctx, "QueryBeads")
	out, err := m.inner.QueryBeads(ctx, expr, filter)
	m.record(ctx, span, "QueryBeads", start, err)
	return out, err
}

func (m *instrumented) GetBead(ctx context.Context, id string) (*types.Bead, error) {
	ctx, span, start := m.start(ctx, "GetBead")
	out, err := m.inner.GetBead(ctx, id)
	m.record(ctx, span, "GetBead", start, err)
	return out, err
}

func (m *instrumented) CreateBead(ctx context.Context, req CreateRequest) (*types.Bead, error) {
	ctx, span, start := m.start(ctx, "CreateBead")
	out, err := m.inner.CreateBead(ctx, req)
	m.record(ctx, span, "CreateBead", start, err)
	return out, err
}

func (m *instrumented) UpdateBead(ctx context.Context, id string, req UpdateRequest) (*types.Bead, error) {
	ctx, span, start := m.start(ctx, "UpdateBead")
	out, err := m.inner.UpdateBead(ctx, id, req)
	m.record(ctx, span, "UpdateBead", start, err)
	return out, err
}

func (m *instrumented) CloseBead(ctx context.Context, id string, opts CloseOptions) (*types.Bead, error) {
	ctx, span, start := m.start(ctx, "CloseBead")
	out, err := m.inner.CloseBead(ctx, id, opts)
	m.record(ctx, span, "CloseBead", start, err)
	return out, err
}

func (m *instrumented) DeleteBead(ctx context.Context, id string) error {
	ctx, span, start := m.start(ctx, "DeleteBead")
	err := m.inner.DeleteBead(ctx, id)
	m.record(ctx, span, "DeleteBead", start, err)
	return err
}

func (m *instrumented) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	ctx, span, start := m.start(ctx, "AddDependency")
	err := m.inner.AddDependency(ctx, blockerID, blockedID)
	m.record(ctx, span, "AddDependency", start, err)
	return err
}

func (m *instrumented) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	ctx, span, start := m.start(ctx, "RemoveDependency")
	err := m.inner.RemoveDependency(ctx, blockerID, blockedID)
	m.record(ctx, span, "RemoveDependency", start, err)
	return err
}

func (m *instrumented) ListDependencies(ctx context.Context, id string) ([]types.Dependency, error) {
	ctx, span, start := m.start(ctx, "ListDependencies")
	out, err := m.inner.ListDependencies(ctx, id)
	m.record(ctx, span, "ListDependencies", start, err)
	return out, err
}

func (m *instrumented) BuildTakePrompt(ctx context.Context, id string) (string, error) {
	ctx, span, start := m.start(ctx, "BuildTakePrompt")
	out, err := m.inner.BuildTakePrompt(ctx, id)
	m.record(ctx, span, "BuildTakePrompt", start, err)
	return out, err
}

func (m *instrumented) BuildPollPrompt(ctx context.Context, id string) (string, error) {
	ctx, span, start := m.start(ctx, "BuildPollPrompt")
	out, err := m.inner.BuildPollPrompt(ctx, id)
	m.record(ctx, span, "BuildPollPrompt", start, err)
	return out, err
}

func (m *instrumented) ListWorkflows(ctx context.Context) ([]*workflow.Descriptor, error) {
	ctx, span, start := m.start(ctx, "ListWorkflows")
	out, err := m.inner.ListWorkflows(ctx)
	m.record(ctx, span, "ListWorkflows", start, err)
	return out, err
}
