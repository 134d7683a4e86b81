package trace

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the OpenTelemetry tracer used by patchc.
const InstrumentationName = "patchc/internal/trace"

// OTelConfig configures the OTLP exporter. An empty Endpoint disables export.
type OTelConfig struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Insecure       bool
}

// OTelProvider owns the SDK provider so the CLI can shut it down.
type OTelProvider struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// InitOTel sets up an OTLP/gRPC exporter. Without an endpoint it returns a
// provider backed by the global (no-op) tracer.
func InitOTel(ctx context.Context, cfg OTelConfig) (*OTelProvider, error) {
	if cfg.Endpoint == "" {
		return &OTelProvider{tracer: otel.Tracer(InstrumentationName)}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "patchc"
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return &OTelProvider{provider: provider, tracer: provider.Tracer(InstrumentationName)}, nil
}

// Tracer returns the OpenTelemetry tracer.
func (p *OTelProvider) Tracer() oteltrace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *OTelProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// OTelTracer adapts the event stream to OpenTelemetry spans. Begin events open
// a span under their parent, end events close it with Extra as attributes,
// and point events become span events on their parent.
type OTelTracer struct {
	mu     sync.Mutex
	tracer oteltrace.Tracer
	level  Level
	root   context.Context
	open   map[uint64]openSpan
}

type openSpan struct {
	ctx  context.Context
	span oteltrace.Span
}

// NewOTelTracer builds a Tracer that forwards to tr. ctx is the parent for
// root spans.
func NewOTelTracer(ctx context.Context, tr oteltrace.Tracer, level Level) *OTelTracer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &OTelTracer{
		tracer: tr,
		level:  level,
		root:   ctx,
		open:   make(map[uint64]openSpan),
	}
}

func (t *OTelTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case KindSpanBegin:
		parent := t.root
		if p, ok := t.open[ev.ParentID]; ok {
			parent = p.ctx
		}
		ctx, span := t.tracer.Start(parent, ev.Name,
			oteltrace.WithTimestamp(ev.Time),
			oteltrace.WithAttributes(attribute.String("patchc.scope", ev.Scope.String())),
		)
		t.open[ev.SpanID] = openSpan{ctx: ctx, span: span}

	case KindSpanEnd:
		sp, ok := t.open[ev.SpanID]
		if !ok {
			return
		}
		delete(t.open, ev.SpanID)
		for k, v := range ev.Extra {
			sp.span.SetAttributes(attribute.String(k, v))
		}
		if ev.Detail == "failed" {
			sp.span.SetStatus(codes.Error, ev.Detail)
		}
		sp.span.End(oteltrace.WithTimestamp(ev.Time))

	case KindPoint:
		if p, ok := t.open[ev.ParentID]; ok {
			p.span.AddEvent(ev.Name, oteltrace.WithAttributes(attribute.String("detail", ev.Detail)))
		}
	}
}

func (t *OTelTracer) Flush() error { return nil }

// Close ends any span left open.
func (t *OTelTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, sp := range t.open {
		sp.span.End()
		delete(t.open, id)
	}
	return nil
}

func (t *OTelTracer) Level() Level  { return t.level }
func (t *OTelTracer) Enabled() bool { return t.level > LevelOff }
