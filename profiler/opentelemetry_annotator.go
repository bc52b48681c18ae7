package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/cool/analysis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ContextOpenTelemetryTracerKey looks up a parent tracer name from a
// context key.
const ContextOpenTelemetryTracerKey = "otelParentTracer"

// PhaseAttribute is the span attribute holding the analysis phase.
const PhaseAttribute = attribute.Key("cool.phase")

// errUnfinished marks spans still open when a profiler completes.
var errUnfinished = errors.New("analysis phase did not finish")

var _ Profiler = &otelAnnotator{}

type otelAnnotator struct {
	profiler
	parent context.Context
	open   []otelFrame
}

// otelFrame is a span started by the annotator and the context it carries.
type otelFrame struct {
	ctx  context.Context
	span trace.Span
}

// NewOpenTelemetryAnnotator returns a profiler starting a span per analysis
// event under parentContext, using the global tracer provider.
func NewOpenTelemetryAnnotator(parentContext context.Context, opts ...Option) *otelAnnotator {
	p := &otelAnnotator{parent: parentContext}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	if p.parent == nil {
		return errors.New("profiler: opentelemetry annotator needs a parent context")
	}
	return p.profiler.Enable()
}

// Complete ends the spans of phases that never finished.
func (p *otelAnnotator) Complete() error {
	for len(p.open) > 0 {
		p.pop(errUnfinished)
	}
	return nil
}

func (p *otelAnnotator) current() context.Context {
	if n := len(p.open); n > 0 {
		return p.open[n-1].ctx
	}
	return p.parent
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = "cool"
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(phase analysis.Phase, name string) func(error) {
	if p.skipTrace(phase, name) {
		return nopEnd
	}
	parent := p.current()
	ctx, span := contextTracer(parent).Start(parent, p.label(phase, name),
		trace.WithAttributes(eventAttributes(phase, name)...))
	p.open = append(p.open, otelFrame{ctx: ctx, span: span})
	return p.pop
}

func (p *otelAnnotator) pop(err error) {
	n := len(p.open)
	if n == 0 {
		return
	}
	span := p.open[n-1].span
	p.open = p.open[:n-1]
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func eventAttributes(phase analysis.Phase, name string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{PhaseAttribute.String(phase.String())}
	class, method := splitName(phase, name)
	if class != "" {
		attrs = append(attrs, semconv.CodeNamespace(class))
	}
	if method != "" {
		attrs = append(attrs, semconv.CodeFunction(method))
	}
	return attrs
}
