package profiler

import (
	"context"
	"errors"

	"github.com/golang-collections/collections/stack"
	"github.com/luthersystems/cool/analysis"
	"go.opencensus.io/trace"
)

var _ Profiler = &ocAnnotator{}

type ocAnnotator struct {
	profiler
	ctx    context.Context
	frames *stack.Stack
}

// ocFrame is an open span and the context it was started from.
type ocFrame struct {
	parent context.Context
	span   *trace.Span
	phase  analysis.Phase
	name   string
}

// NewOpenCensusAnnotator returns a profiler starting an OpenCensus span per
// analysis event under parentContext.
func NewOpenCensusAnnotator(parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		ctx:    parentContext,
		frames: stack.New(),
	}
	p.profiler.applyConfigs(opts...)
	return p
}

// EnableWithContext enables the profiler with ctx as the parent of its
// spans.
func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("profiler: nil context")
	}
	p.ctx = ctx
	return p.profiler.Enable()
}

func (p *ocAnnotator) Enable() error {
	if p.ctx == nil {
		return errors.New("profiler: opencensus annotator needs a parent context")
	}
	return p.profiler.Enable()
}

// Complete ends the spans of phases that never finished.
func (p *ocAnnotator) Complete() error {
	for p.frames.Len() > 0 {
		p.pop(errUnfinished)
	}
	return nil
}

func (p *ocAnnotator) Start(phase analysis.Phase, name string) func(error) {
	if p.skipTrace(phase, name) {
		return nopEnd
	}
	ctx, span := trace.StartSpan(p.ctx, p.label(phase, name))
	p.frames.Push(&ocFrame{parent: p.ctx, span: span, phase: phase, name: name})
	p.ctx = ctx
	return p.pop
}

func (p *ocAnnotator) pop(err error) {
	f, ok := p.frames.Pop().(*ocFrame)
	if !ok {
		return
	}
	class, method := splitName(f.phase, f.name)
	f.span.Annotate([]trace.Attribute{
		trace.StringAttribute("phase", f.phase.String()),
		trace.StringAttribute("class", class),
		trace.StringAttribute("method", method),
	}, "analysis")
	if err != nil {
		f.span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
	}
	f.span.End()
	p.ctx = f.parent
}
