package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/cool/analysis"
)

// This profiler type appends phase and name labels to pprof output if pprof
// is enabled.  It does not start pprof itself.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ Profiler = &pprofAnnotator{}

func NewPprofAnnotator(parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

func (p *pprofAnnotator) Start(phase analysis.Phase, name string) func(error) {
	if p.skipTrace(phase, name) {
		return nopEnd
	}
	oldContext := p.currentContext
	p.currentContext = pprof.WithLabels(p.currentContext,
		pprof.Labels("phase", phase.String(), "name", p.label(phase, name)))
	// Labels propagate to goroutines started while they are set.
	pprof.SetGoroutineLabels(p.currentContext)
	return func(error) {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}

// Labels returns the pprof labels currently applied by p.
func (p *pprofAnnotator) Labels() map[string]string {
	labels := make(map[string]string)
	pprof.ForLabels(p.currentContext, func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}
