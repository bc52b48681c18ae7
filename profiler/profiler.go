// Package profiler attaches tracing and profiling to cool analysis.  Each
// profiler is an analysis.Observer which receives a start and end event for
// building the hierarchy, checking each class and checking each method.
package profiler

import (
	"fmt"
	"strings"

	"github.com/luthersystems/cool/analysis"
)

// Profiler is an analysis.Observer which must be enabled before use and
// completed after analysis ends.
type Profiler interface {
	analysis.Observer
	IsEnabled() bool
	Enable() error
	Complete() error
}

// profiler holds the state shared by every profiler type.
type profiler struct {
	enabled    bool
	skipFilter SkipFilter
	labeler    Labeler
}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func nopEnd(error) {}

// label returns the span label for an event.
func (p *profiler) label(phase analysis.Phase, name string) string {
	if p.labeler != nil {
		if label := p.labeler(phase, name); label != "" {
			return label
		}
	}
	return defaultLabel(phase, name)
}

func defaultLabel(phase analysis.Phase, name string) string {
	if name == "" {
		return phase.String()
	}
	return phase.String() + " " + name
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(phase analysis.Phase, name string) bool {
	return !p.enabled || p.skipFilter != nil && p.skipFilter(phase, name)
}

// splitName splits an event name into its class and method parts.  Class
// events have no method part.
func splitName(phase analysis.Phase, name string) (class, method string) {
	if phase != analysis.PhaseMethod {
		return name, ""
	}
	class, method, _ = strings.Cut(name, ".")
	return class, method
}
