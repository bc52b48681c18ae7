package profiler

import (
	"regexp"

	"github.com/luthersystems/cool/analysis"
)

// SkipFilter reports whether an event should not be traced.
type SkipFilter func(phase analysis.Phase, name string) bool

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// WithPhases traces only events of the given phases.
func WithPhases(phases ...analysis.Phase) Option {
	keep := make(map[analysis.Phase]bool, len(phases))
	for _, phase := range phases {
		keep[phase] = true
	}
	return WithSkipFilter(func(phase analysis.Phase, _ string) bool {
		return !keep[phase]
	})
}

// WithClassFilter traces only class and method events of classes whose name
// matches pattern.  Hierarchy events are always traced.
func WithClassFilter(pattern *regexp.Regexp) Option {
	return WithSkipFilter(func(phase analysis.Phase, name string) bool {
		if phase == analysis.PhaseHierarchy {
			return false
		}
		class, _ := splitName(phase, name)
		return !pattern.MatchString(class)
	})
}

// Labeler provides an alternative span label for an event.  An empty label
// selects the default "<phase> <name>" label.
type Labeler func(phase analysis.Phase, name string) string

// WithLabeler sets the labeler for tracing spans.
func WithLabeler(labeler Labeler) Option {
	return func(p *profiler) {
		p.labeler = labeler
	}
}

var sanitizeRegExp = regexp.MustCompile(`[\s.]+`)

// SanitizedLabeler labels spans with the event name alone, replacing dots
// and whitespace with underscores.
func SanitizedLabeler(phase analysis.Phase, name string) string {
	return sanitizeRegExp.ReplaceAllString(name, "_")
}
