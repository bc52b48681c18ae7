// Copyright © 2024 The ELPS authors

package analysis

// Phase identifies a unit of analysis work reported to an Observer.
type Phase int

const (
	PhaseHierarchy Phase = iota // building the class hierarchy
	PhaseClass                  // checking one class
	PhaseMethod                 // checking one method body
)

func (p Phase) String() string {
	switch p {
	case PhaseHierarchy:
		return "build-hierarchy"
	case PhaseClass:
		return "check-class"
	case PhaseMethod:
		return "check-method"
	default:
		return "unknown"
	}
}

// Observer is notified when a phase of analysis starts.  The returned
// function is called with the phase's result when it ends.  Observers are
// used to attach tracing spans to analysis work.
type Observer interface {
	Start(phase Phase, name string) (end func(err error))
}

type nopObserver struct{}

func (nopObserver) Start(Phase, string) func(error) { return func(error) {} }

type config struct {
	observer Observer
}

// Option configures BuildHierarchy and the checking functions.
type Option func(*config)

// WithObserver reports analysis phases to obs.
func WithObserver(obs Observer) Option {
	return func(cfg *config) {
		if obs != nil {
			cfg.observer = obs
		}
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{observer: nopObserver{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
