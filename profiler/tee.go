package profiler

import "github.com/luthersystems/cool/analysis"

// Tee returns an observer which forwards every event to each of observers.
// End functions run in reverse order so nested spans close innermost first.
func Tee(observers ...analysis.Observer) analysis.Observer {
	return tee(observers)
}

type tee []analysis.Observer

func (t tee) Start(phase analysis.Phase, name string) func(error) {
	ends := make([]func(error), 0, len(t))
	for _, obs := range t {
		if obs == nil {
			continue
		}
		ends = append(ends, obs.Start(phase, name))
	}
	return func(err error) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](err)
		}
	}
}
