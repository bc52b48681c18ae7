// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/lint"
)

// Option configures an exported command factory (CheckCommand,
// LintCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	analyzers []*lint.Analyzer
	observers []analysis.Observer
}

// WithAnalyzers replaces the default lint checks.  Embedders use it to add
// their own analyzers to the lint and lsp commands.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.analyzers = analyzers }
}

// WithObserver reports the analysis phases run by the check command to
// obs, in addition to any profiler selected by flags.
func WithObserver(obs analysis.Observer) Option {
	return func(c *cmdConfig) { c.observers = append(c.observers, obs) }
}

func newCmdConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// resolveAnalyzers returns the analyzers named in names, chosen from the
// injected analyzers or else from the defaults.  No names selects all.
func (c *cmdConfig) resolveAnalyzers(names []string) ([]*lint.Analyzer, error) {
	if len(c.analyzers) == 0 {
		return lint.SelectAnalyzers(names)
	}
	if len(names) == 0 {
		return c.analyzers, nil
	}
	byName := make(map[string]*lint.Analyzer, len(c.analyzers))
	for _, a := range c.analyzers {
		byName[a.Name] = a
	}
	selected := make([]*lint.Analyzer, 0, len(names))
	for _, name := range names {
		a, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown lint check: %s", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}
