// Copyright © 2024 The ELPS authors

// Package lint reports likely mistakes in COOL source files.
//
// Each check is an Analyzer in the style of go vet.  A Linter parses a file,
// assembles it with the built-in classes and hands every Analyzer a Pass
// holding the classes and their hierarchy.  Unlike the type checker, which
// stops at the first error of a program, the typecheck analyzer reports the
// first error of every class.  Embedders can add their own analyzers.
package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/parser"
	"github.com/luthersystems/cool/parser/token"
)

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // zero value, replaced by the analyzer's severity
	SeverityError
	SeverityWarning
	SeverityInfo
)

var severityNames = [...]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

func (s Severity) String() string {
	if s <= severityUnset || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity by name.  An unset severity encodes as
// "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		s = SeverityWarning
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n != "" && n == name {
			*s = Severity(sev)
			return nil
		}
	}
	return fmt.Errorf("unknown severity: %q", name)
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-let").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Unit holds the classes parsed from the file.
	Unit *ast.Program

	// Program is Unit assembled with the built-in classes.  Its class nodes
	// are shared with Unit.
	Program *ast.Program

	// Hierarchy is the class hierarchy of Program.  Nil when the hierarchy
	// could not be built, in which case HierarchyErr holds the reason.
	// Semantic analyzers should check for nil and return early.
	Hierarchy    *analysis.Hierarchy
	HierarchyErr error

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.  Diagnostics without a severity
// take the analyzer's.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	if d.Pos.File == "" {
		d.Pos.File = p.Filename
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic followed by hint lines.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf reports a formatted message at source.
func (p *Pass) Reportf(source *token.Location, format string, args ...interface{}) {
	var pos Position
	if source != nil {
		pos = Position{File: source.File, Line: source.Line, Col: source.Col}
	}
	p.Report(Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// String returns the position as file[:line[:col]].
func (p Position) String() string {
	switch {
	case p.Line == 0:
		return p.File
	case p.Col == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// before orders positions by file, line and then column.
func (p Position) before(q Position) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// String formats the diagnostic like go vet, "file:line: message
// (analyzer)", followed by one line per note.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		b.WriteString("\n  = note: ")
		b.WriteString(n)
	}
	return b.String()
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer
}

// LintFile analyzes a single source file and returns all diagnostics.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	unit, err := parser.Parse(filename, bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return l.LintUnit(unit, source, filename)
}

// LintUnit analyzes an already parsed unit.  The unit is checked as a
// program of its own together with the built-in classes, and source is
// scanned for nolint comments.  Diagnostics are sorted by position.
func (l *Linter) LintUnit(unit *ast.Program, source []byte, filename string) ([]Diagnostic, error) {
	prog := coolutil.Assemble(unit)
	hier, hierErr := analysis.BuildHierarchy(prog)
	directives := nolintDirectives(source)

	var all []Diagnostic
	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer:     analyzer,
			Filename:     filename,
			Unit:         unit,
			Program:      prog,
			Hierarchy:    hier,
			HierarchyErr: hierErr,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		for _, d := range pass.diagnostics {
			if !suppressed(d, directives) {
				all = append(all, d)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Pos.before(all[j].Pos) })
	return all, nil
}

// FormatText writes one diagnostic per line in go vet format.
func FormatText(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerTypeCheck,
		AnalyzerInheritBasic,
		AnalyzerOverrideSignature,
		AnalyzerDuplicateCaseBranch,
		AnalyzerUnusedLet,
		AnalyzerSelfAssign,
		AnalyzerConstantCondition,
		AnalyzerMainMethod,
	}
}

// SelectAnalyzers returns the default analyzers named in names, in the
// order given.  An empty list selects every default analyzer.
func SelectAnalyzers(names []string) ([]*Analyzer, error) {
	if len(names) == 0 {
		return DefaultAnalyzers(), nil
	}
	selected := make([]*Analyzer, 0, len(names))
	for _, name := range names {
		a := lookupAnalyzer(strings.TrimSpace(name))
		if a == nil {
			return nil, fmt.Errorf("unknown lint check: %s", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func lookupAnalyzer(name string) *Analyzer {
	for _, a := range DefaultAnalyzers() {
		if a.Name == name {
			return a
		}
	}
	return nil
}
