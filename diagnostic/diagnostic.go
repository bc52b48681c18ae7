// Copyright © 2024 The ELPS authors

// Package diagnostic provides Rust-style annotated error rendering for
// COOL CLI output.  Parse and analysis errors are converted with FromError.
package diagnostic

import (
	"errors"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// LocationSpan returns a span starting at loc.  The span's file is the
// physical path of loc when one is known.
func LocationSpan(loc *token.Location, label string) Span {
	if loc == nil {
		return Span{Label: label}
	}
	file := loc.Path
	if file == "" {
		file = loc.File
	}
	return Span{File: file, Line: loc.Line, Col: loc.Col, Label: label}
}

// NodeSpan returns a span covering n when n starts and ends on the same
// line.  Multi-line nodes are underlined from their first token.
func NodeSpan(n ast.Node, label string) Span {
	span := LocationSpan(n.Pos(), label)
	end := n.End()
	if end != nil && end.Line == span.Line && end.Col > span.Col {
		span.EndCol = end.Col - 1
	}
	return span
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines
}

// FromError converts a parse or analysis error into a Diagnostic.  Errors
// without a source location produce a diagnostic with no spans.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: SeverityError, Message: err.Error()}
	var locErr *token.LocationError
	if errors.As(err, &locErr) {
		d.Message = locErr.Err.Error()
	}
	var mis *analysis.TypeMismatchError
	switch {
	case errors.As(err, &mis) && mis.Node != nil:
		d.Spans = append(d.Spans, NodeSpan(mis.Node, ast.Kind(mis.Node)))
	case analysis.ErrorSource(err) != nil:
		d.Spans = append(d.Spans, LocationSpan(analysis.ErrorSource(err), ""))
	}
	if kind := analysis.ErrorKind(err); kind != "" {
		d.Notes = append(d.Notes, "error kind: "+kind)
	}
	var cycle *analysis.NonTerminatingHierarchyError
	if errors.As(err, &cycle) {
		d.Notes = append(d.Notes, "every inheritance chain must end at class "+analysis.RootType)
	}
	return d
}
