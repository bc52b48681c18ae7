// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/luthersystems/cool/diagnostic"
	lintpkg "github.com/luthersystems/cool/lint"
	"github.com/spf13/viper"
)

// noteWidth is the column notes are wrapped at.
const noteWidth = 100

func colorMode() diagnostic.ColorMode {
	switch viper.GetString("color") {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode(), Width: noteWidth}
}

// errorToDiagnostic converts a parse or analysis error to a Diagnostic for
// display.
func errorToDiagnostic(err error, sourceFiles ...string) diagnostic.Diagnostic {
	d := diagnostic.FromError(err)
	if len(sourceFiles) > 0 && sourceFiles[0] != "" {
		d.Notes = append(d.Notes, "try: coolc lint "+sourceFiles[0]+" to report one problem per class")
	}
	return d
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: lintSeverity(ld.Severity),
		Message:  ld.Message + " (" + ld.Analyzer + ")",
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	d.Notes = append(d.Notes, "to suppress: add \"-- nolint:"+ld.Analyzer+"\" as a comment on this line")
	return d
}

func lintSeverity(s lintpkg.Severity) diagnostic.Severity {
	switch s {
	case lintpkg.SeverityError:
		return diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		return diagnostic.SeverityNote
	default:
		return diagnostic.SeverityWarning
	}
}

// renderError renders a parse or analysis error with diagnostic formatting.
// If sourceFile is non-empty, a hint to run coolc lint is appended.
func renderError(w io.Writer, err error, sourceFiles ...string) {
	_ = newRenderer().Render(w, errorToDiagnostic(err, sourceFiles...))
}

// renderLintDiagnostics renders lint diagnostics with diagnostic formatting.
func renderLintDiagnostics(w io.Writer, diags []lintpkg.Diagnostic) {
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	_ = newRenderer().RenderAll(w, ds)
}
