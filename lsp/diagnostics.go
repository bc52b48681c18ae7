// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"time"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/diagnostic"
	"github.com/luthersystems/cool/lint"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(s.delay, func() {
		defer func() { _ = recover() }() // don't crash the server on analysis panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.cancelDebounce(params.TextDocument.URI)

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish runs analysis and lint on a document and publishes
// the resulting diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	s.ensureAnalysis(doc)
	diags := s.collectDiagnostics(doc)
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
}

// collectDiagnostics converts the parse error, type errors and lint
// findings of an analyzed document.  The linter only runs on documents
// that parsed completely.
func (s *Server) collectDiagnostics(doc *Document) []protocol.Diagnostic {
	doc.mu.Lock()
	defer doc.mu.Unlock()

	diags := []protocol.Diagnostic{}
	if doc.parseErr != nil {
		diags = append(diags, convertError(doc.Content, doc.parseErr))
	}
	if doc.analysis != nil {
		for _, err := range doc.analysis.Errors {
			diags = append(diags, convertError(doc.Content, err))
		}
	}
	if doc.parseErr != nil || doc.unit == nil {
		return diags
	}
	lintDiags, err := s.linter.LintUnit(doc.unit, []byte(doc.Content), uriToPath(doc.URI))
	if err == nil {
		for _, d := range lintDiags {
			diags = append(diags, convertLintDiagnostic(doc.Content, d))
		}
	}
	return diags
}

// convertError converts a parse or analysis error to an LSP Diagnostic.
func convertError(content string, err error) protocol.Diagnostic {
	d := diagnostic.FromError(err)
	var r protocol.Range
	if len(d.Spans) > 0 {
		r = spanRange(content, d.Spans[0])
	}
	msg := d.Message
	if len(d.Notes) > 0 {
		msg += "\n" + strings.Join(d.Notes, "\n")
	}
	diag := protocol.Diagnostic{
		Range:    r,
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr("cool"),
		Message:  msg,
	}
	if kind := analysis.ErrorKind(err); kind != "" {
		diag.Code = &protocol.IntegerOrString{Value: kind}
	}
	return diag
}

// spanRange converts a diagnostic span to an LSP range.  A span without an
// end column covers the word at its start.
func spanRange(content string, span diagnostic.Span) protocol.Range {
	if span.Line == 0 {
		return protocol.Range{}
	}
	start := protocol.Position{Line: safeUint(span.Line - 1), Character: safeUint(span.Col - 1)}
	end := start
	switch {
	case span.EndCol >= span.Col:
		end.Character = safeUint(span.EndCol)
	default:
		end.Character = start.Character + safeUint(max(1, len(wordAtPosition(content, span.Line-1, span.Col-1))))
	}
	return protocol.Range{Start: start, End: end}
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
func convertLintDiagnostic(content string, d lint.Diagnostic) protocol.Diagnostic {
	r := spanRange(content, diagnostic.Span{Line: d.Pos.Line, Col: max(d.Pos.Col, 1)})
	msg := d.Message
	if len(d.Notes) > 0 {
		msg += "\n" + strings.Join(d.Notes, "\n")
	}
	sev := mapLintSeverity(d.Severity)
	return protocol.Diagnostic{
		Range:    r,
		Severity: &sev,
		Source:   strPtr("cool-lint"),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  msg,
	}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}
