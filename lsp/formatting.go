// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/cool/formatter"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFormatting handles textDocument/formatting.  The result is a
// single edit replacing the run of lines that differ between the document
// and its formatted form.  Documents that do not parse are left alone.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	content, uri := doc.Content, doc.URI
	doc.mu.Unlock()
	if content == "" {
		return nil, nil
	}

	cfg := formatter.DefaultConfig()
	if n := tabSize(params.Options); n > 0 {
		cfg.IndentSize = n
	}
	formatted, err := formatter.FormatFile([]byte(content), uriToPath(uri), cfg)
	if err != nil {
		return nil, nil
	}
	edit, ok := lineEdit(content, string(formatted))
	if !ok {
		return nil, nil
	}
	return []protocol.TextEdit{edit}, nil
}

func tabSize(opts protocol.FormattingOptions) int {
	switch v := opts["tabSize"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// lineEdit returns the edit turning before into after.  Lines shared at
// the start and end of both texts are kept.
func lineEdit(before, after string) (protocol.TextEdit, bool) {
	if before == after {
		return protocol.TextEdit{}, false
	}
	old, repl := splitKeepNewline(before), splitKeepNewline(after)
	head := 0
	for head < len(old) && head < len(repl) && old[head] == repl[head] {
		head++
	}
	tail := 0
	for tail < len(old)-head && tail < len(repl)-head &&
		old[len(old)-1-tail] == repl[len(repl)-1-tail] {
		tail++
	}
	return protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: safeUint(head)},
			End:   endOf(old[:len(old)-tail]),
		},
		NewText: strings.Join(repl[head:len(repl)-tail], ""),
	}, true
}

// splitKeepNewline splits s after every newline.
func splitKeepNewline(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// endOf returns the position just past the last of lines.
func endOf(lines []string) protocol.Position {
	if len(lines) == 0 {
		return protocol.Position{}
	}
	last := lines[len(lines)-1]
	if strings.HasSuffix(last, "\n") {
		return protocol.Position{Line: safeUint(len(lines))}
	}
	return protocol.Position{Line: safeUint(len(lines) - 1), Character: safeUint(len(last))}
}
