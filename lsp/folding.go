// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/lexer"
	"github.com/luthersystems/cool/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange folds classes, methods and compound expressions
// spanning several lines, multi-line block comments and runs of line
// comments.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	unit, content, uri := doc.unit, doc.Content, doc.URI
	doc.mu.Unlock()

	var ranges []protocol.FoldingRange
	if unit != nil {
		ast.Inspect(unit, func(n ast.Node) bool {
			if foldable(n) {
				ranges = appendFold(ranges, n.Pos(), n.End(), protocol.FoldingRangeKindRegion)
			}
			return true
		})
	}
	return append(ranges, commentFolds(content, uriToPath(uri))...), nil
}

func foldable(n ast.Node) bool {
	switch n.(type) {
	case *ast.Class, *ast.Method, *ast.Block, *ast.Let, *ast.Case, *ast.If, *ast.While:
		return true
	}
	return false
}

// appendFold adds a range from start to end when they are on different
// lines.
func appendFold(ranges []protocol.FoldingRange, start, end *token.Location, kind protocol.FoldingRangeKind) []protocol.FoldingRange {
	if start == nil || end == nil || start.Line <= 0 || end.Line <= start.Line {
		return ranges
	}
	k := string(kind)
	return append(ranges, protocol.FoldingRange{
		StartLine: safeUint(start.Line - 1),
		EndLine:   safeUint(end.Line - 1),
		Kind:      &k,
	})
}

// commentFolds lexes content for comments.  Lexing stops quietly at the
// first lexical error so that documents being edited still fold.
func commentFolds(content, filename string) []protocol.FoldingRange {
	lex := lexer.New(token.NewScanner(filename, strings.NewReader(content)))
	lex.KeepComments = true

	var (
		ranges           []protocol.FoldingRange
		runStart, runEnd *token.Location
	)
	flush := func() {
		ranges = appendFold(ranges, runStart, runEnd, protocol.FoldingRangeKindComment)
		runStart, runEnd = nil, nil
	}
	for {
		tok := lex.ReadToken()
		if tok.Type == token.EOF || tok.Type == token.ERROR {
			break
		}
		if tok.Type != token.COMMENT {
			flush()
			continue
		}
		if strings.HasPrefix(tok.Text, "(*") {
			flush()
			end := *tok.Source
			end.Line += strings.Count(tok.Text, "\n")
			ranges = appendFold(ranges, tok.Source, &end, protocol.FoldingRangeKindComment)
			continue
		}
		if runEnd != nil && tok.Source.Line != runEnd.Line+1 {
			flush()
		}
		if runStart == nil {
			runStart = tok.Source
		}
		runEnd = tok.Source
	}
	flush()
	return ranges
}
