// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/astutil"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	t := targetAt(doc, int(params.Position.Line), int(params.Position.Character))
	if !t.valid() {
		return nil, nil
	}

	var locs []protocol.Location
	// Optionally include the declaration.
	if params.Context.IncludeDeclaration && !t.builtin() {
		locs = append(locs, protocol.Location{URI: params.TextDocument.URI, Range: t.rangeOf()})
	}
	for _, r := range findReferences(doc, t) {
		locs = append(locs, protocol.Location{URI: params.TextDocument.URI, Range: r})
	}
	return locs, nil
}

// findReferences returns the ranges of every use of t in the document.
// The caller must hold the document lock.
func findReferences(doc *Document, t target) []protocol.Range {
	if doc.unit == nil {
		return nil
	}
	var refs []protocol.Range
	ast.Inspect(doc.unit, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			if t.decl != nil && n.Name == t.decl.Name && resolvesTo(doc, n, n.Name, t.decl) {
				refs = append(refs, nodeRange(n))
			}
		case *ast.Assign:
			if t.decl != nil && n.Name == t.decl.Name && resolvesTo(doc, n, n.Name, t.decl) {
				refs = append(refs, nameRange(n.Pos(), len(n.Name)))
			}
		case *ast.Dispatch:
			if t.method != nil && n.Method == t.method.Name {
				path := astutil.PathTo(doc.unit, n.Pos().Line, n.Pos().Col)
				if m, _ := resolveDispatch(doc.analysis, enclosingClass(path), n); m == t.method {
					refs = append(refs, nameRange(methodNameLoc(doc.Content, n), len(n.Method)))
				}
			}
		case *ast.New:
			if t.class != nil && n.Type == t.class.Name {
				refs = append(refs, nodeRange(n))
			}
		case *ast.VarDecl:
			if t.class != nil && n.Type == t.class.Name {
				refs = append(refs, nodeRange(n))
			}
		}
		return true
	})
	return refs
}

// resolvesTo reports whether name used at n is bound to decl.
func resolvesTo(doc *Document, n ast.Node, name string, decl *ast.VarDecl) bool {
	path := astutil.PathTo(doc.unit, n.Pos().Line, n.Pos().Col)
	// The innermost node covering the start of n may be a child of n.
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == n {
			path = path[:i+1]
			break
		}
	}
	b := resolveName(doc.analysis, path, name)
	return b != nil && b.Decl == decl
}
