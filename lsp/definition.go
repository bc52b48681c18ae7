// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// target is the declaration a position refers to.  Exactly one field is
// set.
type target struct {
	decl   *ast.VarDecl
	method *ast.Method
	class  *ast.Class
}

func (t target) valid() bool {
	return t.decl != nil || t.method != nil || t.class != nil
}

// rangeOf returns the range of the declared name.
func (t target) rangeOf() protocol.Range {
	switch {
	case t.decl != nil:
		return nameRange(t.decl.Pos(), len(t.decl.Name))
	case t.method != nil:
		return nameRange(t.method.Pos(), len(t.method.Name))
	case t.class != nil:
		return nodeRange(t.class)
	}
	return protocol.Range{}
}

// builtin reports whether the declaration belongs to the built-in classes,
// which have no navigable source.
func (t target) builtin() bool {
	switch {
	case t.method != nil:
		return t.method.Pos() == nil || t.method.Pos().File == analysis.BasicFile
	case t.class != nil:
		return analysis.IsBasic(t.class)
	}
	return false
}

// targetAt resolves the declaration referred to at the given 0-based
// position.  The caller must hold the document lock.
func targetAt(doc *Document, line, col int) target {
	path := pathAt(doc, line, col)
	if len(path) == 0 {
		return target{}
	}
	a := doc.analysis
	class := enclosingClass(path)
	word := wordAtPosition(doc.Content, line, col)
	switch n := path[len(path)-1].(type) {
	case *ast.Ident:
		if b := resolveName(a, path, n.Name); b != nil {
			return target{decl: b.Decl}
		}
	case *ast.Assign:
		if word == n.Name {
			if b := resolveName(a, path, n.Name); b != nil {
				return target{decl: b.Decl}
			}
		}
	case *ast.Dispatch:
		if word == n.CastType {
			return classTarget(a, word)
		}
		if m, _ := resolveDispatch(a, class, n); m != nil {
			return target{method: m}
		}
	case *ast.New:
		return classTarget(a, n.Type)
	case *ast.VarDecl:
		if word == n.Name {
			return target{decl: n}
		}
		return classTarget(a, n.Type)
	case *ast.Method:
		if word == n.Name {
			return target{method: n}
		}
		return classTarget(a, word)
	case *ast.Class:
		if word == n.Name {
			return target{class: n}
		}
		return classTarget(a, word)
	}
	return target{}
}

func classTarget(a *Analysis, name string) target {
	if a == nil || a.Program == nil || name == "" {
		return target{}
	}
	if c := a.Program.Class(name); c != nil {
		return target{class: c}
	}
	return target{}
}

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	t := targetAt(doc, int(params.Position.Line), int(params.Position.Character))
	if !t.valid() || t.builtin() {
		return nil, nil
	}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: t.rangeOf(),
	}, nil
}
