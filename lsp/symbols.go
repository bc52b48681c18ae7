// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/cool/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
// Each class is reported with its fields and methods as children.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	unit := doc.unit
	doc.mu.Unlock()

	if unit == nil {
		return nil, nil
	}

	symbols := []protocol.DocumentSymbol{}
	for _, c := range unit.Classes {
		symbols = append(symbols, classSymbol(c))
	}
	// Return as []DocumentSymbol (the preferred hierarchical form).
	return symbols, nil
}

func classSymbol(c *ast.Class) protocol.DocumentSymbol {
	r := nodeRange(c)
	sym := protocol.DocumentSymbol{
		Name:           c.Name,
		Kind:           protocol.SymbolKindClass,
		Range:          r,
		SelectionRange: r,
	}
	if c.Parent != "" {
		sym.Detail = strPtr("inherits " + c.Parent)
	}
	for _, f := range c.Features {
		switch f := f.(type) {
		case *ast.VarDef:
			sym.Children = append(sym.Children, protocol.DocumentSymbol{
				Name:           f.Decl.Name,
				Detail:         strPtr(f.Decl.Type),
				Kind:           protocol.SymbolKindField,
				Range:          nodeRange(f),
				SelectionRange: nameRange(f.Decl.Pos(), len(f.Decl.Name)),
			})
		case *ast.Method:
			sym.Children = append(sym.Children, protocol.DocumentSymbol{
				Name:           f.Name,
				Detail:         strPtr(formatMethod("", f)),
				Kind:           protocol.SymbolKindMethod,
				Range:          nodeRange(f),
				SelectionRange: nameRange(f.Pos(), len(f.Name)),
			})
		}
	}
	return sym
}
