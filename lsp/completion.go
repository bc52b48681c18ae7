// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCompletion handles the textDocument/completion request.
// After a dot the methods of the receiver's static type are offered; after
// an at sign the class names.  Elsewhere the names in scope, the methods
// of the enclosing class, class names and keywords are offered.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	line := int(params.Position.Line)
	col := int(params.Position.Character)
	start := wordStart(doc.Content, line, col)
	lines := strings.Split(doc.Content, "\n")
	if line >= len(lines) || col > len(lines[line]) {
		return []protocol.CompletionItem{}, nil
	}
	ln := lines[line]
	prefix := ln[start:col]

	var items []protocol.CompletionItem
	switch {
	case start > 0 && ln[start-1] == '@':
		items = typeCompletions(doc.analysis, prefix)
	case start > 0 && ln[start-1] == '.':
		typ := receiverType(doc, line, start-1)
		items = methodCompletions(doc.analysis, typ, prefix)
	default:
		items = scopeCompletions(doc, line, col, prefix)
	}
	if items == nil {
		items = []protocol.CompletionItem{}
	}
	return items, nil
}

// receiverType infers the static type of the expression ending just
// before the dot at the given 0-based column.
func receiverType(doc *Document, line, dot int) string {
	if dot == 0 {
		return ""
	}
	path := pathAt(doc, line, dot-1)
	class := enclosingClass(path)
	if class == nil || len(path) == 0 {
		return ""
	}
	if e, ok := path[len(path)-1].(ast.Expr); ok && e.StaticType() != "" {
		return analysis.Resolve(e.StaticType(), class.Name)
	}
	word := wordAtPosition(doc.Content, line, dot)
	if word == ast.SelfName {
		return class.Name
	}
	if b := resolveName(doc.analysis, path, word); b != nil {
		return analysis.Resolve(b.Decl.Type, class.Name)
	}
	return ""
}

// methodCompletions offers the methods visible in typ, nearest first.
func methodCompletions(a *Analysis, typ, prefix string) []protocol.CompletionItem {
	if a == nil || a.Hierarchy == nil || typ == "" {
		return nil
	}
	path, err := a.Hierarchy.RootPath(typ)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindMethod
	for _, t := range path {
		c := a.Hierarchy.Class(t)
		if c == nil {
			continue
		}
		for _, m := range c.Methods() {
			if seen[m.Name] || !strings.HasPrefix(m.Name, prefix) {
				continue
			}
			seen[m.Name] = true
			items = append(items, protocol.CompletionItem{
				Label:  m.Name,
				Kind:   &kind,
				Detail: strPtr(formatMethod(t, m)),
			})
		}
	}
	return items
}

// typeCompletions offers every class name.
func typeCompletions(a *Analysis, prefix string) []protocol.CompletionItem {
	var names []string
	if a != nil && a.Hierarchy != nil {
		names = a.Hierarchy.Types()
	} else if a != nil && a.Program != nil {
		for _, c := range a.Program.Classes {
			names = append(names, c.Name)
		}
		sort.Strings(names)
	}
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindClass
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			items = append(items, protocol.CompletionItem{Label: name, Kind: &kind})
		}
	}
	return items
}

// scopeCompletions returns the names visible at the cursor position along
// with the methods of the enclosing class, class names and keywords.
func scopeCompletions(doc *Document, line, col int, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		item := protocol.CompletionItem{Label: label, Kind: &kind}
		if detail != "" {
			item.Detail = strPtr(detail)
		}
		items = append(items, item)
	}

	path := pathAt(doc, line, col)
	if class := enclosingClass(path); class != nil {
		for _, b := range visibleBindings(doc.analysis, path) {
			add(b.Decl.Name, protocol.CompletionItemKindVariable, b.Decl.Type)
		}
		add(ast.SelfName, protocol.CompletionItemKindVariable, ast.SelfType)
		items = append(items, methodCompletions(doc.analysis, class.Name, prefix)...)
	}
	for _, item := range typeCompletions(doc.analysis, prefix) {
		add(item.Label, protocol.CompletionItemKindClass, "")
	}
	add(ast.SelfType, protocol.CompletionItemKindClass, "")
	for _, kw := range keywords() {
		add(kw, protocol.CompletionItemKindKeyword, "")
	}
	return items
}

// visibleBindings lists the declarations in scope at the innermost node of
// path, innermost first.  Shadowed declarations are omitted.
func visibleBindings(a *Analysis, path []ast.Node) []*binding {
	var out []*binding
	seen := make(map[string]bool)
	add := func(b *binding) {
		if !seen[b.Decl.Name] {
			seen[b.Decl.Name] = true
			out = append(out, b)
		}
	}
	at := path[len(path)-1].Pos()
	for i := len(path) - 1; i >= 0; i-- {
		switch n := path[i].(type) {
		case *ast.Let:
			for j := len(n.Bindings) - 1; j >= 0; j-- {
				if b := n.Bindings[j]; !before(at, b.End()) {
					add(&binding{Decl: b.Decl, Kind: "let"})
				}
			}
		case *ast.CaseBranch:
			add(&binding{Decl: n.Decl, Kind: "case"})
		case *ast.Method:
			for _, f := range n.Formals {
				add(&binding{Decl: f, Kind: "formal"})
			}
		case *ast.Class:
			attrs := n.Variables()
			if a != nil && a.Hierarchy != nil {
				if all, err := a.Hierarchy.Attributes(n.Name); err == nil {
					attrs = all
				}
			}
			for j := len(attrs) - 1; j >= 0; j-- {
				add(&binding{Decl: attrs[j].Decl, Kind: "attribute"})
			}
		}
	}
	return out
}

// keywords returns the language keywords in sorted order.
func keywords() []string {
	kws := make([]string, 0, len(token.Keywords)+2)
	for kw := range token.Keywords {
		kws = append(kws, kw)
	}
	kws = append(kws, "true", "false")
	sort.Strings(kws)
	return kws
}
