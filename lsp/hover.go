// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	path := pathAt(doc, int(params.Position.Line), int(params.Position.Character))
	if len(path) == 0 {
		return nil, nil
	}
	content := buildHoverContent(doc.analysis, path)
	if content == "" {
		return nil, nil
	}
	r := nodeRange(path[len(path)-1])
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &r,
	}, nil
}

// buildHoverContent builds Markdown hover text for the innermost node of
// path.
func buildHoverContent(a *Analysis, path []ast.Node) string {
	class := enclosingClass(path)
	switch n := path[len(path)-1].(type) {
	case *ast.Class:
		return classHover(a, n)
	case *ast.Method:
		return codeBlock(formatMethod(class.Name, n))
	case *ast.VarDecl:
		return declHover(path, n)
	case *ast.VarDef:
		return declHover(path, n.Decl)
	case *ast.Ident:
		return identHover(a, path, n)
	case *ast.Dispatch:
		return dispatchHover(a, class, n)
	case *ast.New:
		var sb strings.Builder
		sb.WriteString(exprHover(n))
		if a != nil && a.Hierarchy != nil && a.Hierarchy.Class(n.Type) != nil {
			fmt.Fprintf(&sb, "\n\n%s", classHover(a, a.Hierarchy.Class(n.Type)))
		}
		return sb.String()
	case ast.Expr:
		return exprHover(n)
	}
	return ""
}

func codeBlock(code string) string {
	return "```cool\n" + code + "\n```"
}

// exprHover shows the kind and static type of an expression.
func exprHover(e ast.Expr) string {
	typ := e.StaticType()
	if typ == "" {
		return fmt.Sprintf("**%s**", ast.Kind(e))
	}
	return fmt.Sprintf("**%s** : `%s`", ast.Kind(e), typ)
}

func classHover(a *Analysis, c *ast.Class) string {
	var sb strings.Builder
	header := "class " + c.Name
	if c.Parent != "" {
		header += " inherits " + c.Parent
	}
	sb.WriteString(codeBlock(header))
	if a != nil && a.Hierarchy != nil {
		if ancestors, err := a.Hierarchy.Ancestors(c.Name); err == nil && len(ancestors) > 0 {
			fmt.Fprintf(&sb, "\n\n%s", strings.Join(append([]string{c.Name}, ancestors...), " → "))
		}
	}
	if analysis.IsBasic(c) {
		sb.WriteString("\n\n*built-in class*")
	}
	return sb.String()
}

// declHover describes a declaration by the construct which owns it.
func declHover(path []ast.Node, d *ast.VarDecl) string {
	text := codeBlock(d.Name + " : " + d.Type)
	owners := path[:len(path)-1]
	if _, ok := path[len(path)-1].(*ast.VarDecl); ok && len(owners) > 0 {
		if _, ok := owners[len(owners)-1].(*ast.VarDef); ok {
			owners = owners[:len(owners)-1]
		}
	}
	if len(owners) == 0 {
		return text
	}
	var b binding
	switch n := owners[len(owners)-1].(type) {
	case *ast.Class:
		b = binding{Kind: "attribute", Owner: n.Name}
	case *ast.Method:
		b = binding{Kind: "formal"}
	case *ast.Let:
		b = binding{Kind: "let"}
	case *ast.CaseBranch:
		b = binding{Kind: "case"}
	default:
		return text
	}
	return text + "\n\n*" + bindingLabel(&b) + "*"
}

func identHover(a *Analysis, path []ast.Node, id *ast.Ident) string {
	if id.Name == ast.SelfName {
		return codeBlock("self : " + ast.SelfType)
	}
	b := resolveName(a, path, id.Name)
	typ := id.StaticType()
	if typ == "" && b != nil {
		typ = b.Decl.Type
	}
	if typ == "" {
		return exprHover(id)
	}
	text := codeBlock(id.Name + " : " + typ)
	if b != nil {
		text += "\n\n*" + bindingLabel(b) + "*"
	}
	return text
}

func bindingLabel(b *binding) string {
	switch b.Kind {
	case "attribute":
		return "attribute of " + b.Owner
	case "formal":
		return "formal parameter"
	case "let":
		return "let binding"
	case "case":
		return "case branch binding"
	}
	return b.Kind
}

func dispatchHover(a *Analysis, class *ast.Class, d *ast.Dispatch) string {
	m, owner := resolveDispatch(a, class, d)
	if m == nil {
		return exprHover(d)
	}
	text := codeBlock(formatMethod(owner, m))
	if typ := d.StaticType(); typ != "" {
		text += fmt.Sprintf("\n\n**%s** : `%s`", ast.Kind(d), typ)
	}
	return text
}

// formatMethod renders a method signature qualified by its class.
func formatMethod(owner string, m *ast.Method) string {
	formals := make([]string, len(m.Formals))
	for i, f := range m.Formals {
		formals[i] = f.Name + " : " + f.Type
	}
	name := m.Name
	if owner != "" {
		name = owner + "." + name
	}
	return fmt.Sprintf("%s(%s) : %s", name, strings.Join(formals, ", "), m.ReturnType)
}
