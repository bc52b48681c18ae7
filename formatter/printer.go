// Copyright © 2024 The ELPS authors

package formatter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/luthersystems/cool/parser/token"
)

type printer struct {
	buf      bytes.Buffer
	cfg      *Config
	col      int  // current column (0-indexed)
	atBOL    bool // at beginning of line (nothing written on current line)
	comments []*token.Token
	next     int // index of the next unwritten comment
	lastLine int // source line of the last item written, 0 before any
}

func newPrinter(cfg *Config, comments []*token.Token) *printer {
	return &printer{
		cfg:      cfg,
		atBOL:    true,
		comments: comments,
	}
}

func (p *printer) writeProgram(prog *ast.Program) {
	for i, c := range prog.Classes {
		p.flushComments(c.Pos(), 0)
		least := 0
		if i > 0 {
			least = 1
		}
		p.blankLines(c.Pos().Line, least)
		p.writeClass(c)
		p.writeString(";")
		p.writeTrailingComment(c.End())
		p.newline()
	}
	p.flushComments(nil, 0)
}

func (p *printer) writeClass(c *ast.Class) {
	p.writeIndent(0)
	p.writeString("class " + c.Name)
	if c.Parent != "" {
		p.writeString(" inherits " + c.Parent)
	}
	if len(c.Features) == 0 && !p.hasCommentBefore(c.End()) {
		p.writeString(" { }")
		p.lastLine = c.End().Line
		return
	}
	p.writeString(" {")
	p.newline()
	p.lastLine = c.Pos().Line
	inner := p.cfg.IndentSize
	for _, f := range c.Features {
		p.flushComments(f.Pos(), inner)
		p.blankLines(f.Pos().Line, 0)
		p.writeIndent(inner)
		switch f := f.(type) {
		case *ast.VarDef:
			p.writeVarDef(f, inner)
		case *ast.Method:
			p.writeMethod(f, inner)
		}
		p.writeString(";")
		p.lastLine = f.End().Line
		p.writeTrailingComment(f.End())
		p.newline()
	}
	p.flushComments(c.End(), inner)
	p.writeIndent(0)
	p.writeString("}")
	p.lastLine = c.End().Line
}

func (p *printer) writeMethod(m *ast.Method, indent int) {
	formals := make([]string, len(m.Formals))
	for i, f := range m.Formals {
		formals[i] = decl(f)
	}
	p.writeString(m.Name + "(" + strings.Join(formals, ", ") + ") : " + m.ReturnType + " {")
	body := inline(m.Body)
	if p.fits(" "+body+" }") && !hasLayout(m.Body) {
		p.writeString(" " + body + " }")
		return
	}
	p.newline()
	p.writeIndent(indent + p.cfg.IndentSize)
	p.writeExpr(m.Body, indent+p.cfg.IndentSize)
	p.newline()
	p.writeIndent(indent)
	p.writeString("}")
}

func (p *printer) writeVarDef(v *ast.VarDef, indent int) {
	p.writeString(decl(v.Decl))
	if v.Init != nil {
		p.writeString(" <- ")
		p.writeExpr(v.Init, indent)
	}
}

// writeExpr writes e on the current line when it fits, and in broken layout
// otherwise.  indent is the column of the line e starts on.
func (p *printer) writeExpr(e ast.Expr, indent int) {
	if s := inline(e); p.fits(s) && !hasLayout(e) {
		p.writeString(s)
		return
	}
	step := indent + p.cfg.IndentSize
	switch e := e.(type) {
	case *ast.Block:
		p.writeString("{")
		p.newline()
		p.lastLine = e.Pos().Line
		for _, stmt := range e.Body {
			p.flushComments(stmt.Pos(), step)
			p.blankLines(stmt.Pos().Line, 0)
			p.writeIndent(step)
			p.writeExpr(stmt, step)
			p.writeString(";")
			p.lastLine = stmt.End().Line
			p.writeTrailingComment(stmt.End())
			p.newline()
		}
		p.flushComments(e.End(), step)
		p.writeIndent(indent)
		p.writeString("}")
	case *ast.If:
		p.writeString("if ")
		p.writeExpr(e.Cond, indent)
		p.writeString(" then")
		p.writeIndented(e.Then, step)
		p.writeLine("else", indent)
		p.writeIndented(e.Else, step)
		p.writeLine("fi", indent)
	case *ast.While:
		p.writeString("while ")
		p.writeExpr(e.Cond, indent)
		p.writeString(" loop")
		p.writeIndented(e.Body, step)
		p.writeLine("pool", indent)
	case *ast.Let:
		p.writeLet(e, indent)
	case *ast.Case:
		p.writeString("case ")
		p.writeExpr(e.Expr, indent)
		p.writeString(" of")
		p.newline()
		for _, b := range e.Branches {
			p.flushComments(b.Pos(), step)
			p.writeIndent(step)
			p.writeString(decl(b.Decl) + " => ")
			p.writeExpr(b.Body, step)
			p.writeString(";")
			p.lastLine = b.End().Line
			p.writeTrailingComment(b.End())
			p.newline()
		}
		p.writeIndent(indent)
		p.writeString("esac")
	case *ast.Dispatch:
		if e.Receiver != nil {
			p.writeExpr(e.Receiver, indent)
			if e.CastType != "" {
				p.writeString("@" + e.CastType)
			}
			p.writeString(".")
		}
		p.writeString(e.Method + "(")
		for i, arg := range e.Args {
			if i > 0 {
				p.writeString(", ")
			}
			p.writeExpr(arg, indent)
		}
		p.writeString(")")
	case *ast.Assign:
		p.writeString(e.Name + " <- ")
		p.writeExpr(e.Value, indent)
	case *ast.Paren:
		p.writeString("(")
		p.writeExpr(e.Expr, indent)
		p.writeString(")")
	case *ast.Binary:
		p.writeExpr(e.Left, indent)
		p.writeString(" " + e.Op.String() + " ")
		p.writeExpr(e.Right, indent)
	case *ast.Complement:
		p.writeString(complementPrefix(e))
		p.writeExpr(e.Expr, indent)
	case *ast.IsVoid:
		p.writeString("isvoid ")
		p.writeExpr(e.Expr, indent)
	default:
		p.writeString(inline(e))
	}
}

func (p *printer) writeLet(e *ast.Let, indent int) {
	bindings := make([]string, len(e.Bindings))
	simple := true
	for i, b := range e.Bindings {
		bindings[i] = inlineVarDef(b)
		if b.Init != nil && hasLayout(b.Init) {
			simple = false
		}
	}
	header := "let " + strings.Join(bindings, ", ") + " in"
	if simple && p.fits(header) {
		p.writeString(header)
	} else {
		p.writeString("let ")
		align := p.col
		for i, b := range e.Bindings {
			if i > 0 {
				p.writeString(",")
				p.newline()
				p.writeIndent(align)
			}
			p.writeVarDef(b, align)
		}
		p.writeLine("in", indent)
	}
	p.writeIndented(e.Body, indent+p.cfg.IndentSize)
}

// writeIndented writes e on a new line at column indent.
func (p *printer) writeIndented(e ast.Expr, indent int) {
	p.newline()
	p.writeIndent(indent)
	p.writeExpr(e, indent)
}

// writeLine writes s on a new line at column indent.
func (p *printer) writeLine(s string, indent int) {
	p.newline()
	p.writeIndent(indent)
	p.writeString(s)
}

func (p *printer) fits(s string) bool {
	return p.col+len(s) <= p.cfg.MaxWidth && !strings.Contains(s, "\n")
}

// blankLines writes the blank lines preceding an item starting on source
// line start, keeping at least least and at most MaxBlankLines.
func (p *printer) blankLines(start int, least int) {
	n := 0
	if p.lastLine > 0 {
		n = start - p.lastLine - 1
	}
	if n > p.cfg.MaxBlankLines {
		n = p.cfg.MaxBlankLines
	}
	if n < least {
		n = least
	}
	for i := 0; i < n; i++ {
		p.newline()
	}
}

func (p *printer) hasCommentBefore(loc *token.Location) bool {
	return p.next < len(p.comments) && before(p.comments[p.next].Source, loc)
}

// flushComments writes, one per line at column indent, every pending
// comment that starts before loc.  A nil loc flushes all comments.
func (p *printer) flushComments(loc *token.Location, indent int) {
	for p.next < len(p.comments) {
		c := p.comments[p.next]
		if loc != nil && !before(c.Source, loc) {
			return
		}
		if !p.atBOL {
			p.newline()
		}
		p.blankLines(c.Source.Line, 0)
		p.writeIndent(indent)
		p.writeString(c.Text)
		p.newline()
		p.lastLine = c.Source.Line + strings.Count(c.Text, "\n")
		p.next++
	}
}

// writeTrailingComment writes a pending comment that starts on the line
// where an item ends, after the item.
func (p *printer) writeTrailingComment(end *token.Location) {
	if p.next >= len(p.comments) || end == nil {
		return
	}
	c := p.comments[p.next]
	if c.Source.Line != end.Line || before(c.Source, end) || strings.Contains(c.Text, "\n") {
		return
	}
	p.writeString(" " + c.Text)
	p.next++
}

func before(a, b *token.Location) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Col < b.Col
}

// writeIndent writes spaces to reach the desired column.
func (p *printer) writeIndent(col int) {
	if !p.atBOL {
		return
	}
	for i := 0; i < col; i++ {
		p.buf.WriteByte(' ')
	}
	p.col = col
	p.atBOL = false
}

// writeString writes a string, updating column tracking.
func (p *printer) writeString(s string) {
	if p.atBOL && s != "" {
		p.atBOL = false
	}
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.col = len(s) - idx - 1
	} else {
		p.col += len(s)
	}
}

// newline writes a newline and marks beginning of line.
func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.col = 0
	p.atBOL = true
}

// hasLayout reports whether e contains a construct that is always broken
// across lines: a block or case with more than one element, or a loop.
func hasLayout(e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Block:
			found = found || len(n.Body) > 1
		case *ast.Case:
			found = found || len(n.Branches) > 1
		case *ast.While:
			found = true
		}
		return !found
	})
	return found
}

func decl(d *ast.VarDecl) string {
	return d.Name + " : " + d.Type
}

func inlineVarDef(v *ast.VarDef) string {
	if v.Init == nil {
		return decl(v.Decl)
	}
	return decl(v.Decl) + " <- " + inline(v.Init)
}

func complementPrefix(e *ast.Complement) string {
	if e.Boolean {
		return "not "
	}
	return "~"
}

// inline renders e on a single line.
func inline(e ast.Expr) string {
	var b strings.Builder
	writeInline(&b, e)
	return b.String()
}

func writeInline(b *strings.Builder, e ast.Expr) {
	switch e := e.(type) {
	case *ast.Assign:
		b.WriteString(e.Name + " <- ")
		writeInline(b, e.Value)
	case *ast.Dispatch:
		if e.Receiver != nil {
			writeInline(b, e.Receiver)
			if e.CastType != "" {
				b.WriteString("@" + e.CastType)
			}
			b.WriteString(".")
		}
		b.WriteString(e.Method + "(")
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeInline(b, arg)
		}
		b.WriteString(")")
	case *ast.If:
		b.WriteString("if ")
		writeInline(b, e.Cond)
		b.WriteString(" then ")
		writeInline(b, e.Then)
		b.WriteString(" else ")
		writeInline(b, e.Else)
		b.WriteString(" fi")
	case *ast.While:
		b.WriteString("while ")
		writeInline(b, e.Cond)
		b.WriteString(" loop ")
		writeInline(b, e.Body)
		b.WriteString(" pool")
	case *ast.Block:
		b.WriteString("{ ")
		for _, stmt := range e.Body {
			writeInline(b, stmt)
			b.WriteString("; ")
		}
		b.WriteString("}")
	case *ast.Let:
		b.WriteString("let ")
		for i, v := range e.Bindings {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(inlineVarDef(v))
		}
		b.WriteString(" in ")
		writeInline(b, e.Body)
	case *ast.Case:
		b.WriteString("case ")
		writeInline(b, e.Expr)
		b.WriteString(" of ")
		for _, br := range e.Branches {
			b.WriteString(decl(br.Decl) + " => ")
			writeInline(b, br.Body)
			b.WriteString("; ")
		}
		b.WriteString("esac")
	case *ast.New:
		b.WriteString("new " + e.Type)
	case *ast.IsVoid:
		b.WriteString("isvoid ")
		writeInline(b, e.Expr)
	case *ast.Complement:
		b.WriteString(complementPrefix(e))
		writeInline(b, e.Expr)
	case *ast.Paren:
		b.WriteString("(")
		writeInline(b, e.Expr)
		b.WriteString(")")
	case *ast.Binary:
		writeInline(b, e.Left)
		b.WriteString(" " + e.Op.String() + " ")
		writeInline(b, e.Right)
	case *ast.Ident:
		b.WriteString(e.Name)
	case *ast.IntLit:
		b.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *ast.BoolLit:
		b.WriteString(strconv.FormatBool(e.Value))
	case *ast.StringLit:
		b.WriteString(rdparser.Quote(e.Value))
	}
}
