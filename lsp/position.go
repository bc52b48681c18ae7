// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/astutil"
	"github.com/luthersystems/cool/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// toLSPPosition converts a 1-based source location to a 0-based LSP position.
func toLSPPosition(loc *token.Location) protocol.Position {
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// nodeRange converts the extent of a node to an LSP range.
func nodeRange(n ast.Node) protocol.Range {
	start := toLSPPosition(n.Pos())
	end := start
	if stop := n.End(); stop != nil && stop.Line > 0 {
		end = toLSPPosition(stop)
	}
	return protocol.Range{Start: start, End: end}
}

// nameRange returns the range of a name of the given length starting at loc.
func nameRange(loc *token.Location, nameLen int) protocol.Range {
	start := toLSPPosition(loc)
	end := protocol.Position{
		Line:      start.Line,
		Character: start.Character + safeUint(nameLen),
	}
	return protocol.Range{Start: start, End: end}
}

// pathAt returns the nodes of the document's own classes enclosing the
// given 0-based LSP position, outermost first.
func pathAt(doc *Document, line, col int) []ast.Node {
	if doc.unit == nil {
		return nil
	}
	return astutil.PathTo(doc.unit, line+1, col+1)
}

// wordAtPosition extracts the identifier at the given 0-based LSP
// position from the document content. The cursor can be inside or at the
// end of a word; in both cases the full word is returned.
func wordAtPosition(content string, line, col int) string {
	start, end, ln := wordBounds(content, line, col)
	return ln[start:end]
}

// wordStart returns the 0-based column at which the word under the cursor
// begins.
func wordStart(content string, line, col int) int {
	start, _, _ := wordBounds(content, line, col)
	return start
}

func wordBounds(content string, line, col int) (int, int, string) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return 0, 0, ""
	}
	ln := lines[line]
	if col < 0 || col > len(ln) {
		return 0, 0, ""
	}
	// Scan backwards from cursor.
	start := col
	for start > 0 && isIdentChar(ln[start-1]) {
		start--
	}
	// Scan forwards from cursor.
	end := col
	for end < len(ln) && isIdentChar(ln[end]) {
		end++
	}
	return start, end, ln
}

func isIdentChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_'
}

// binding is the declaration an identifier refers to.
type binding struct {
	Decl  *ast.VarDecl
	Kind  string // "attribute", "formal", "let" or "case"
	Owner string // class defining an attribute
}

// resolveName finds the declaration name refers to at the innermost node
// of path.  Let bindings are visible after their own definition.  Nil is
// returned for self and for names that are not bound.
func resolveName(a *Analysis, path []ast.Node, name string) *binding {
	if len(path) == 0 || name == ast.SelfName {
		return nil
	}
	at := path[len(path)-1].Pos()
	for i := len(path) - 1; i >= 0; i-- {
		switch n := path[i].(type) {
		case *ast.Let:
			for j := len(n.Bindings) - 1; j >= 0; j-- {
				b := n.Bindings[j]
				if b.Decl.Name == name && !before(at, b.End()) {
					return &binding{Decl: b.Decl, Kind: "let"}
				}
			}
		case *ast.CaseBranch:
			if n.Decl.Name == name {
				return &binding{Decl: n.Decl, Kind: "case"}
			}
		case *ast.Method:
			for _, f := range n.Formals {
				if f.Name == name {
					return &binding{Decl: f, Kind: "formal"}
				}
			}
		case *ast.Class:
			return resolveAttribute(a, n, name)
		}
	}
	return nil
}

// resolveAttribute finds the field name visible in class c.
func resolveAttribute(a *Analysis, c *ast.Class, name string) *binding {
	if a != nil && a.Hierarchy != nil {
		path, err := a.Hierarchy.RootPath(c.Name)
		if err == nil {
			for _, typ := range path {
				owner := a.Hierarchy.Class(typ)
				if owner == nil {
					continue
				}
				for _, v := range owner.Variables() {
					if v.Decl.Name == name {
						return &binding{Decl: v.Decl, Kind: "attribute", Owner: typ}
					}
				}
			}
			return nil
		}
	}
	for _, v := range c.Variables() {
		if v.Decl.Name == name {
			return &binding{Decl: v.Decl, Kind: "attribute", Owner: c.Name}
		}
	}
	return nil
}

// before reports whether a precedes b in the source.
func before(a, b *token.Location) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Col < b.Col
}

// enclosingClass returns the class at the root of path.
func enclosingClass(path []ast.Node) *ast.Class {
	if len(path) == 0 {
		return nil
	}
	c, _ := path[0].(*ast.Class)
	return c
}

// resolveDispatch finds the method called by d.  The static types cached
// by the type checker select the class searched.
func resolveDispatch(a *Analysis, class *ast.Class, d *ast.Dispatch) (*ast.Method, string) {
	if a == nil || a.Hierarchy == nil || class == nil {
		return nil, ""
	}
	typ := ast.SelfType
	if d.Receiver != nil {
		typ = d.Receiver.StaticType()
	}
	if d.CastType != "" {
		typ = d.CastType
	}
	typ = analysis.Resolve(typ, class.Name)
	if typ == "" || !a.Hierarchy.IsDefined(typ) {
		return nil, ""
	}
	m, owner, err := a.Hierarchy.LookupMethod(typ, d.Method)
	if err != nil {
		return nil, ""
	}
	return m, owner
}

// methodNameLoc returns the location of the method name of d.  The name
// follows the receiver and any static type qualifier.
func methodNameLoc(content string, d *ast.Dispatch) *token.Location {
	if d.Receiver == nil {
		return d.Pos()
	}
	lines := strings.Split(content, "\n")
	end := d.Receiver.End()
	if end == nil || end.Line < 1 || end.Line > len(lines) {
		return d.Pos()
	}
	// Search forward from the receiver for the method name.
	for line := end.Line; line <= len(lines) && line <= d.End().Line; line++ {
		ln := lines[line-1]
		from := 0
		if line == end.Line {
			from = min(end.Col-1, len(ln))
		}
		if i := indexWord(ln[from:], d.Method); i >= 0 {
			loc := *d.Pos()
			loc.Line = line
			loc.Col = from + i + 1
			return &loc
		}
	}
	return d.Pos()
}

// indexWord returns the index of the first occurrence of word in s that is
// not part of a longer identifier.
func indexWord(s, word string) int {
	for off := 0; ; {
		i := strings.Index(s[off:], word)
		if i < 0 {
			return -1
		}
		i += off
		j := i + len(word)
		if (i == 0 || !isIdentChar(s[i-1])) && (j == len(s) || !isIdentChar(s[j])) {
			return i
		}
		off = j
	}
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
