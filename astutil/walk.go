// Copyright © 2024 The ELPS authors

// Package astutil provides shared syntax tree utilities for cool programs.
//
// These helpers are used by the lint, formatter and lsp packages.
package astutil

import (
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// Walk calls fn for every node in the tree rooted at root, depth-first.
// parent is nil for root.
func Walk(root ast.Node, fn func(node ast.Node, parent ast.Node, depth int)) {
	ast.Walk(&parentVisitor{fn: fn}, root)
}

type parentVisitor struct {
	fn    func(ast.Node, ast.Node, int)
	stack []ast.Node
}

func (v *parentVisitor) Visit(n ast.Node) bool {
	var parent ast.Node
	if len(v.stack) > 0 {
		parent = v.stack[len(v.stack)-1]
	}
	v.fn(n, parent, len(v.stack))
	v.stack = append(v.stack, n)
	return true
}

func (v *parentVisitor) Leave(ast.Node) {
	v.stack = v.stack[:len(v.stack)-1]
}

// WalkDispatches calls fn for every method call in the tree.
func WalkDispatches(root ast.Node, fn func(d *ast.Dispatch, depth int)) {
	Walk(root, func(node ast.Node, _ ast.Node, depth int) {
		if d, ok := node.(*ast.Dispatch); ok {
			fn(d, depth)
		}
	})
}

// References counts the identifier expressions in the tree by name.
// Assignment targets are not counted.
func References(root ast.Node) map[string]int {
	refs := make(map[string]int)
	ast.Inspect(root, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			refs[id.Name]++
		}
		return true
	})
	return refs
}

// UserClasses returns the classes of prog that were not loaded from file,
// keyed by name.  Passing the built-in file name returns the user classes of
// an assembled program.
func UserClasses(prog *ast.Program, builtin string) map[string]*ast.Class {
	classes := make(map[string]*ast.Class)
	for _, c := range prog.Classes {
		if c.Pos() != nil && c.Pos().File == builtin {
			continue
		}
		classes[c.Name] = c
	}
	return classes
}

// Contains reports whether the source extent of n covers the given 1-based
// line and column.
func Contains(n ast.Node, line, col int) bool {
	start, end := n.Pos(), n.End()
	if start == nil || end == nil {
		return false
	}
	if line < start.Line || line > end.Line {
		return false
	}
	if line == start.Line && col < start.Col {
		return false
	}
	if line == end.Line && col >= end.Col {
		return false
	}
	return true
}

// PathTo returns the chain of nodes enclosing the given position, outermost
// first.  The result is empty when no node of the tree covers it.
func PathTo(root ast.Node, line, col int) []ast.Node {
	var path []ast.Node
	ast.Inspect(root, func(n ast.Node) bool {
		if _, ok := n.(*ast.Program); !ok && !Contains(n, line, col) {
			return false
		}
		path = append(path, n)
		return true
	})
	if len(path) > 0 {
		if _, ok := path[0].(*ast.Program); ok {
			path = path[1:]
		}
	}
	return path
}

// NodeAt returns the innermost node covering the given position, or nil.
func NodeAt(root ast.Node, line, col int) ast.Node {
	path := PathTo(root, line, col)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// ExprAt returns the innermost expression covering the given position, or
// nil.
func ExprAt(root ast.Node, line, col int) ast.Expr {
	path := PathTo(root, line, col)
	for i := len(path) - 1; i >= 0; i-- {
		if e, ok := path[i].(ast.Expr); ok {
			return e
		}
	}
	return nil
}

// EnclosingClass returns the class whose extent covers the given position,
// or nil.
func EnclosingClass(prog *ast.Program, line, col int) *ast.Class {
	for _, c := range prog.Classes {
		if Contains(c, line, col) {
			return c
		}
	}
	return nil
}

// SourceOf returns the best source location for a node.
// Prefers the node's own location, falls back to its first child's.
func SourceOf(n ast.Node) *token.Location {
	if loc := n.Pos(); loc != nil && loc.Line > 0 {
		return loc
	}
	for _, child := range ast.Children(n) {
		if loc := child.Pos(); loc != nil {
			return loc
		}
	}
	return n.Pos()
}
