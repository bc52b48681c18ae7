// Copyright © 2024 The ELPS authors

package astutil

import (
	"strings"
	"testing"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `class Main inherits IO {
  x : Int <- 1;
  main() : Object { out_int(x + y) };
};
`

func parseTest(t *testing.T) *ast.Program {
	t.Helper()
	prog, err := parser.Parse("t.cl", strings.NewReader(testSource))
	require.NoError(t, err)
	return prog
}

func TestWalk_ParentsAndDepth(t *testing.T) {
	prog := parseTest(t)
	var (
		identDepth  int
		identParent ast.Node
		rootParent  ast.Node = prog
	)
	Walk(prog, func(node, parent ast.Node, depth int) {
		if node == prog {
			rootParent = parent
		}
		if id, ok := node.(*ast.Ident); ok && id.Name == "x" {
			identDepth = depth
			identParent = parent
		}
	})
	assert.Nil(t, rootParent)
	assert.Equal(t, 5, identDepth)
	assert.IsType(t, &ast.Binary{}, identParent)
}

func TestWalkDispatches(t *testing.T) {
	prog := parseTest(t)
	var names []string
	var depths []int
	WalkDispatches(prog, func(d *ast.Dispatch, depth int) {
		names = append(names, d.Method)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"out_int"}, names)
	assert.Equal(t, []int{3}, depths)
}

func TestReferences(t *testing.T) {
	prog, err := parser.Parse("t.cl", strings.NewReader(
		`class A { f(a : Int) : Int { { a <- a + 1; a * b; } }; };`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, References(prog))
}

func TestUserClasses(t *testing.T) {
	prog := coolutil.Assemble(parseTest(t))
	classes := UserClasses(prog, analysis.BasicFile)
	require.Len(t, classes, 1)
	assert.Contains(t, classes, "Main")
	assert.Len(t, UserClasses(prog, ""), len(prog.Classes))
}

func TestNodeAt(t *testing.T) {
	prog := parseTest(t)

	n := NodeAt(prog, 3, 29)
	require.IsType(t, &ast.Ident{}, n)
	assert.Equal(t, "x", n.(*ast.Ident).Name)

	assert.IsType(t, &ast.Binary{}, NodeAt(prog, 3, 31))
	assert.IsType(t, &ast.Method{}, NodeAt(prog, 3, 3))
	assert.Nil(t, NodeAt(prog, 10, 1))

	path := PathTo(prog, 3, 33)
	var kinds []string
	for _, n := range path {
		kinds = append(kinds, ast.Kind(n))
	}
	assert.Equal(t, []string{"class", "method", "method call", "binary operation", "identifier"}, kinds)
}

func TestExprAt(t *testing.T) {
	prog := parseTest(t)
	e := ExprAt(prog, 3, 33)
	require.NotNil(t, e)
	assert.Equal(t, "y", e.(*ast.Ident).Name)
	assert.Nil(t, ExprAt(prog, 3, 3))
	e = ExprAt(prog, 2, 14)
	require.NotNil(t, e)
	assert.IsType(t, &ast.IntLit{}, e)
}

func TestEnclosingClass(t *testing.T) {
	prog := parseTest(t)
	c := EnclosingClass(prog, 2, 3)
	require.NotNil(t, c)
	assert.Equal(t, "Main", c.Name)
	assert.Nil(t, EnclosingClass(prog, 9, 1))
}

func TestSourceOf(t *testing.T) {
	prog := parseTest(t)
	id := NodeAt(prog, 3, 29)
	require.NotNil(t, id)
	assert.Equal(t, "t.cl:3:29", SourceOf(id).String())
	assert.Equal(t, "t.cl:1:1", SourceOf(prog.Classes[0]).String())
}
