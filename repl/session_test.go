// Copyright © 2024 The ELPS authors

package repl

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, s *Session, lines ...string) error {
	t.Helper()
	var err error
	for _, line := range lines {
		_, err = s.Feed(line)
	}
	return err
}

func TestSessionExpressions(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)
	tests := []struct {
		expr string
		typ  string
	}{
		{`1 + 2`, "Int"},
		{`"abc".length()`, "Int"},
		{`not true`, "Bool"},
		{`if true then new IO else new Object fi`, "Object"},
		{`let x : String <- "a" in x.concat("b")`, "String"},
		{`self`, "Object"},
	}
	for _, test := range tests {
		out.Reset()
		_, err := s.Feed(test.expr)
		if assert.NoError(t, err, test.expr) {
			assert.Equal(t, test.typ+"\n", out.String(), test.expr)
		}
	}
	assert.False(t, s.Pending())
}

func TestSessionMultiLine(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	_, err := s.Feed("class Counter {")
	require.NoError(t, err)
	assert.True(t, s.Pending())
	require.NoError(t, feedAll(t, s, "  n : Int;", "  inc() : Counter { { n <- n + 1; self; } };", "};"))
	assert.False(t, s.Pending())
	assert.Equal(t, "defined Counter\n", out.String())
	assert.Equal(t, []string{"Counter"}, s.Classes())

	out.Reset()
	require.NoError(t, feedAll(t, s, "(new Counter", ").inc()"))
	assert.Equal(t, "Counter\n", out.String())
	assert.Equal(t, []string{"abort", "copy", "inc", "type_name"}, s.Methods("Counter"))
}

func TestSessionDefineRejected(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)
	require.NoError(t, feedAll(t, s, "class A { f() : Int { 1 }; };"))

	src, err := s.Feed(`class B inherits A { g() : Int { "no" }; };`)
	var mis *analysis.TypeMismatchError
	require.True(t, errors.As(err, &mis), "%v", err)
	assert.Contains(t, src, "class B")
	assert.False(t, s.Hierarchy().IsDefined("B"))

	_, err = s.Feed("class A { };")
	var dup *analysis.DuplicateTypeError
	require.True(t, errors.As(err, &dup))

	_, err = s.Feed("class C inherits Missing { };")
	var unknown *analysis.UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"A"}, s.Classes())
}

func TestSessionSyntaxError(t *testing.T) {
	s := NewSession(&bytes.Buffer{})
	_, err := s.Feed("1 + + 2")
	require.Error(t, err)
	assert.False(t, errors.Is(err, rdparser.ErrUnexpectedEOF))
	assert.False(t, s.Pending())

	_, err = s.Feed("(1 + ")
	require.NoError(t, err)
	assert.True(t, s.Pending())
	s.Discard()
	assert.False(t, s.Pending())
}

func TestSessionCommands(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)
	require.NoError(t, feedAll(t, s, "class Main inherits IO { x : Int; main() : Object { x }; };"))

	out.Reset()
	require.NoError(t, feedAll(t, s, ":classes"))
	assert.Equal(t, "Main inherits IO\n", out.String())

	out.Reset()
	require.NoError(t, feedAll(t, s, ":in"))
	assert.Equal(t, "Object\n", out.String())

	_, err := s.Feed("x")
	assert.Error(t, err)
	require.NoError(t, feedAll(t, s, ":in Main"))
	assert.Equal(t, "Main", s.Class())
	out.Reset()
	require.NoError(t, feedAll(t, s, "x"))
	assert.Equal(t, "Int\n", out.String())

	_, err = s.Feed(":in Nope")
	assert.Error(t, err)

	out.Reset()
	require.NoError(t, feedAll(t, s, ":hierarchy"))
	assert.Contains(t, out.String(), "Main -> IO\n")

	out.Reset()
	require.NoError(t, feedAll(t, s, ":help"))
	assert.Contains(t, out.String(), ":load")

	_, err = s.Feed(":bogus")
	assert.ErrorContains(t, err, "unknown command")
	_, err = s.Feed(":load")
	assert.Error(t, err)

	require.NoError(t, feedAll(t, s, ":reset"))
	assert.Empty(t, s.Classes())
	assert.Equal(t, "Object", s.Class())

	_, err = s.Feed(":q")
	assert.ErrorIs(t, err, ErrQuit)
}

func TestSessionLoad(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)
	require.NoError(t, s.Load(filepath.Join("..", "testdata", "hello.cl")))
	assert.Equal(t, []string{"Main"}, s.Classes())

	err := s.Load(filepath.Join("..", "testdata", "does-not-exist.cl"))
	assert.Error(t, err)
}

func TestRenderError(t *testing.T) {
	s := NewSession(&bytes.Buffer{})
	src, err := s.Feed(`"a" + 1`)
	require.Error(t, err)

	var out bytes.Buffer
	renderError(&out, err, src)
	got := out.String()
	assert.True(t, strings.HasPrefix(got, "error: "), got)
	assert.Contains(t, got, `"a" + 1`)
	assert.Contains(t, got, ":help")
}
