// Copyright © 2024 The ELPS authors

package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	prog, err := Parse("test", strings.NewReader("class Main { main() : Int { 0 }; };"))
	require.NoError(t, err)
	require.Len(t, prog.Classes, 1)
	assert.Equal(t, "Main", prog.Classes[0].Name)
	assert.Equal(t, "test", prog.Classes[0].Pos().File)
}

func TestParse_Error(t *testing.T) {
	_, err := Parse("test", strings.NewReader("class Main {"))
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	prog, err := ParseLocation("logical", "/path/to/file.cl", strings.NewReader("class A { };"))
	require.NoError(t, err)
	require.Len(t, prog.Classes, 1)
	assert.Equal(t, "logical", prog.Classes[0].Pos().File)
	assert.Equal(t, "/path/to/file.cl", prog.Classes[0].Pos().Path)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cl")
	require.NoError(t, os.WriteFile(path, []byte("class A inherits IO { };\n"), 0o600))
	prog, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "IO", prog.Classes[0].Parent)
	assert.Equal(t, path, prog.Classes[0].Pos().File)

	_, err = ParseFile(filepath.Join(dir, "missing.cl"))
	assert.Error(t, err)
}
