// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.cl",
		"src/prelude.cl",
		"lib/utils.cl",
	}
	result := filterExcludes(paths, []string{"prelude.cl"})
	assert.Equal(t, []string{"src/main.cl", "lib/utils.cl"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.cl",
		"build/output.cl",
		"build/sub/deep.cl",
		"lib/utils.cl",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.cl", "lib/utils.cl"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.cl",
		"src/generated_foo.cl",
		"src/generated_bar.cl",
		"lib/utils.cl",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.cl", "lib/utils.cl"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.cl",
		"build/output.cl",
		"src/prelude.cl",
		"lib/utils.cl",
	}
	result := filterExcludes(paths, []string{"build", "prelude.cl"})
	assert.Equal(t, []string{"src/main.cl", "lib/utils.cl"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.cl",
		"lib/utils.cl",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.cl", "lib/utils.cl"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.cl"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.cl"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.cl", []string{"src/*.cl"}))
	assert.False(t, matchesAny("lib/main.cl", []string{"src/*.cl"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/prelude.cl", []string{"prelude.cl"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.cl", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.cl", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.cl")
	assert.Contains(t, components, "c.cl")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.cl", "sub/b.cl", "sub/notes.txt", "build/c.cl"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("class A { };\n"), 0o600))
	}

	files, err := expandArgs([]string{dir + "/...", "extra.cl"}, []string{"build"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.cl"),
		filepath.Join(dir, "sub", "b.cl"),
		"extra.cl",
	}, files)

	_, err = expandArgs([]string{filepath.Join(dir, "missing") + "/..."}, nil)
	assert.Error(t, err)
}
