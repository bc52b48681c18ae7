// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completions(c *sessionCompleter, line string) ([]string, int) {
	cands, offset := c.Do([]rune(line), len([]rune(line)))
	var out []string
	for _, cand := range cands {
		out = append(out, string(cand))
	}
	return out, offset
}

func TestSessionCompleter(t *testing.T) {
	s := NewSession(&bytes.Buffer{})
	_, err := s.Feed("class Main inherits IO { io : IO; main() : Object { 0 }; };")
	require.NoError(t, err)
	require.NoError(t, feedAll(t, s, ":in Main"))
	c := &sessionCompleter{session: s}

	// Type names.
	got, offset := completions(c, "new Ma")
	assert.Equal(t, 2, offset)
	assert.Equal(t, []string{"in"}, got)

	// Methods of the session class and keywords.
	got, _ = completions(c, "out_")
	assert.Equal(t, []string{"int", "string"}, got)
	got, _ = completions(c, "whi")
	assert.Equal(t, []string{"le"}, got)

	// Methods after a dot, typed from the receiver.
	got, offset = completions(c, `"x".con`)
	assert.Equal(t, 3, offset)
	assert.Empty(t, got)
	got, _ = completions(c, "(new String).con")
	assert.Equal(t, []string{"cat"}, got)
	got, _ = completions(c, "io.in_")
	assert.Equal(t, []string{"int", "string"}, got)
	got, offset = completions(c, "self@IO.")
	assert.Equal(t, 0, offset)
	assert.Contains(t, got, "out_string")

	// Commands.
	got, _ = completions(c, ":hier")
	assert.Equal(t, []string{"archy"}, got)

	// Nothing to complete.
	got, _ = completions(c, "zzz_nonexistent")
	assert.Empty(t, got)
	got, offset = completions(c, "1 + ")
	assert.Equal(t, 0, offset)
	assert.Empty(t, got)
}
