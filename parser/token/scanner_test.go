// Copyright © 2024 The ELPS authors

package token

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEOF(t *testing.T) {
	s := NewScanner("test.cl", strings.NewReader("ab"))
	require.NoError(t, s.ScanRune())
	require.NoError(t, s.ScanRune())
	assert.True(t, s.EOF())
	assert.Equal(t, io.EOF, s.ScanRune())
	assert.Equal(t, 'b', s.Rune())
}

func TestScannerAcceptSeq(t *testing.T) {
	s := NewScanner("test.cl", strings.NewReader("abc123 rest"))
	n := s.AcceptSeq(func(c rune) bool { return c >= 'a' && c <= 'z' })
	assert.Equal(t, 3, n)
	tok := s.EmitToken(OBJECTID)
	assert.Equal(t, "abc", tok.Text)
	assert.Equal(t, 1, tok.Source.Line)
	assert.Equal(t, 1, tok.Source.Col)

	n = s.AcceptSeq(func(c rune) bool { return c >= '0' && c <= '9' })
	assert.Equal(t, 3, n)
	tok = s.EmitToken(INT)
	assert.Equal(t, "123", tok.Text)
	assert.Equal(t, 4, tok.Source.Col)

	assert.Equal(t, 1, s.AcceptSeqSpace())
	s.Ignore()
	assert.True(t, s.AcceptRune('r'))
	assert.False(t, s.AcceptRune('x'))
}

func TestScannerLocations(t *testing.T) {
	s := NewScanner("test.cl", strings.NewReader("a\n  b"))
	require.True(t, s.AcceptRune('a'))
	s.Ignore()
	s.AcceptSeqSpace()
	s.Ignore()
	require.True(t, s.AcceptRune('b'))
	tok := s.EmitToken(OBJECTID)
	assert.Equal(t, "b", tok.Text)
	assert.Equal(t, 2, tok.Source.Line)
	assert.Equal(t, 3, tok.Source.Col)
	assert.Equal(t, "test.cl:2:3", tok.Source.String())
}

func TestScannerPeek(t *testing.T) {
	s := NewScanner("test.cl", strings.NewReader("(*"))
	c, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, '(', c)
	require.NoError(t, s.ScanRune())
	c, ok = s.Peek()
	require.True(t, ok)
	assert.Equal(t, '*', c)
	require.NoError(t, s.ScanRune())
	_, ok = s.Peek()
	assert.False(t, ok)
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("test.cl", strings.NewReader("\xff"))
	assert.Equal(t, ErrInvalidUTF8, s.ScanRune())
}
