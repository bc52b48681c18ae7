// Copyright © 2024 The ELPS authors

package token

import (
	"errors"
	"io"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned by ScanRune when the input contains a byte
// sequence that is not valid utf-8.
var ErrInvalidUTF8 = errors.New("invalid utf-8 encoding")

// Scanner facilitates construction of tokens from a byte stream (io.Reader).
// The entire stream is buffered when the Scanner is created; cool source
// files are small.
type Scanner struct {
	file    string
	path    string
	src     []byte
	readErr error

	start     int // byte offset of the current token
	startLine int
	startCol  int

	next int // byte offset of the rune following c
	line int // line of the rune at next
	col  int // column of the rune at next

	c     rune
	cPos  int
	cLine int
	cCol  int
}

// NewScanner initializes and returns a new Scanner.  Errors reading from r
// are reported by Err once the buffered input has been consumed.
func NewScanner(file string, r io.Reader) *Scanner {
	src, err := io.ReadAll(r)
	return &Scanner{
		file:      file,
		src:       src,
		readErr:   err,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.next])
}

// Rune returns the current unicode rune that is being scanned.
func (s *Scanner) Rune() rune {
	return s.c
}

// Peek returns the next rune to be scanned, if there is one.
func (s *Scanner) Peek() (rune, bool) {
	if s.next >= len(s.src) {
		return 0, false
	}
	c, n := utf8.DecodeRune(s.src[s.next:])
	if c == utf8.RuneError && n <= 1 {
		return utf8.RuneError, false
	}
	return c, true
}

// PeekText returns up to n runes of unscanned input without consuming them.
func (s *Scanner) PeekText(n int) string {
	end := s.next
	for i := 0; i < n && end < len(s.src); i++ {
		_, size := utf8.DecodeRune(s.src[end:])
		end += size
	}
	return string(s.src[s.next:end])
}

// ScanRune attempts to scan a utf-8 rune from the input for inclusion in the
// current token.  At the end of input ScanRune returns io.EOF, or the error
// encountered while reading the input.
func (s *Scanner) ScanRune() error {
	if s.next >= len(s.src) {
		if s.readErr != nil {
			return s.readErr
		}
		return io.EOF
	}
	c, n := utf8.DecodeRune(s.src[s.next:])
	if c == utf8.RuneError && n <= 1 {
		return ErrInvalidUTF8
	}
	s.c = c
	s.cPos = s.next
	s.cLine = s.line
	s.cCol = s.col
	s.next += n
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return nil
}

// Err returns an error encountered while reading the input stream.
func (s *Scanner) Err() error {
	return s.readErr
}

// EOF returns true if all input has been scanned.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.src)
}

// Accept scans the next rune if fn returns true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	c, ok := s.Peek()
	if !ok || !fn(c) {
		return false
	}
	return s.ScanRune() == nil
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

// AcceptSpace scans the next rune if it is whitespace.
func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

// AcceptSeq scans runes for as long as fn returns true and returns the
// number of runes scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	n := 0
	for s.Accept(fn) {
		n++
	}
	return n
}

// AcceptSeqSpace scans a sequence of whitespace.
func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(unicode.IsSpace)
}

// LocStart returns a Location referencing the beginning of the current token,
// just beyond the end of the previous token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}

// Loc returns a Location referencing the current scanner position, the last
// position of the current token.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.cPos,
		Line: s.cLine,
		Col:  s.cCol,
	}
}
