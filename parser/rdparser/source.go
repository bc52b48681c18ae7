// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/cool/parser/lexer"
	"github.com/luthersystems/cool/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for
// testing or for dynamic environments.
type TokenStream interface {
	// ReadToken returns the next token from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF
	// on every call.
	ReadToken() *token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any time
// a TokenSource wants a token.
type TokenGenerator func() *token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() *token.Token {
	return fn()
}

// TokenSlice returns a TokenStream that yields toks followed by EOF.
func TokenSlice(toks []*token.Token) TokenStream {
	pos := &token.Location{}
	return TokenGenerator(func() *token.Token {
		if len(toks) == 0 {
			return &token.Token{Type: token.EOF, Source: pos}
		}
		tok := toks[0]
		toks = toks[1:]
		pos = tok.Source
		return tok
	})
}

// TokenSource abstracts a TokenStream by adding "memory" and providing methods
// to process and branch off the stream's tokens.  Any number of tokens may be
// peeked ahead.
type TokenSource struct {
	lex   TokenStream
	Token *token.Token
	peek  []*token.Token
}

func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex: stream,
	}
}

// NewTokenSource initializes and returns a new TokenSource that scans tokens
// from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return NewTokenStreamSource(lexer.New(scanner))
}

// Peek returns the next unconsumed token.
func (s *TokenSource) Peek() *token.Token {
	return s.PeekAt(0)
}

// PeekAt returns the unconsumed token i positions ahead of Peek.
func (s *TokenSource) PeekAt(i int) *token.Token {
	for len(s.peek) <= i {
		s.peek = append(s.peek, s.lex.ReadToken())
	}
	return s.peek[i]
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.peek = s.peek[1:]
}
