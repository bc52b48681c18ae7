// Copyright © 2024 The ELPS authors

// Package lexer splits cool source text into tokens.
package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/luthersystems/cool/parser/token"
)

type LexFn func(*Lexer) *token.Token

type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
	done    bool

	// KeepComments makes the lexer emit comments as token.COMMENT tokens
	// instead of discarding them.  The parser does not accept comment
	// tokens.
	KeepComments bool
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
}

// ReadToken returns the next token in the input.  After the input is
// exhausted ReadToken returns a token of type token.EOF on every call.
// Lexical errors are returned as tokens of type token.ERROR whose text is
// the error message.
func (lex *Lexer) ReadToken() *token.Token {
	if lex.done {
		return lex.emit(token.EOF, "")
	}
	tok := lex.lex(lex)
	if tok.Type == token.EOF {
		lex.done = true
	}
	return tok
}

func (lex *Lexer) readToken() *token.Token {
	if tok := lex.skipSpaceAndComments(); tok != nil {
		return tok
	}
	err := lex.scanner.ScanRune()
	if err == io.EOF {
		return lex.emit(token.EOF, "")
	}
	if err != nil {
		return lex.emitError(err)
	}
	c := lex.scanner.Rune()
	switch {
	case isDigit(c):
		lex.scanner.AcceptSeq(isDigit)
		return lex.emitText(token.INT)
	case unicode.IsLetter(c):
		return lex.readWord()
	}
	switch c {
	case '"':
		return lex.readString()
	case '<':
		if lex.scanner.AcceptRune('-') {
			return lex.emitText(token.ASSIGN)
		}
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.LE)
		}
		return lex.emitText(token.LT)
	case '=':
		if lex.scanner.AcceptRune('>') {
			return lex.emitText(token.DARROW)
		}
		return lex.emitText(token.EQ)
	case '*':
		if lex.scanner.AcceptRune(')') {
			return lex.errorf("unmatched *)")
		}
		return lex.emitText(token.STAR)
	case '+':
		return lex.emitText(token.PLUS)
	case '-':
		return lex.emitText(token.MINUS)
	case '/':
		return lex.emitText(token.SLASH)
	case '~':
		return lex.emitText(token.TILDE)
	case '@':
		return lex.emitText(token.AT)
	case '.':
		return lex.emitText(token.DOT)
	case ';':
		return lex.emitText(token.SEMI)
	case ',':
		return lex.emitText(token.COMMA)
	case ':':
		return lex.emitText(token.COLON)
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '{':
		return lex.emitText(token.BRACE_L)
	case '}':
		return lex.emitText(token.BRACE_R)
	}
	return lex.errorf("invalid character %q", c)
}

// skipSpaceAndComments discards whitespace, line comments and (nested)
// block comments.  A non-nil token is returned for an unterminated block
// comment, or for any comment when KeepComments is set.
func (lex *Lexer) skipSpaceAndComments() *token.Token {
	for {
		lex.scanner.AcceptSeqSpace()
		lex.scanner.Ignore()
		c, ok := lex.scanner.Peek()
		if !ok {
			return nil
		}
		switch c {
		case '-':
			if lex.peek2() != '-' {
				return nil
			}
			lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
			if lex.KeepComments {
				return lex.emitText(token.COMMENT)
			}
			lex.scanner.Ignore()
		case '(':
			if lex.peek2() != '*' {
				return nil
			}
			if tok := lex.skipBlockComment(); tok != nil {
				return tok
			}
		default:
			return nil
		}
	}
}

func (lex *Lexer) skipBlockComment() *token.Token {
	// consume the opening "(*"
	_ = lex.scanner.ScanRune()
	_ = lex.scanner.ScanRune()
	depth := 1
	for depth > 0 {
		if lex.scanner.ScanRune() != nil {
			return lex.errorf("EOF in comment")
		}
		switch lex.scanner.Rune() {
		case '(':
			if lex.scanner.AcceptRune('*') {
				depth++
			}
		case '*':
			if lex.scanner.AcceptRune(')') {
				depth--
			}
		}
	}
	if lex.KeepComments {
		return lex.emitText(token.COMMENT)
	}
	lex.scanner.Ignore()
	return nil
}

// peek2 returns the rune two positions ahead of the last scanned rune,
// without consuming anything.
func (lex *Lexer) peek2() rune {
	text := lex.scanner.PeekText(2)
	r := []rune(text)
	if len(r) < 2 {
		return 0
	}
	return r[1]
}

func (lex *Lexer) readWord() *token.Token {
	lex.scanner.AcceptSeq(isWord)
	text := lex.scanner.Text()
	lower := strings.ToLower(text)
	if typ, ok := token.Keywords[lower]; ok {
		return lex.emitText(typ)
	}
	if unicode.IsLower([]rune(text)[0]) && (lower == "true" || lower == "false") {
		return lex.emitText(token.BOOL)
	}
	if unicode.IsUpper([]rune(text)[0]) {
		return lex.emitText(token.TYPEID)
	}
	return lex.emitText(token.OBJECTID)
}

// readString scans a string constant.  The emitted token text includes the
// surrounding quotes and escape sequences are left intact for the parser to
// decode.
func (lex *Lexer) readString() *token.Token {
	for {
		err := lex.scanner.ScanRune()
		if err == io.EOF {
			return lex.errorf("EOF in string constant")
		}
		if err != nil {
			return lex.emitError(err)
		}
		switch lex.scanner.Rune() {
		case '"':
			return lex.emitText(token.STRING)
		case '\n':
			return lex.errorf("unterminated string constant")
		case 0:
			return lex.errorf("string contains null character")
		case '\\':
			if lex.scanner.ScanRune() != nil {
				return lex.errorf("EOF in string constant")
			}
		}
	}
}

func (lex *Lexer) emit(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}
}

func (lex *Lexer) emitText(typ token.Type) *token.Token {
	return lex.scanner.EmitToken(typ)
}

func (lex *Lexer) emitError(err error) *token.Token {
	tok := lex.emit(token.ERROR, err.Error())
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) errorf(format string, v ...interface{}) *token.Token {
	return lex.emitError(fmt.Errorf(format, v...))
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || isDigit(c) || c == '_'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
