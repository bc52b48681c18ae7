// Copyright © 2024 The ELPS authors

package lexer

import (
	"strings"
	"testing"

	"github.com/luthersystems/cool/parser/token"
	"github.com/stretchr/testify/assert"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`class Main inherits IO {`, []*token.Token{
			testToken(token.CLASS, "class"),
			testToken(token.TYPEID, "Main"),
			testToken(token.INHERITS, "inherits"),
			testToken(token.TYPEID, "IO"),
			testToken(token.BRACE_L, "{"),
			testToken(token.EOF, ""),
		}},
		{`x <- 1 <= 2 < 3 = 4`, []*token.Token{
			testToken(token.OBJECTID, "x"),
			testToken(token.ASSIGN, "<-"),
			testToken(token.INT, "1"),
			testToken(token.LE, "<="),
			testToken(token.INT, "2"),
			testToken(token.LT, "<"),
			testToken(token.INT, "3"),
			testToken(token.EQ, "="),
			testToken(token.INT, "4"),
			testToken(token.EOF, ""),
		}},
		{`CLASS If fI tRUE True false`, []*token.Token{
			testToken(token.CLASS, "CLASS"),
			testToken(token.IF, "If"),
			testToken(token.FI, "fI"),
			testToken(token.BOOL, "tRUE"),
			testToken(token.TYPEID, "True"),
			testToken(token.BOOL, "false"),
			testToken(token.EOF, ""),
		}},
		{`e@A.f(x, y_1);`, []*token.Token{
			testToken(token.OBJECTID, "e"),
			testToken(token.AT, "@"),
			testToken(token.TYPEID, "A"),
			testToken(token.DOT, "."),
			testToken(token.OBJECTID, "f"),
			testToken(token.PAREN_L, "("),
			testToken(token.OBJECTID, "x"),
			testToken(token.COMMA, ","),
			testToken(token.OBJECTID, "y_1"),
			testToken(token.PAREN_R, ")"),
			testToken(token.SEMI, ";"),
			testToken(token.EOF, ""),
		}},
		{`x : Int => ~ * / + -`, []*token.Token{
			testToken(token.OBJECTID, "x"),
			testToken(token.COLON, ":"),
			testToken(token.TYPEID, "Int"),
			testToken(token.DARROW, "=>"),
			testToken(token.TILDE, "~"),
			testToken(token.STAR, "*"),
			testToken(token.SLASH, "/"),
			testToken(token.PLUS, "+"),
			testToken(token.MINUS, "-"),
			testToken(token.EOF, ""),
		}},
		{"a -- comment\nb", []*token.Token{
			testToken(token.OBJECTID, "a"),
			testToken(token.OBJECTID, "b"),
			testToken(token.EOF, ""),
		}},
		{"a (* outer (* inner *) still *) b", []*token.Token{
			testToken(token.OBJECTID, "a"),
			testToken(token.OBJECTID, "b"),
			testToken(token.EOF, ""),
		}},
		{`"hello\n\"world\""`, []*token.Token{
			testToken(token.STRING, `"hello\n\"world\""`),
			testToken(token.EOF, ""),
		}},
		{"\"abc\ndef\"", []*token.Token{
			testToken(token.ERROR, "unterminated string constant"),
		}},
		{"(* never closed", []*token.Token{
			testToken(token.ERROR, "EOF in comment"),
		}},
		{"*)", []*token.Token{
			testToken(token.ERROR, "unmatched *)"),
		}},
		{"#", []*token.Token{
			testToken(token.ERROR, `invalid character '#'`),
		}},
	}

	for i, test := range tests {
		lex := New(token.NewScanner("test", strings.NewReader(test.input)))
		for j, expect := range test.tokens {
			tok := lex.ReadToken()
			if !assert.Equal(t, expect.Type, tok.Type, "test %d token %d (%q)", i, j, test.input) {
				break
			}
			assert.Equal(t, expect.Text, tok.Text, "test %d token %d (%q)", i, j, test.input)
		}
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	lex := New(token.NewScanner("test", strings.NewReader("x")))
	assert.Equal(t, token.OBJECTID, lex.ReadToken().Type)
	assert.Equal(t, token.EOF, lex.ReadToken().Type)
	assert.Equal(t, token.EOF, lex.ReadToken().Type)
}

func TestLexerLocations(t *testing.T) {
	lex := New(token.NewScanner("test.cl", strings.NewReader("class A {\n  x : Int;\n};")))
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	// x is the first token on line 2
	x := toks[3]
	assert.Equal(t, token.OBJECTID, x.Type)
	assert.Equal(t, 2, x.Source.Line)
	assert.Equal(t, 3, x.Source.Col)
}

func TestLexerKeepComments(t *testing.T) {
	src := "x -- line\n(* block (* nested *) *) y"
	lex := New(token.NewScanner("test.cl", strings.NewReader(src)))
	lex.KeepComments = true
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	if assert.Len(t, toks, 4) {
		assert.Equal(t, token.COMMENT, toks[1].Type)
		assert.Equal(t, "-- line", toks[1].Text)
		assert.Equal(t, 3, toks[1].Source.Col)
		assert.Equal(t, token.COMMENT, toks[2].Type)
		assert.Equal(t, "(* block (* nested *) *)", toks[2].Text)
		assert.Equal(t, 2, toks[2].Source.Line)
		assert.Equal(t, "y", toks[3].Text)
	}
}

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type: typ,
		Text: text,
	}
}
