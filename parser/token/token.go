// Copyright © 2024 The ELPS authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
}

func (tok *Token) String() string {
	switch tok.Type {
	case TYPEID, OBJECTID, INT, STRING, BOOL, ERROR, COMMENT:
		return fmt.Sprintf("%v %q", tok.Type, tok.Text)
	}
	return tok.Type.String()
}

type Type uint

// Type constants used by the cool lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF
	COMMENT

	// Identifiers & literals
	TYPEID
	OBJECTID
	INT
	STRING
	BOOL

	// Keywords
	CLASS
	INHERITS
	IF
	THEN
	ELSE
	FI
	WHILE
	LOOP
	POOL
	LET
	IN
	CASE
	OF
	ESAC
	NEW
	ISVOID
	NOT

	// Operators
	ASSIGN // <-
	DARROW // =>
	LE     // <=
	LT
	EQ
	PLUS
	MINUS
	STAR
	SLASH
	TILDE
	AT
	DOT

	// Delimiters
	SEMI
	COMMA
	COLON
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R

	numTokenTypes
)

var typeStrings = [numTokenTypes]string{
	INVALID:  "invalid",
	ERROR:    "error",
	EOF:      "EOF",
	COMMENT:  "comment",
	TYPEID:   "type identifier",
	OBJECTID: "object identifier",
	INT:      "int",
	STRING:   "string",
	BOOL:     "bool",
	CLASS:    "class",
	INHERITS: "inherits",
	IF:       "if",
	THEN:     "then",
	ELSE:     "else",
	FI:       "fi",
	WHILE:    "while",
	LOOP:     "loop",
	POOL:     "pool",
	LET:      "let",
	IN:       "in",
	CASE:     "case",
	OF:       "of",
	ESAC:     "esac",
	NEW:      "new",
	ISVOID:   "isvoid",
	NOT:      "not",
	ASSIGN:   "<-",
	DARROW:   "=>",
	LE:       "<=",
	LT:       "<",
	EQ:       "=",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	TILDE:    "~",
	AT:       "@",
	DOT:      ".",
	SEMI:     ";",
	COMMA:    ",",
	COLON:    ":",
	PAREN_L:  "(",
	PAREN_R:  ")",
	BRACE_L:  "{",
	BRACE_R:  "}",
}

func (typ Type) String() string {
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Keywords maps lower-cased keyword text to its token type.  Keywords are
// case-insensitive.
var Keywords = map[string]Type{
	"class":    CLASS,
	"inherits": INHERITS,
	"if":       IF,
	"then":     THEN,
	"else":     ELSE,
	"fi":       FI,
	"while":    WHILE,
	"loop":     LOOP,
	"pool":     POOL,
	"let":      LET,
	"in":       IN,
	"case":     CASE,
	"of":       OF,
	"esac":     ESAC,
	"new":      NEW,
	"isvoid":   ISVOID,
	"not":      NOT,
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	if loc == nil {
		return "<unknown>"
	}
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
