// Copyright © 2018 The ELPS authors

// Package rdparser is a recursive descent parser for cool source.
package rdparser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// ErrUnexpectedEOF is wrapped by errors returned when the input ended in the
// middle of a construct.  An interactive caller can test for it with
// errors.Is and prompt for more input.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

type scanError struct {
	msg string
	eof bool
}

func (err *scanError) Error() string { return err.msg }

func (err *scanError) Is(target error) bool {
	return err.eof && target == ErrUnexpectedEOF
}

// Parser is a cool parser.
type Parser struct {
	src *TokenSource
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// ParseProgram parses a sequence of one or more class definitions, each
// terminated by a semicolon.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	prog.Start = p.PeekLocation()
	for {
		c, err := p.ParseClass()
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, c)
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		if p.src.IsEOF() {
			break
		}
	}
	prog.Stop = p.endLocation()
	return prog, nil
}

// ParseExpression parses a single expression which must make up the entire
// remaining input.
func (p *Parser) ParseExpression() (ast.Expr, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.src.IsEOF() {
		return nil, p.unexpected("end of input")
	}
	return expr, nil
}

// ParseClass parses a single class definition (without the trailing
// semicolon).
func (p *Parser) ParseClass() (*ast.Class, error) {
	start := p.PeekLocation()
	if err := p.expect(token.CLASS); err != nil {
		return nil, err
	}
	name, err := p.typeID()
	if err != nil {
		return nil, err
	}
	c := &ast.Class{Name: name}
	if p.Accept(token.INHERITS) {
		c.Parent, err = p.typeID()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	for !p.Accept(token.BRACE_R) {
		f, err := p.parseFeature()
		if err != nil {
			return nil, err
		}
		c.Features = append(c.Features, f)
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
	}
	c.Range = p.rangeFrom(start)
	return c, nil
}

func (p *Parser) parseFeature() (ast.Feature, error) {
	if p.PeekType() == token.OBJECTID && p.src.PeekAt(1).Type == token.PAREN_L {
		return p.parseMethod()
	}
	return p.parseVarDef()
}

func (p *Parser) parseMethod() (*ast.Method, error) {
	start := p.PeekLocation()
	name, err := p.objectID()
	if err != nil {
		return nil, err
	}
	m := &ast.Method{Name: name}
	if err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	if !p.Accept(token.PAREN_R) {
		for {
			f, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			m.Formals = append(m.Formals, f)
			if p.Accept(token.PAREN_R) {
				break
			}
			if err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	m.ReturnType, err = p.typeID()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	m.Body, err = p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.BRACE_R); err != nil {
		return nil, err
	}
	m.Range = p.rangeFrom(start)
	return m, nil
}

func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	start := p.PeekLocation()
	name, err := p.objectID()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	typ, err := p.typeID()
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{Range: p.rangeFrom(start), Name: name, Type: typ}, nil
}

func (p *Parser) parseVarDef() (*ast.VarDef, error) {
	start := p.PeekLocation()
	decl, err := p.parseVarDecl()
	if err != nil {
		return nil, err
	}
	v := &ast.VarDef{Decl: decl}
	if p.Accept(token.ASSIGN) {
		v.Init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	v.Range = p.rangeFrom(start)
	return v, nil
}

// parseExpr parses the comparison level.  Comparison operators do not
// associate.  Lower precedence constructs (assignment, not, let) extend as
// far to the right as possible and are handled in parsePrimary.
func (p *Parser) parseExpr() (ast.Expr, error) {
	start := p.PeekLocation()
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp(token.LT, token.LE, token.EQ)
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp(token.LT, token.LE, token.EQ); ok {
		return nil, p.errorf("comparison operators are non-associative")
	}
	return &ast.Binary{Range: p.rangeFrom(start), Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	start := p.PeekLocation()
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp(token.PLUS, token.MINUS)
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Range: p.rangeFrom(start), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	start := p.PeekLocation()
	left, err := p.parseIsVoid()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp(token.STAR, token.SLASH)
		if !ok {
			return left, nil
		}
		right, err := p.parseIsVoid()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Range: p.rangeFrom(start), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseIsVoid() (ast.Expr, error) {
	start := p.PeekLocation()
	if !p.Accept(token.ISVOID) {
		return p.parseNegate()
	}
	expr, err := p.parseIsVoid()
	if err != nil {
		return nil, err
	}
	return &ast.IsVoid{Range: p.rangeFrom(start), Expr: expr}, nil
}

func (p *Parser) parseNegate() (ast.Expr, error) {
	start := p.PeekLocation()
	if !p.Accept(token.TILDE) {
		return p.parseDispatch()
	}
	expr, err := p.parseNegate()
	if err != nil {
		return nil, err
	}
	return &ast.Complement{Range: p.rangeFrom(start), Expr: expr}, nil
}

func (p *Parser) parseDispatch() (ast.Expr, error) {
	start := p.PeekLocation()
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		var cast string
		switch {
		case p.Accept(token.AT):
			cast, err = p.typeID()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.DOT); err != nil {
				return nil, err
			}
		case p.Accept(token.DOT):
		default:
			return expr, nil
		}
		name, err := p.objectID()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		expr = &ast.Dispatch{
			Range:    p.rangeFrom(start),
			Receiver: expr,
			CastType: cast,
			Method:   name,
			Args:     args,
		}
	}
}

// parseArgs parses a parenthesized, comma separated argument list.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.Accept(token.PAREN_R) {
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.Accept(token.PAREN_R) {
			return args, nil
		}
		if err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	start := p.PeekLocation()
	switch p.PeekType() {
	case token.OBJECTID:
		switch p.src.PeekAt(1).Type {
		case token.ASSIGN:
			return p.parseAssign()
		case token.PAREN_L:
			name, _ := p.objectID()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.Dispatch{Range: p.rangeFrom(start), Method: name, Args: args}, nil
		}
		name, _ := p.objectID()
		return &ast.Ident{Range: p.rangeFrom(start), Name: name}, nil
	case token.INT:
		return p.parseInt()
	case token.STRING:
		return p.parseString()
	case token.BOOL:
		p.ReadToken()
		value := strings.EqualFold(p.TokenText(), "true")
		return &ast.BoolLit{Range: p.rangeFrom(start), Value: value}, nil
	case token.PAREN_L:
		p.ReadToken()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.PAREN_R); err != nil {
			return nil, err
		}
		return &ast.Paren{Range: p.rangeFrom(start), Expr: expr}, nil
	case token.BRACE_L:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.LET:
		return p.parseLet()
	case token.CASE:
		return p.parseCase()
	case token.NEW:
		p.ReadToken()
		typ, err := p.typeID()
		if err != nil {
			return nil, err
		}
		return &ast.New{Range: p.rangeFrom(start), Type: typ}, nil
	case token.NOT:
		p.ReadToken()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Complement{Range: p.rangeFrom(start), Boolean: true, Expr: expr}, nil
	}
	return nil, p.unexpected("expression")
}

func (p *Parser) parseAssign() (ast.Expr, error) {
	start := p.PeekLocation()
	name, err := p.objectID()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Range: p.rangeFrom(start), Name: name, Value: value}, nil
}

func (p *Parser) parseInt() (ast.Expr, error) {
	start := p.PeekLocation()
	p.ReadToken()
	text := p.TokenText()
	x, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil, p.errorf("integer constant out of range: %s", text)
	}
	return &ast.IntLit{Range: p.rangeFrom(start), Value: int32(x)}, nil
}

func (p *Parser) parseString() (ast.Expr, error) {
	start := p.PeekLocation()
	p.ReadToken()
	s, err := Unquote(p.TokenText())
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return &ast.StringLit{Range: p.rangeFrom(start), Value: s}, nil
}

func (p *Parser) parseBlock() (ast.Expr, error) {
	start := p.PeekLocation()
	if err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, expr)
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		if p.Accept(token.BRACE_R) {
			break
		}
	}
	block.Range = p.rangeFrom(start)
	return block, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	start := p.PeekLocation()
	var exprs [3]ast.Expr
	for i, kw := range []token.Type{token.IF, token.THEN, token.ELSE} {
		if err := p.expect(kw); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs[i] = expr
	}
	if err := p.expect(token.FI); err != nil {
		return nil, err
	}
	return &ast.If{Range: p.rangeFrom(start), Cond: exprs[0], Then: exprs[1], Else: exprs[2]}, nil
}

func (p *Parser) parseWhile() (ast.Expr, error) {
	start := p.PeekLocation()
	if err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LOOP); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.POOL); err != nil {
		return nil, err
	}
	return &ast.While{Range: p.rangeFrom(start), Cond: cond, Body: body}, nil
}

func (p *Parser) parseLet() (ast.Expr, error) {
	start := p.PeekLocation()
	if err := p.expect(token.LET); err != nil {
		return nil, err
	}
	let := &ast.Let{}
	for {
		v, err := p.parseVarDef()
		if err != nil {
			return nil, err
		}
		let.Bindings = append(let.Bindings, v)
		if p.Accept(token.IN) {
			break
		}
		if err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	let.Body = body
	let.Range = p.rangeFrom(start)
	return let, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	start := p.PeekLocation()
	if err := p.expect(token.CASE); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.OF); err != nil {
		return nil, err
	}
	c := &ast.Case{Expr: expr}
	for {
		bstart := p.PeekLocation()
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.DARROW); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		c.Branches = append(c.Branches, &ast.CaseBranch{Range: p.rangeFrom(bstart), Decl: decl, Body: body})
		if p.Accept(token.ESAC) {
			break
		}
	}
	c.Range = p.rangeFrom(start)
	return c, nil
}

var binaryOps = map[token.Type]ast.Op{
	token.PLUS:  ast.OpAdd,
	token.MINUS: ast.OpSub,
	token.STAR:  ast.OpMul,
	token.SLASH: ast.OpDiv,
	token.LT:    ast.OpLT,
	token.LE:    ast.OpLE,
	token.EQ:    ast.OpEQ,
}

func (p *Parser) acceptOp(typ ...token.Type) (ast.Op, bool) {
	if !p.Accept(typ...) {
		return ast.OpInvalid, false
	}
	return binaryOps[p.TokenType()], true
}

func (p *Parser) typeID() (string, error) {
	if err := p.expect(token.TYPEID); err != nil {
		return "", err
	}
	return p.TokenText(), nil
}

func (p *Parser) objectID() (string, error) {
	if err := p.expect(token.OBJECTID); err != nil {
		return "", err
	}
	return p.TokenText(), nil
}

func (p *Parser) expect(typ token.Type) error {
	if p.Accept(typ) {
		return nil
	}
	return p.unexpected(fmt.Sprintf("%q", typ.String()))
}

// unexpected returns an error describing the next token, which did not match
// what the parser expected.
func (p *Parser) unexpected(want string) error {
	tok := p.src.Peek()
	switch tok.Type {
	case token.ERROR:
		p.ReadToken()
		return &token.LocationError{
			Err:    &scanError{msg: tok.Text, eof: strings.HasPrefix(tok.Text, "EOF ")},
			Source: tok.Source,
		}
	case token.EOF:
		return &token.LocationError{
			Err:    fmt.Errorf("%w: expected %s", ErrUnexpectedEOF, want),
			Source: tok.Source,
		}
	}
	return &token.LocationError{
		Err:    fmt.Errorf("unexpected %v: expected %s", tok, want),
		Source: tok.Source,
	}
}

func (p *Parser) errorf(format string, v ...interface{}) error {
	return &token.LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: p.Location(),
	}
}

func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) rangeFrom(start *token.Location) ast.Range {
	return ast.Range{Start: start, Stop: p.endLocation()}
}

// endLocation returns the location just beyond the last consumed token.
func (p *Parser) endLocation() *token.Location {
	tok := p.src.Token
	if tok == nil || tok.Source == nil {
		return nil
	}
	return TokenEnd(tok)
}

// TokenEnd returns the location immediately following tok.
func TokenEnd(tok *token.Token) *token.Location {
	end := *tok.Source
	end.Pos += len(tok.Text)
	for _, c := range tok.Text {
		if c == '\n' {
			end.Line++
			end.Col = 1
		} else if end.Col > 0 {
			end.Col++
		}
	}
	return &end
}

// Unquote decodes the text of a string constant token, including the
// surrounding double quotes.  A backslash followed by n, t, b or f produces
// the corresponding control character; a backslash followed by any other
// character (including a newline) produces that character.
func Unquote(text string) (string, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", fmt.Errorf("invalid string constant: %s", text)
	}
	body := text[1 : len(text)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		c, n := utf8.DecodeRuneInString(body[i:])
		i += n
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		if i >= len(body) {
			return "", fmt.Errorf("invalid string constant: %s", text)
		}
		c, n = utf8.DecodeRuneInString(body[i:])
		i += n
		switch c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		default:
			b.WriteRune(c)
		}
	}
	return b.String(), nil
}

// Quote returns s as a cool string constant.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
