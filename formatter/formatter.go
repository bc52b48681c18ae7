// Copyright © 2024 The ELPS authors

// Package formatter provides source code formatting for cool files.
// Source is parsed into a syntax tree which is printed in canonical layout.
// Comments are collected by a separate lexer pass and reattached before the
// class, feature, block statement or case branch that follows them.
package formatter

import (
	"bytes"
	"strings"

	"github.com/luthersystems/cool/parser"
	"github.com/luthersystems/cool/parser/lexer"
	"github.com/luthersystems/cool/parser/token"
)

// Format formats cool source code. If cfg is nil, DefaultConfig() is used.
func Format(source []byte, cfg *Config) ([]byte, error) {
	return FormatFile(source, "<stdin>", cfg)
}

// FormatFile formats cool source code, using filename for error messages.
func FormatFile(source []byte, filename string, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	prog, err := parser.Parse(filename, bytes.NewReader(source))
	if err != nil {
		return nil, err
	}

	pr := newPrinter(cfg.normalize(), collectComments(source, filename))
	pr.writeProgram(prog)

	result := pr.buf.String()

	// Ensure exactly one trailing newline (if there's any content)
	if len(result) > 0 {
		result = strings.TrimRight(result, "\n") + "\n"
	}

	return []byte(result), nil
}

// collectComments returns the comment tokens of source in order.  The
// source is known to parse so lexical errors are not expected.
func collectComments(source []byte, filename string) []*token.Token {
	lex := lexer.New(token.NewScanner(filename, bytes.NewReader(source)))
	lex.KeepComments = true
	var comments []*token.Token
	for {
		tok := lex.ReadToken()
		switch tok.Type {
		case token.EOF, token.ERROR:
			return comments
		case token.COMMENT:
			comments = append(comments, tok)
		}
	}
}
