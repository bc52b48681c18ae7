// Copyright © 2018 The ELPS authors

// Package parser reads cool source files into syntax trees.
package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/luthersystems/cool/parser/token"
)

// Parse parses the program read from r.  The name is used in source
// locations.
func Parse(name string, r io.Reader) (*ast.Program, error) {
	return rdparser.New(token.NewScanner(name, r)).ParseProgram()
}

// ParseLocation is like Parse but records path as the physical location of
// the source, which may differ from its logical name.
func ParseLocation(name string, path string, r io.Reader) (*ast.Program, error) {
	s := token.NewScanner(name, r)
	s.SetPath(path)
	return rdparser.New(s).ParseProgram()
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*ast.Program, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to open source file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return ParseLocation(path, path, f)
}
