// Copyright © 2024 The ELPS authors

package analysis

import (
	_ "embed"
	"strings"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser"
)

// BasicFile is the source name given to the built-in classes.
const BasicFile = "<basic>"

//go:embed basic.cl
var basicSource string

// BasicClasses returns freshly parsed definitions of the built-in classes
// Object, IO, Int, String and Bool.  Each call returns a new syntax tree
// because checking annotates the tree with static types.
func BasicClasses() []*ast.Class {
	prog, err := parser.Parse(BasicFile, strings.NewReader(basicSource))
	if err != nil {
		panic("analysis: invalid built-in classes: " + err.Error())
	}
	return prog.Classes
}

// IsBasic returns true if c was defined by BasicClasses.
func IsBasic(c *ast.Class) bool {
	return c.Pos() != nil && c.Pos().File == BasicFile
}

// IsPrimitive returns true for the built-in value types Int, String and
// Bool.
func IsPrimitive(typ string) bool {
	return typ == IntType || typ == StringType || typ == BoolType
}
