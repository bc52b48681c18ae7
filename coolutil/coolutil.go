// Copyright © 2018 The ELPS authors

// Package coolutil assembles cool programs from source units and runs the
// analysis pipeline over them.
package coolutil

import (
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser"
)

// Loader appends class definitions to a program under assembly.
//
// A chain of loaders may be formed to assemble a program from several
// sources.
type Loader func(prog *ast.Program) error

// BasicLoader appends the built-in classes.
func BasicLoader(prog *ast.Program) error {
	prog.Classes = append(prog.Classes, analysis.BasicClasses()...)
	return nil
}

// FileLoader appends the classes defined in the files at paths.
func FileLoader(paths ...string) Loader {
	return func(prog *ast.Program) error {
		for _, path := range paths {
			unit, err := parser.ParseFile(path)
			if err != nil {
				return err
			}
			appendUnit(prog, unit)
		}
		return nil
	}
}

// SourceLoader appends the classes defined in src.  The name is used in
// source locations.
func SourceLoader(name, src string) Loader {
	return func(prog *ast.Program) error {
		unit, err := parser.Parse(name, strings.NewReader(src))
		if err != nil {
			return err
		}
		appendUnit(prog, unit)
		return nil
	}
}

// UnitLoader appends the classes of already parsed units.
func UnitLoader(units ...*ast.Program) Loader {
	return func(prog *ast.Program) error {
		for _, unit := range units {
			appendUnit(prog, unit)
		}
		return nil
	}
}

// LoadAll chains loaders into one.
func LoadAll(fn ...Loader) Loader {
	return func(prog *ast.Program) error {
		for _, fn := range fn {
			if err := fn(prog); err != nil {
				return err
			}
		}
		return nil
	}
}

func appendUnit(prog *ast.Program, unit *ast.Program) {
	if prog.Start == nil {
		prog.Start = unit.Start
	}
	prog.Stop = unit.Stop
	prog.Classes = append(prog.Classes, unit.Classes...)
}

// Load runs loaders against an empty program and returns the result.
func Load(fn ...Loader) (*ast.Program, error) {
	prog := &ast.Program{}
	if err := LoadAll(fn...)(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Assemble returns a program made of the built-in classes followed by the
// classes of units.
func Assemble(units ...*ast.Program) *ast.Program {
	prog, _ := Load(BasicLoader, UnitLoader(units...))
	return prog
}

// LoadFiles parses the files at paths and assembles them, with the built-in
// classes, into one program.
func LoadFiles(paths ...string) (*ast.Program, error) {
	return Load(BasicLoader, FileLoader(paths...))
}

// LoadSource parses src and assembles it, with the built-in classes, into a
// program.
func LoadSource(name, src string) (*ast.Program, error) {
	return Load(BasicLoader, SourceLoader(name, src))
}

// Check builds the hierarchy of prog and type checks it.  When class is not
// empty only the named class is checked.  The hierarchy is returned whenever
// it could be built, even if checking failed.
func Check(prog *ast.Program, class string, opts ...analysis.Option) (*analysis.Hierarchy, error) {
	hier, err := analysis.BuildHierarchy(prog, opts...)
	if err != nil {
		return nil, err
	}
	if class != "" {
		return hier, analysis.CheckClass(prog, hier, class, opts...)
	}
	return hier, analysis.Check(prog, hier, opts...)
}

// CheckFiles loads the files at paths and checks the resulting program.
func CheckFiles(class string, paths []string, opts ...analysis.Option) (*analysis.Hierarchy, error) {
	prog, err := LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	return Check(prog, class, opts...)
}

// CheckEach checks every class of prog that is not a built-in class
// separately and returns the failures keyed by class name.  An error
// building the hierarchy is returned directly.
func CheckEach(prog *ast.Program, opts ...analysis.Option) (map[string]error, error) {
	hier, err := analysis.BuildHierarchy(prog, opts...)
	if err != nil {
		return nil, err
	}
	failures := make(map[string]error)
	for _, c := range prog.Classes {
		if analysis.IsBasic(c) {
			continue
		}
		if err := analysis.CheckClass(prog, hier, c.Name, opts...); err != nil {
			failures[c.Name] = err
		}
	}
	return failures, nil
}
