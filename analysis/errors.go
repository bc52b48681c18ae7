// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"fmt"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// ErrTypeChecking is the root of the analysis error family.  Every error
// produced by BuildHierarchy, Check and CheckClass satisfies
// errors.Is(err, ErrTypeChecking).
var ErrTypeChecking = errors.New("type checking error")

// DuplicateTypeError is returned when two classes declare the same name.
type DuplicateTypeError struct {
	Name   string
	Source *token.Location
}

func (err *DuplicateTypeError) Error() string {
	return fmt.Sprintf("class %s is defined more than once", err.Name)
}

func (err *DuplicateTypeError) Unwrap() error { return ErrTypeChecking }

// DuplicateBindingError is returned when an identifier is bound twice in the
// same scope frame.
type DuplicateBindingError struct {
	Name   string
	Kind   ScopeKind
	Source *token.Location
}

func (err *DuplicateBindingError) Error() string {
	return fmt.Sprintf("identifier %s is already defined in this %s scope", err.Name, err.Kind)
}

func (err *DuplicateBindingError) Unwrap() error { return ErrTypeChecking }

// UnknownTypeError is returned when a declaration references a type that is
// not registered in the hierarchy.
type UnknownTypeError struct {
	Name   string
	Source *token.Location
}

func (err *UnknownTypeError) Error() string {
	return fmt.Sprintf("undefined type %s", err.Name)
}

func (err *UnknownTypeError) Unwrap() error { return ErrTypeChecking }

// TypeMismatchError reports a violation of a typing rule.  Node is the
// offending syntax tree node.
type TypeMismatchError struct {
	Node    ast.Node
	Message string
	Source  *token.Location
}

func (err *TypeMismatchError) Error() string {
	return err.Message
}

func (err *TypeMismatchError) Unwrap() error { return ErrTypeChecking }

// NonTerminatingHierarchyError is returned when following parent links from
// Type does not reach the root within the number of registered types.
type NonTerminatingHierarchyError struct {
	Type   string
	Source *token.Location
}

func (err *NonTerminatingHierarchyError) Error() string {
	return fmt.Sprintf("inheritance chain of %s does not terminate", err.Type)
}

func (err *NonTerminatingHierarchyError) Unwrap() error { return ErrTypeChecking }

func mismatchf(n ast.Node, format string, v ...interface{}) error {
	return &TypeMismatchError{
		Node:    n,
		Message: fmt.Sprintf(format, v...),
		Source:  n.Pos(),
	}
}

// ErrorSource returns the source location carried by an analysis error, or
// nil when err carries no location.
func ErrorSource(err error) *token.Location {
	var (
		dupType *DuplicateTypeError
		dupBind *DuplicateBindingError
		unknown *UnknownTypeError
		mis     *TypeMismatchError
		cycle   *NonTerminatingHierarchyError
		locErr  *token.LocationError
	)
	switch {
	case errors.As(err, &mis):
		return mis.Source
	case errors.As(err, &dupBind):
		return dupBind.Source
	case errors.As(err, &unknown):
		return unknown.Source
	case errors.As(err, &dupType):
		return dupType.Source
	case errors.As(err, &cycle):
		return cycle.Source
	case errors.As(err, &locErr):
		return locErr.Source
	}
	return nil
}

// ErrorKind returns a short name for the kind of analysis error err is, or ""
// when err is not an analysis error.
func ErrorKind(err error) string {
	var (
		dupType *DuplicateTypeError
		dupBind *DuplicateBindingError
		unknown *UnknownTypeError
		mis     *TypeMismatchError
		cycle   *NonTerminatingHierarchyError
	)
	switch {
	case errors.As(err, &dupType):
		return "DuplicateTypeError"
	case errors.As(err, &dupBind):
		return "DuplicateBindingError"
	case errors.As(err, &unknown):
		return "UnknownTypeError"
	case errors.As(err, &mis):
		return "TypeMismatchError"
	case errors.As(err, &cycle):
		return "NonTerminatingHierarchyError"
	}
	return ""
}
