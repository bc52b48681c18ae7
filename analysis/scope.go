// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeClass  ScopeKind = iota // class body (fields)
	ScopeMethod                  // method formals
	ScopeLet                     // let bindings
	ScopeCase                    // case branch variable
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeClass:
		return "class"
	case ScopeMethod:
		return "method"
	case ScopeLet:
		return "let"
	case ScopeCase:
		return "case"
	default:
		return "unknown"
	}
}

// Symbol is an object identifier bound in a scope.
type Symbol struct {
	Name   string
	Type   string
	Source *token.Location
	Scope  *Scope
}

// Scope is one frame of the scope stack.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols map[string]*Symbol
	Node    ast.Node // the syntax tree node that introduced this scope
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node ast.Node) *Scope {
	return &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
		Node:    node,
	}
}

// Lookup resolves a symbol by walking the parent chain.
// Returns nil if the symbol is not found.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a symbol only in this scope (not parents).
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// ScopeStack is the stack of scopes active during a traversal.  Pushes and
// pops must be paired by the caller.
type ScopeStack struct {
	top   *Scope
	depth int
}

// NewScopeStack returns an empty ScopeStack.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{}
}

// Push opens a new innermost scope.
func (st *ScopeStack) Push(kind ScopeKind, node ast.Node) *Scope {
	st.top = NewScope(kind, st.top, node)
	st.depth++
	return st.top
}

// Pop closes the innermost scope.  Pop panics if the stack is empty.
func (st *ScopeStack) Pop() {
	if st.top == nil {
		panic("analysis: scope stack underflow")
	}
	st.top = st.top.Parent
	st.depth--
}

// Top returns the innermost scope, or nil if the stack is empty.
func (st *ScopeStack) Top() *Scope {
	return st.top
}

// Depth returns the number of open scopes.
func (st *ScopeStack) Depth() int {
	return st.depth
}

// Bind defines name with type typ in the innermost scope.  Bind fails with a
// *DuplicateBindingError only if name is already bound in the innermost
// scope; shadowing an outer binding is allowed.
func (st *ScopeStack) Bind(name, typ string, src *token.Location) error {
	if st.top == nil {
		panic("analysis: bind with no open scope")
	}
	if st.top.LookupLocal(name) != nil {
		return &DuplicateBindingError{Name: name, Kind: st.top.Kind, Source: src}
	}
	st.top.Symbols[name] = &Symbol{Name: name, Type: typ, Source: src, Scope: st.top}
	return nil
}

// Lookup returns the type bound to name in the nearest enclosing scope.
func (st *ScopeStack) Lookup(name string) (string, bool) {
	sym := st.top.Lookup(name)
	if sym == nil {
		return "", false
	}
	return sym.Type, true
}

// LookupSymbol returns the symbol bound to name in the nearest enclosing
// scope, or nil.
func (st *ScopeStack) LookupSymbol(name string) *Symbol {
	return st.top.Lookup(name)
}
