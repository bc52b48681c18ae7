// Copyright © 2024 The ELPS authors

package analysis

import (
	"fmt"
	"io"
	"sort"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser/token"
)

// Names of the built-in classes.
const (
	RootType   = "Object"
	IOType     = "IO"
	IntType    = "Int"
	StringType = "String"
	BoolType   = "Bool"
)

// Hierarchy is the class hierarchy table.  It maps each registered type to
// its parent and remembers the class definitions used to build it.  A
// Hierarchy is not modified by the checker and may be shared by concurrent
// checks once it is built.
type Hierarchy struct {
	parents map[string]string
	classes map[string]*ast.Class
	sources map[string]*token.Location
}

// NewHierarchy returns an empty Hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		parents: make(map[string]string),
		classes: make(map[string]*ast.Class),
		sources: make(map[string]*token.Location),
	}
}

// Register records that name is a type whose parent is parent.  The root
// type is registered with an empty parent.  Register fails with a
// *DuplicateTypeError if name is already registered.
func (h *Hierarchy) Register(name, parent string) error {
	return h.register(name, parent, nil)
}

func (h *Hierarchy) register(name, parent string, src *token.Location) error {
	if _, ok := h.parents[name]; ok {
		return &DuplicateTypeError{Name: name, Source: src}
	}
	h.parents[name] = parent
	h.sources[name] = src
	return nil
}

// RegisterClass registers the class c and keeps its definition for method
// and attribute lookup.  A class without an inherits clause is a child of
// the root type, unless it is the root type.
func (h *Hierarchy) RegisterClass(c *ast.Class) error {
	parent := c.Parent
	if parent == "" && c.Name != RootType {
		parent = RootType
	}
	if err := h.register(c.Name, parent, c.Pos()); err != nil {
		return err
	}
	h.classes[c.Name] = c
	return nil
}

// IsDefined returns true if name is a registered type.
func (h *Hierarchy) IsDefined(name string) bool {
	_, ok := h.parents[name]
	return ok
}

// ParentOf returns the parent of name.  The returned bool is false if name
// is not registered.  The root type's parent is "".
func (h *Hierarchy) ParentOf(name string) (string, bool) {
	parent, ok := h.parents[name]
	return parent, ok
}

// Class returns the definition of the named class, or nil if the type was
// registered without one.
func (h *Hierarchy) Class(name string) *ast.Class {
	return h.classes[name]
}

// Types returns the registered type names in sorted order.
func (h *Hierarchy) Types() []string {
	types := make([]string, 0, len(h.parents))
	for name := range h.parents {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Subtypes returns the sorted names of the types whose parent is name.
func (h *Hierarchy) Subtypes(name string) []string {
	var subs []string
	for typ, parent := range h.parents {
		if parent == name && typ != name {
			subs = append(subs, typ)
		}
	}
	sort.Strings(subs)
	return subs
}

// RootPath returns the sequence of types from typ up to the root,
// inclusive of both.  A path longer than the number of registered types
// means the parent links contain a cycle and RootPath returns a
// *NonTerminatingHierarchyError.
func (h *Hierarchy) RootPath(typ string) ([]string, error) {
	var path []string
	for t := typ; t != ""; {
		parent, ok := h.parents[t]
		if !ok {
			return nil, &UnknownTypeError{Name: t, Source: h.sources[typ]}
		}
		path = append(path, t)
		if len(path) > len(h.parents) {
			return nil, &NonTerminatingHierarchyError{Type: typ, Source: h.sources[typ]}
		}
		t = parent
	}
	return path, nil
}

// Ancestors returns the strict ancestors of typ, nearest first.
func (h *Hierarchy) Ancestors(typ string) ([]string, error) {
	path, err := h.RootPath(typ)
	if err != nil {
		return nil, err
	}
	return path[1:], nil
}

// IsStrictAncestor returns true if anc appears strictly above typ on the
// parent chain of typ.  A type is never its own strict ancestor.
func (h *Hierarchy) IsStrictAncestor(anc, typ string) bool {
	steps := 0
	for t := h.parents[typ]; t != ""; t = h.parents[t] {
		if t == anc {
			return true
		}
		steps++
		if steps > len(h.parents) {
			return false
		}
	}
	return false
}

// Conforms returns true if sub is sup or sup is a strict ancestor of sub.
func (h *Hierarchy) Conforms(sub, sup string) bool {
	return sub == sup || h.IsStrictAncestor(sup, sub)
}

// Join returns the least common ancestor of a and b.  The root paths of a
// and b are compared from the root end and the last type on which they agree
// is the join.
func (h *Hierarchy) Join(a, b string) (string, error) {
	if a == b {
		if _, err := h.RootPath(a); err != nil {
			return "", err
		}
		return a, nil
	}
	pa, err := h.RootPath(a)
	if err != nil {
		return "", err
	}
	pb, err := h.RootPath(b)
	if err != nil {
		return "", err
	}
	join := ""
	for i, j := len(pa)-1, len(pb)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if pa[i] != pb[j] {
			break
		}
		join = pa[i]
	}
	if join == "" {
		return "", fmt.Errorf("%w: types %s and %s have no common ancestor", ErrTypeChecking, a, b)
	}
	return join, nil
}

// LeastUpperBound folds Join over types.  The least upper bound of a single
// type is the type itself.
func (h *Hierarchy) LeastUpperBound(types ...string) (string, error) {
	if len(types) == 0 {
		return "", fmt.Errorf("%w: least upper bound of no types", ErrTypeChecking)
	}
	lub := types[0]
	if len(types) == 1 {
		if !h.IsDefined(lub) {
			return "", &UnknownTypeError{Name: lub}
		}
		return lub, nil
	}
	for _, typ := range types[1:] {
		var err error
		lub, err = h.Join(lub, typ)
		if err != nil {
			return "", err
		}
	}
	return lub, nil
}

// LookupMethod finds the method name visible in typ by searching the class
// of typ and then its ancestors.  It returns the method and the name of the
// class defining it.  The method is nil if no class on the chain defines
// name.
func (h *Hierarchy) LookupMethod(typ, name string) (*ast.Method, string, error) {
	path, err := h.RootPath(typ)
	if err != nil {
		return nil, "", err
	}
	for _, t := range path {
		c := h.classes[t]
		if c == nil {
			continue
		}
		if m := c.Method(name); m != nil {
			return m, t, nil
		}
	}
	return nil, "", nil
}

// Attributes returns every field visible in typ, those of the root class
// first and those of typ itself last.
func (h *Hierarchy) Attributes(typ string) ([]*ast.VarDef, error) {
	path, err := h.RootPath(typ)
	if err != nil {
		return nil, err
	}
	var attrs []*ast.VarDef
	for i := len(path) - 1; i >= 0; i-- {
		if c := h.classes[path[i]]; c != nil {
			attrs = append(attrs, c.Variables()...)
		}
	}
	return attrs, nil
}

// Dump writes a sorted `type -> parent` listing of the table to w.  The
// root type is listed with parent "-".
func (h *Hierarchy) Dump(w io.Writer) error {
	for _, typ := range h.Types() {
		parent := h.parents[typ]
		if parent == "" {
			parent = "-"
		}
		if _, err := fmt.Fprintf(w, "%s -> %s\n", typ, parent); err != nil {
			return err
		}
	}
	return nil
}

// BuildHierarchy registers every class of prog in program order and then
// verifies that every parent is registered.  The first duplicate class is
// reported as a *DuplicateTypeError; an unregistered parent as an
// *UnknownTypeError.
func BuildHierarchy(prog *ast.Program, opts ...Option) (h *Hierarchy, err error) {
	cfg := newConfig(opts)
	end := cfg.observer.Start(PhaseHierarchy, "")
	defer func() { end(err) }()

	h = NewHierarchy()
	for _, c := range prog.Classes {
		if err := h.RegisterClass(c); err != nil {
			return nil, err
		}
	}
	for _, c := range prog.Classes {
		parent := h.parents[c.Name]
		if parent != "" && !h.IsDefined(parent) {
			return nil, &UnknownTypeError{Name: parent, Source: c.Pos()}
		}
	}
	return h, nil
}
