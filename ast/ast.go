// Copyright © 2024 The ELPS authors

// Package ast declares the types used to represent syntax trees for cool
// programs.
//
// A Program is a forest of class definitions.  Class features are variable
// definitions (fields) and methods; method bodies and initializers are
// expressions.  The expression variant set is closed: Expr and Feature can
// only be implemented inside this package.
package ast

import (
	"github.com/luthersystems/cool/parser/token"
)

const (
	// SelfType is the self-referential pseudo-type.
	SelfType = "SELF_TYPE"
	// SelfName is the identifier denoting the current receiver.
	SelfName = "self"
)

// Node is implemented by all syntax tree nodes.
type Node interface {
	// Pos returns the location of the first token of the node.
	Pos() *token.Location
	// End returns the location immediately following the last token of the
	// node.
	End() *token.Location
}

// Range records the source extent of a node.
type Range struct {
	Start *token.Location
	Stop  *token.Location
}

func (r Range) Pos() *token.Location { return r.Start }
func (r Range) End() *token.Location { return r.Stop }

// Expr is implemented by every expression node.  Once an expression has
// been type checked its inferred static type is cached on the node.
type Expr interface {
	Node
	StaticType() string
	SetStaticType(typ string)
	exprNode()
}

// Typed caches the inferred static type of an expression.
type Typed struct {
	typ string
}

// StaticType returns the cached static type, or "" if the expression has not
// been checked.
func (t *Typed) StaticType() string { return t.typ }

// SetStaticType caches typ as the static type of the expression.
func (t *Typed) SetStaticType(typ string) { t.typ = typ }

// Feature is implemented by class features: *VarDef and *Method.
type Feature interface {
	Node
	FeatureName() string
	featureNode()
}

// Program is an ordered sequence of class definitions.
type Program struct {
	Range
	Classes []*Class
}

// Class finds the class definition named name.
func (p *Program) Class(name string) *Class {
	for _, c := range p.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Class is a class definition.  Parent is "" when the source has no
// inherits clause.
type Class struct {
	Range
	Name     string
	Parent   string
	Features []Feature
}

// Variables returns the class fields in declaration order.
func (c *Class) Variables() []*VarDef {
	var vars []*VarDef
	for _, f := range c.Features {
		if v, ok := f.(*VarDef); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Methods returns the class methods in declaration order.
func (c *Class) Methods() []*Method {
	var methods []*Method
	for _, f := range c.Features {
		if m, ok := f.(*Method); ok {
			methods = append(methods, m)
		}
	}
	return methods
}

// Method returns the method called name defined directly in c.
func (c *Class) Method(name string) *Method {
	for _, m := range c.Methods() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// VarDecl pairs a name with a declared type.  It is used for formal
// arguments and case branch variables.
type VarDecl struct {
	Range
	Name string
	Type string
}

// VarDef is a variable declaration with an optional initializer.  It is
// used for class fields and let bindings.
type VarDef struct {
	Range
	Decl *VarDecl
	Init Expr
}

func (v *VarDef) FeatureName() string { return v.Decl.Name }
func (*VarDef) featureNode()          {}

// Method is a method definition.
type Method struct {
	Range
	Name       string
	Formals    []*VarDecl
	ReturnType string
	Body       Expr
}

func (m *Method) FeatureName() string { return m.Name }
func (*Method) featureNode()          {}

// Signature returns the ordered formal types and the declared return type.
func (m *Method) Signature() ([]string, string) {
	formals := make([]string, len(m.Formals))
	for i, f := range m.Formals {
		formals[i] = f.Type
	}
	return formals, m.ReturnType
}

// Assign is `Name <- Value`.
type Assign struct {
	Typed
	Range
	Name  string
	Value Expr
}

// Dispatch is a method invocation.  Receiver is nil for an implicit call on
// self and CastType is "" unless the call is a static dispatch `e@T.f()`.
type Dispatch struct {
	Typed
	Range
	Receiver Expr
	CastType string
	Method   string
	Args     []Expr
}

// If is `if Cond then Then else Else fi`.
type If struct {
	Typed
	Range
	Cond Expr
	Then Expr
	Else Expr
}

// While is `while Cond loop Body pool`.
type While struct {
	Typed
	Range
	Cond Expr
	Body Expr
}

// Block is `{ e1; e2; ... }`.  Blocks are never empty.
type Block struct {
	Typed
	Range
	Body []Expr
}

// Let is `let b1, b2, ... in Body`.
type Let struct {
	Typed
	Range
	Bindings []*VarDef
	Body     Expr
}

// Case is `case Expr of branches esac`.
type Case struct {
	Typed
	Range
	Expr     Expr
	Branches []*CaseBranch
}

// CaseBranch is `name : Type => Body;`.
type CaseBranch struct {
	Range
	Decl *VarDecl
	Body Expr
}

// New is `new Type`.
type New struct {
	Typed
	Range
	Type string
}

// IsVoid is `isvoid Expr`.
type IsVoid struct {
	Typed
	Range
	Expr Expr
}

// Complement is boolean negation (`not e`) when Boolean is true and
// arithmetic negation (`~e`) otherwise.
type Complement struct {
	Typed
	Range
	Boolean bool
	Expr    Expr
}

// Paren is a parenthesized expression.
type Paren struct {
	Typed
	Range
	Expr Expr
}

// Binary is a binary operation.
type Binary struct {
	Typed
	Range
	Op    Op
	Left  Expr
	Right Expr
}

// Ident is an object identifier, including self.
type Ident struct {
	Typed
	Range
	Name string
}

// IntLit is an integer constant.
type IntLit struct {
	Typed
	Range
	Value int32
}

// BoolLit is a boolean constant.
type BoolLit struct {
	Typed
	Range
	Value bool
}

// StringLit is a string constant.  Value holds the decoded string.
type StringLit struct {
	Typed
	Range
	Value string
}

func (*Assign) exprNode()     {}
func (*Dispatch) exprNode()   {}
func (*If) exprNode()         {}
func (*While) exprNode()      {}
func (*Block) exprNode()      {}
func (*Let) exprNode()        {}
func (*Case) exprNode()       {}
func (*New) exprNode()        {}
func (*IsVoid) exprNode()     {}
func (*Complement) exprNode() {}
func (*Paren) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Ident) exprNode()      {}
func (*IntLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*StringLit) exprNode()  {}
