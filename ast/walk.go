// Copyright © 2024 The ELPS authors

package ast

import "fmt"

// Visitor is implemented by passes over the syntax tree.  Visit is called
// when a node is entered.  If Visit returns true the node's children are
// walked in field order.  Leave is called after the children (or directly
// after Visit when the children are skipped).
type Visitor interface {
	Visit(n Node) bool
	Leave(n Node)
}

// Walk traverses the tree rooted at n in depth-first order.
func Walk(v Visitor, n Node) {
	if v.Visit(n) {
		for _, child := range Children(n) {
			Walk(v, child)
		}
	}
	v.Leave(n)
}

type inspector func(Node) bool

func (fn inspector) Visit(n Node) bool { return fn(n) }
func (fn inspector) Leave(Node)        {}

// Inspect traverses the tree rooted at n calling fn for each node on entry.
// Children are skipped when fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	Walk(inspector(fn), n)
}

// Children returns the child nodes of n in field order.  Absent optional
// children (an initializer, an implicit receiver) are omitted.  Children
// panics if n is not a node type declared in this package.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		nodes := make([]Node, len(n.Classes))
		for i := range n.Classes {
			nodes[i] = n.Classes[i]
		}
		return nodes
	case *Class:
		nodes := make([]Node, 0, len(n.Features))
		for _, v := range n.Variables() {
			nodes = append(nodes, v)
		}
		for _, m := range n.Methods() {
			nodes = append(nodes, m)
		}
		return nodes
	case *VarDef:
		return appendNonNil([]Node{n.Decl}, n.Init)
	case *VarDecl:
		return nil
	case *Method:
		nodes := make([]Node, 0, len(n.Formals)+1)
		for _, f := range n.Formals {
			nodes = append(nodes, f)
		}
		return append(nodes, n.Body)
	case *CaseBranch:
		return []Node{n.Decl, n.Body}
	case *Assign:
		return []Node{n.Value}
	case *Dispatch:
		nodes := appendNonNil(nil, n.Receiver)
		for _, arg := range n.Args {
			nodes = append(nodes, arg)
		}
		return nodes
	case *If:
		return []Node{n.Cond, n.Then, n.Else}
	case *While:
		return []Node{n.Cond, n.Body}
	case *Block:
		nodes := make([]Node, len(n.Body))
		for i := range n.Body {
			nodes[i] = n.Body[i]
		}
		return nodes
	case *Let:
		nodes := make([]Node, 0, len(n.Bindings)+1)
		for _, b := range n.Bindings {
			nodes = append(nodes, b)
		}
		return append(nodes, n.Body)
	case *Case:
		nodes := make([]Node, 0, len(n.Branches)+1)
		nodes = append(nodes, n.Expr)
		for _, b := range n.Branches {
			nodes = append(nodes, b)
		}
		return nodes
	case *IsVoid:
		return []Node{n.Expr}
	case *Complement:
		return []Node{n.Expr}
	case *Paren:
		return []Node{n.Expr}
	case *Binary:
		return []Node{n.Left, n.Right}
	case *New, *Ident, *IntLit, *BoolLit, *StringLit:
		return nil
	}
	panic(fmt.Sprintf("ast: unexpected node type %T", n))
}

func appendNonNil(nodes []Node, e Expr) []Node {
	if e == nil {
		return nodes
	}
	return append(nodes, e)
}

// Kind returns a short human readable name for the construct n represents.
func Kind(n Node) string {
	switch n.(type) {
	case *Program:
		return "program"
	case *Class:
		return "class"
	case *VarDef:
		return "variable definition"
	case *VarDecl:
		return "declaration"
	case *Method:
		return "method"
	case *CaseBranch:
		return "case branch"
	case *Assign:
		return "assignment"
	case *Dispatch:
		return "method call"
	case *If:
		return "conditional"
	case *While:
		return "loop"
	case *Block:
		return "block"
	case *Let:
		return "let"
	case *Case:
		return "case"
	case *New:
		return "new"
	case *IsVoid:
		return "isvoid"
	case *Complement:
		return "complement"
	case *Paren:
		return "parenthesized expression"
	case *Binary:
		return "binary operation"
	case *Ident:
		return "identifier"
	case *IntLit:
		return "integer constant"
	case *BoolLit:
		return "boolean constant"
	case *StringLit:
		return "string constant"
	}
	return fmt.Sprintf("%T", n)
}

// Op is a binary operator.
type Op uint

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLT
	OpLE
	OpEQ
	numOps
)

var opStrings = [numOps]string{
	OpInvalid: "invalid",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpLT:      "<",
	OpLE:      "<=",
	OpEQ:      "=",
}

func (op Op) String() string {
	if op >= numOps {
		return opStrings[OpInvalid]
	}
	return opStrings[op]
}

// IsArithmetic reports whether op is one of + - * /.
func (op Op) IsArithmetic() bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpDiv
}

// IsRelational reports whether op is < or <=.
func (op Op) IsRelational() bool {
	return op == OpLT || op == OpLE
}

// IsEquality reports whether op is =.
func (op Op) IsEquality() bool {
	return op == OpEQ
}
