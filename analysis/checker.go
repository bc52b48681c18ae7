// Copyright © 2024 The ELPS authors

// Package analysis implements semantic analysis of cool programs: the class
// hierarchy table, the scope stack and the type checker.
//
// Checking stops at the first violation.  Every error returned by the
// package belongs to the ErrTypeChecking family.  Callers wanting one report
// per class can call CheckClass for each class and collect the results.
package analysis

import (
	"fmt"

	"github.com/luthersystems/cool/ast"
)

// Resolve returns currentClass when typ is SELF_TYPE and typ otherwise.
func Resolve(typ, currentClass string) string {
	if typ == ast.SelfType {
		return currentClass
	}
	return typ
}

// typeEnv is the context threaded through every typing function.
type typeEnv struct {
	hier   *Hierarchy
	class  string
	scopes *ScopeStack
	cfg    *config
}

func newEnv(hier *Hierarchy, class string, cfg *config) *typeEnv {
	return &typeEnv{
		hier:   hier,
		class:  class,
		scopes: NewScopeStack(),
		cfg:    cfg,
	}
}

// Check type checks every class of prog in program order and returns the
// first error encountered.
func Check(prog *ast.Program, hier *Hierarchy, opts ...Option) error {
	cfg := newConfig(opts)
	for _, c := range prog.Classes {
		if err := checkClass(hier, c, cfg); err != nil {
			return err
		}
	}
	return nil
}

// CheckClass type checks the class of prog called name.
func CheckClass(prog *ast.Program, hier *Hierarchy, name string, opts ...Option) error {
	c := prog.Class(name)
	if c == nil {
		return &UnknownTypeError{Name: name}
	}
	return checkClass(hier, c, newConfig(opts))
}

// TypeOf infers the static type of expr as if it appeared in a method of
// class.  The fields visible in class are in scope; field initializers are
// not checked.
func TypeOf(expr ast.Expr, hier *Hierarchy, class string, opts ...Option) (string, error) {
	if !hier.IsDefined(class) {
		return "", &UnknownTypeError{Name: class}
	}
	env := newEnv(hier, class, newConfig(opts))
	env.scopes.Push(ScopeClass, hier.Class(class))
	defer env.scopes.Pop()
	attrs, err := hier.Attributes(class)
	if err != nil {
		return "", err
	}
	for _, v := range attrs {
		if err := env.scopes.Bind(v.Decl.Name, Resolve(v.Decl.Type, class), v.Decl.Pos()); err != nil {
			return "", err
		}
	}
	return typeOf(env, expr)
}

func checkClass(hier *Hierarchy, c *ast.Class, cfg *config) (err error) {
	end := cfg.observer.Start(PhaseClass, c.Name)
	defer func() { end(err) }()

	env := newEnv(hier, c.Name, cfg)
	env.scopes.Push(ScopeClass, c)
	defer env.scopes.Pop()

	ancestors, err := hier.Ancestors(c.Name)
	if err != nil {
		return err
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := hier.Class(ancestors[i])
		if anc == nil {
			continue
		}
		for _, v := range anc.Variables() {
			if err := bindDecl(env, v.Decl); err != nil {
				return err
			}
		}
	}
	for _, v := range c.Variables() {
		if _, err := checkVarDef(env, v); err != nil {
			return err
		}
	}
	for _, m := range c.Methods() {
		if err := checkMethod(env, m); err != nil {
			return err
		}
	}
	return nil
}

func checkMethod(env *typeEnv, m *ast.Method) (err error) {
	end := env.cfg.observer.Start(PhaseMethod, env.class+"."+m.Name)
	defer func() { end(err) }()

	env.scopes.Push(ScopeMethod, m)
	defer env.scopes.Pop()
	for _, f := range m.Formals {
		if err := bindDecl(env, f); err != nil {
			return err
		}
	}
	ret := Resolve(m.ReturnType, env.class)
	if !env.hier.IsDefined(ret) {
		return &UnknownTypeError{Name: m.ReturnType, Source: m.Pos()}
	}
	body, err := typeOf(env, m.Body)
	if err != nil {
		return err
	}
	if !env.hier.Conforms(body, ret) {
		return mismatchf(m.Body, "method %s returns %s which does not conform to declared return type %s",
			m.Name, body, m.ReturnType)
	}
	return nil
}

// bindDecl resolves the declared type of d and binds d in the innermost
// scope.
func bindDecl(env *typeEnv, d *ast.VarDecl) error {
	if d.Name == ast.SelfName {
		return mismatchf(d, "cannot bind %s", ast.SelfName)
	}
	typ := Resolve(d.Type, env.class)
	if !env.hier.IsDefined(typ) {
		return &UnknownTypeError{Name: d.Type, Source: d.Pos()}
	}
	return env.scopes.Bind(d.Name, typ, d.Pos())
}

// checkVarDef checks a field or let binding and binds it in the innermost
// scope.  The initializer does not see the binding it initializes.
func checkVarDef(env *typeEnv, v *ast.VarDef) (string, error) {
	declared := Resolve(v.Decl.Type, env.class)
	if !env.hier.IsDefined(declared) {
		return "", &UnknownTypeError{Name: v.Decl.Type, Source: v.Decl.Pos()}
	}
	if v.Init != nil {
		typ, err := typeOf(env, v.Init)
		if err != nil {
			return "", err
		}
		if !env.hier.Conforms(typ, declared) {
			return "", mismatchf(v.Init, "cannot initialize %s of type %s with a value of type %s",
				v.Decl.Name, v.Decl.Type, typ)
		}
	}
	if err := bindDecl(env, v.Decl); err != nil {
		return "", err
	}
	return declared, nil
}

// typeOf infers the static type of e, caching it on the node.
func typeOf(env *typeEnv, e ast.Expr) (string, error) {
	typ, err := inferType(env, e)
	if err != nil {
		return "", err
	}
	e.SetStaticType(typ)
	return typ, nil
}

func inferType(env *typeEnv, e ast.Expr) (string, error) {
	switch e := e.(type) {
	case *ast.Assign:
		return typeAssign(env, e)
	case *ast.Dispatch:
		return typeDispatch(env, e)
	case *ast.If:
		return typeIf(env, e)
	case *ast.While:
		if err := expectType(env, e.Cond, BoolType, "loop condition"); err != nil {
			return "", err
		}
		if _, err := typeOf(env, e.Body); err != nil {
			return "", err
		}
		return RootType, nil
	case *ast.Block:
		var typ string
		for _, x := range e.Body {
			var err error
			typ, err = typeOf(env, x)
			if err != nil {
				return "", err
			}
		}
		return typ, nil
	case *ast.Let:
		return typeLet(env, e)
	case *ast.Case:
		return typeCase(env, e)
	case *ast.New:
		typ := Resolve(e.Type, env.class)
		if !env.hier.IsDefined(typ) {
			return "", &UnknownTypeError{Name: e.Type, Source: e.Pos()}
		}
		return typ, nil
	case *ast.IsVoid:
		if _, err := typeOf(env, e.Expr); err != nil {
			return "", err
		}
		return BoolType, nil
	case *ast.Complement:
		if e.Boolean {
			return BoolType, expectType(env, e.Expr, BoolType, "operand of not")
		}
		return IntType, expectType(env, e.Expr, IntType, "operand of ~")
	case *ast.Paren:
		return typeOf(env, e.Expr)
	case *ast.Binary:
		return typeBinary(env, e)
	case *ast.Ident:
		if e.Name == ast.SelfName {
			return env.class, nil
		}
		typ, ok := env.scopes.Lookup(e.Name)
		if !ok {
			return "", mismatchf(e, "undefined identifier %s", e.Name)
		}
		return typ, nil
	case *ast.IntLit:
		return IntType, nil
	case *ast.BoolLit:
		return BoolType, nil
	case *ast.StringLit:
		return StringType, nil
	}
	panic(fmt.Sprintf("analysis: unexpected expression type %T", e))
}

func expectType(env *typeEnv, e ast.Expr, want string, what string) error {
	typ, err := typeOf(env, e)
	if err != nil {
		return err
	}
	if typ != want {
		return mismatchf(e, "%s must have type %s, not %s", what, want, typ)
	}
	return nil
}

func typeAssign(env *typeEnv, e *ast.Assign) (string, error) {
	if e.Name == ast.SelfName {
		return "", mismatchf(e, "cannot assign to %s", ast.SelfName)
	}
	target, ok := env.scopes.Lookup(e.Name)
	if !ok {
		return "", mismatchf(e, "assignment to undefined identifier %s", e.Name)
	}
	typ, err := typeOf(env, e.Value)
	if err != nil {
		return "", err
	}
	if !env.hier.Conforms(typ, target) {
		return "", mismatchf(e, "cannot assign a value of type %s to %s of type %s", typ, e.Name, target)
	}
	return typ, nil
}

func typeDispatch(env *typeEnv, e *ast.Dispatch) (string, error) {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		typ, err := typeOf(env, arg)
		if err != nil {
			return "", err
		}
		args[i] = typ
	}
	lookup := env.class
	if e.Receiver != nil {
		recv, err := typeOf(env, e.Receiver)
		if err != nil {
			return "", err
		}
		lookup = recv
		if e.CastType != "" {
			cast := Resolve(e.CastType, env.class)
			if !env.hier.IsDefined(cast) {
				return "", &UnknownTypeError{Name: e.CastType, Source: e.Pos()}
			}
			if !env.hier.Conforms(recv, cast) {
				return "", mismatchf(e, "receiver of type %s does not conform to static type %s", recv, e.CastType)
			}
			lookup = cast
		}
	}
	m, _, err := env.hier.LookupMethod(lookup, e.Method)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", mismatchf(e, "undefined method %s in class %s", e.Method, lookup)
	}
	if len(args) != len(m.Formals) {
		return "", mismatchf(e, "method %s expects %d arguments but %d were supplied",
			e.Method, len(m.Formals), len(args))
	}
	for i, f := range m.Formals {
		want := Resolve(f.Type, lookup)
		if !env.hier.Conforms(args[i], want) {
			return "", mismatchf(e.Args[i], "argument %d of %s has type %s which does not conform to %s",
				i+1, e.Method, args[i], f.Type)
		}
	}
	return Resolve(m.ReturnType, lookup), nil
}

func typeIf(env *typeEnv, e *ast.If) (string, error) {
	if err := expectType(env, e.Cond, BoolType, "if condition"); err != nil {
		return "", err
	}
	then, err := typeOf(env, e.Then)
	if err != nil {
		return "", err
	}
	els, err := typeOf(env, e.Else)
	if err != nil {
		return "", err
	}
	return env.hier.LeastUpperBound(then, els)
}

func typeLet(env *typeEnv, e *ast.Let) (string, error) {
	env.scopes.Push(ScopeLet, e)
	defer env.scopes.Pop()
	for _, b := range e.Bindings {
		if _, err := checkVarDef(env, b); err != nil {
			return "", err
		}
	}
	return typeOf(env, e.Body)
}

func typeCase(env *typeEnv, e *ast.Case) (string, error) {
	if _, err := typeOf(env, e.Expr); err != nil {
		return "", err
	}
	types := make([]string, len(e.Branches))
	for i, b := range e.Branches {
		typ, err := typeBranch(env, b)
		if err != nil {
			return "", err
		}
		types[i] = typ
	}
	return env.hier.LeastUpperBound(types...)
}

func typeBranch(env *typeEnv, b *ast.CaseBranch) (string, error) {
	env.scopes.Push(ScopeCase, b)
	defer env.scopes.Pop()
	if err := bindDecl(env, b.Decl); err != nil {
		return "", err
	}
	return typeOf(env, b.Body)
}

func typeBinary(env *typeEnv, e *ast.Binary) (string, error) {
	left, err := typeOf(env, e.Left)
	if err != nil {
		return "", err
	}
	right, err := typeOf(env, e.Right)
	if err != nil {
		return "", err
	}
	switch {
	case e.Op.IsArithmetic(), e.Op.IsRelational():
		if left != IntType || right != IntType {
			return "", mismatchf(e, "operands of %v must have type %s, not %s and %s", e.Op, IntType, left, right)
		}
		if e.Op.IsRelational() {
			return BoolType, nil
		}
		return IntType, nil
	case e.Op.IsEquality():
		if left != right {
			return "", mismatchf(e, "cannot compare %s with %s", left, right)
		}
		return BoolType, nil
	}
	return "", mismatchf(e, "invalid operator %v", e.Op)
}
