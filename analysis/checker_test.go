// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/parser"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/luthersystems/cool/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClasses is a small hierarchy used by the expression tests.
//
//	Object <- C <- A <- Sub
//	          C <- B
const testClasses = `
class C {
	c : Int <- 0;
	me() : SELF_TYPE { self };
	one(x : Int) : Int { x };
};
class A inherits C {
	a : String;
	pick(x : C, y : Bool) : C { x };
};
class B inherits C { };
class Sub inherits A { };
class Main inherits IO {
	main() : Object { out_string("hello") };
};
`

func load(t *testing.T, src string) (*ast.Program, *Hierarchy) {
	t.Helper()
	prog, err := parser.Parse("test.cl", strings.NewReader(src))
	require.NoError(t, err)
	prog.Classes = append(BasicClasses(), prog.Classes...)
	h, err := BuildHierarchy(prog)
	require.NoError(t, err)
	return prog, h
}

func typeOfSource(t *testing.T, h *Hierarchy, class, src string) (string, error) {
	t.Helper()
	expr, err := rdparser.New(token.NewScanner("expr", strings.NewReader(src))).ParseExpression()
	require.NoError(t, err, src)
	return TypeOf(expr, h, class)
}

func TestCheckTestClasses(t *testing.T) {
	prog, h := load(t, testClasses)
	assert.NoError(t, Check(prog, h))
}

func TestTypeOf(t *testing.T) {
	_, h := load(t, testClasses)
	tests := []struct {
		class string
		expr  string
		typ   string
	}{
		{"Main", `1`, "Int"},
		{"Main", `"s"`, "String"},
		{"Main", `true`, "Bool"},
		{"Main", `self`, "Main"},
		{"Main", `let x : Int <- 5 in x + 1`, "Int"},
		{"Main", `if 1 < 2 then "a" else "b" fi`, "String"},
		{"Main", `if 1 < 2 then new A else new B fi`, "C"},
		{"Main", `if true then new Sub else new A fi`, "A"},
		{"Main", `if true then 1 else "x" fi`, "Object"},
		{"Main", `while false loop 1 pool`, "Object"},
		{"Main", `{ 1; "two"; }`, "String"},
		{"Main", `isvoid new A`, "Bool"},
		{"Main", `not true`, "Bool"},
		{"Main", `~3`, "Int"},
		{"Main", `(1 + 2) * 3 / 4 - 5`, "Int"},
		{"Main", `1 <= 2`, "Bool"},
		{"Main", `"a" = "b"`, "Bool"},
		{"Main", `new A = new A`, "Bool"},
		{"Main", `new SELF_TYPE`, "Main"},
		{"Main", `let x : C in x <- new Sub`, "Sub"},
		{"Main", `let x : Int, y : Int <- x in y`, "Int"},
		{"Main", `let x : Int in let x : String in x`, "String"},
		{"Main", `case new A of a : A => a; b : B => b; esac`, "C"},
		{"Main", `case 1 of i : Int => i; s : String => s; esac`, "Object"},
		{"Main", `(new Sub).me()`, "Sub"},
		{"Main", `(new Sub)@C.me()`, "C"},
		{"Main", `(new Sub)@A.me()`, "A"},
		{"Main", `(new A).one(1)`, "Int"},
		{"Main", `(new A).pick(new Sub, true)`, "C"},
		{"Main", `out_string("x")`, "Main"},
		{"Main", `out_int(1).out_string("y")`, "Main"},
		{"Main", `"abc".substr(0, 1).concat("d").length()`, "Int"},
		{"Main", `copy()`, "Main"},
		{"Main", `type_name()`, "String"},
		{"A", `a`, "String"},
		{"A", `c + 1`, "Int"},
		{"A", `me()`, "A"},
		{"Sub", `me()`, "Sub"},
		{"Sub", `pick(self, false)`, "C"},
	}
	for i, test := range tests {
		typ, err := typeOfSource(t, h, test.class, test.expr)
		if assert.NoError(t, err, "test %d: %s", i, test.expr) {
			assert.Equal(t, test.typ, typ, "test %d: %s", i, test.expr)
		}
	}
}

func TestTypeOfErrors(t *testing.T) {
	_, h := load(t, testClasses)
	tests := []struct {
		class string
		expr  string
		kind  string
		msg   string
	}{
		{"Main", `x`, "TypeMismatchError", "undefined identifier x"},
		{"Main", `x <- 1`, "TypeMismatchError", "assignment to undefined identifier x"},
		{"Main", `self <- new Main`, "TypeMismatchError", "cannot assign to self"},
		{"Main", `let x : Sub <- new A in x`, "TypeMismatchError", "cannot initialize x of type Sub with a value of type A"},
		{"Main", `let x : A in x <- new B`, "TypeMismatchError", "cannot assign a value of type B to x of type A"},
		{"Main", `let x : Missing in x`, "UnknownTypeError", "undefined type Missing"},
		{"Main", `let x : Int, x : Int in x`, "DuplicateBindingError", "identifier x is already defined in this let scope"},
		{"Main", `let self : Int in 1`, "TypeMismatchError", "cannot bind self"},
		{"Main", `new Missing`, "UnknownTypeError", "undefined type Missing"},
		{"Main", `if 1 then 2 else 3 fi`, "TypeMismatchError", "if condition must have type Bool, not Int"},
		{"Main", `while "x" loop 1 pool`, "TypeMismatchError", "loop condition must have type Bool, not String"},
		{"Main", `not 1`, "TypeMismatchError", "operand of not must have type Bool, not Int"},
		{"Main", `~true`, "TypeMismatchError", "operand of ~ must have type Int, not Bool"},
		{"Main", `1 + "a"`, "TypeMismatchError", "operands of + must have type Int, not Int and String"},
		{"Main", `"a" < "b"`, "TypeMismatchError", "operands of < must have type Int, not String and String"},
		{"Main", `1 = "1"`, "TypeMismatchError", "cannot compare Int with String"},
		{"Main", `new A = new B`, "TypeMismatchError", "cannot compare A with B"},
		{"Main", `(new A).one(1, 2)`, "TypeMismatchError", "method one expects 1 arguments but 2 were supplied"},
		{"Main", `(new A).one("x")`, "TypeMismatchError", "argument 1 of one has type String which does not conform to Int"},
		{"Main", `(new A).missing()`, "TypeMismatchError", "undefined method missing in class A"},
		{"Main", `(new C)@A.one(1)`, "TypeMismatchError", "receiver of type C does not conform to static type A"},
		{"Main", `(new C)@Missing.one(1)`, "UnknownTypeError", "undefined type Missing"},
		{"Main", `case 1 of x : Missing => x; esac`, "UnknownTypeError", "undefined type Missing"},
		{"A", `a + 1`, "TypeMismatchError", "operands of + must have type Int, not String and Int"},
		{"Nope", `1`, "UnknownTypeError", "undefined type Nope"},
	}
	for i, test := range tests {
		_, err := typeOfSource(t, h, test.class, test.expr)
		if !assert.Error(t, err, "test %d: %s", i, test.expr) {
			continue
		}
		assert.ErrorIs(t, err, ErrTypeChecking, "test %d", i)
		assert.Equal(t, test.kind, ErrorKind(err), "test %d: %s", i, test.expr)
		assert.Equal(t, test.msg, err.Error(), "test %d: %s", i, test.expr)
	}
}

func TestTypeMismatchCarriesNode(t *testing.T) {
	_, h := load(t, testClasses)
	_, err := typeOfSource(t, h, "Main", `1 + (2 + "x")`)
	var mis *TypeMismatchError
	require.True(t, errors.As(err, &mis))
	bin, ok := mis.Node.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	assert.Equal(t, "expr:1:6", mis.Source.String())
}

func TestStaticTypesCached(t *testing.T) {
	prog, h := load(t, testClasses+`
class Cache {
	f() : C { let x : C <- new Sub in if true then x else new B fi };
};`)
	require.NoError(t, CheckClass(prog, h, "Cache"))
	body := prog.Class("Cache").Method("f").Body
	let := body.(*ast.Let)
	assert.Equal(t, "C", let.StaticType())
	assert.Equal(t, "Sub", let.Bindings[0].Init.StaticType())
	ast.Inspect(body, func(n ast.Node) bool {
		if e, ok := n.(ast.Expr); ok {
			assert.NotEmpty(t, e.StaticType(), "%s has no static type", ast.Kind(n))
		}
		return true
	})
}

func TestCheckPrograms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   string
	}{
		{"ok", `class Main { main() : Int { 0 }; };`, ""},
		{"return mismatch", `class Main { main() : Int { "a" }; };`, "TypeMismatchError"},
		{"return subtype", `class Main { main() : Object { 1 }; };`, ""},
		{"self type return", `class Main { main() : SELF_TYPE { self }; };`, ""},
		{"self type return new", `class Main { main() : SELF_TYPE { new Main }; };`, ""},
		{"unknown return", `class Main { main() : Missing { 0 }; };`, "UnknownTypeError"},
		{"unknown formal", `class Main { main(x : Missing) : Int { 0 }; };`, "UnknownTypeError"},
		{"duplicate formal", `class Main { main(x : Int, x : Int) : Int { 0 }; };`, "DuplicateBindingError"},
		{"self formal", `class Main { main(self : Int) : Int { 0 }; };`, "TypeMismatchError"},
		{"formal shadows field", `class Main { x : String; main(x : Int) : Int { x }; };`, ""},
		{"duplicate field", `class Main { x : Int; x : Int; };`, "DuplicateBindingError"},
		{"redefined inherited field", `class P { x : Int; }; class Main inherits P { x : Int; };`, "DuplicateBindingError"},
		{"inherited field visible", `class P { x : Int; }; class Main inherits P { f() : Int { x }; };`, ""},
		{"field init sees earlier field", `class Main { x : Int <- 1; y : Int <- x; };`, ""},
		{"field init mismatch", `class Main { x : Int <- "s"; };`, "TypeMismatchError"},
		{"self type field", `class Main { x : SELF_TYPE <- self; };`, ""},
		{"unknown field type", `class Main { x : Missing; };`, "UnknownTypeError"},
		{"method sees fields", `class Main { x : Int; f() : Int { x <- 3 }; };`, ""},
		{"recursive call", `class Main { f(n : Int) : Int { if n = 0 then 1 else n * f(n - 1) fi }; };`, ""},
		{"unknown parent", `class Main inherits Missing { };`, "UnknownTypeError"},
		{"duplicate class", `class Main { }; class Main { };`, "DuplicateTypeError"},
		{"duplicate builtin", `class IO { };`, "DuplicateTypeError"},
		{"cycle", `class A inherits B { }; class B inherits A { };`, "NonTerminatingHierarchyError"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prog, err := parser.Parse("test.cl", strings.NewReader(test.source))
			require.NoError(t, err)
			prog.Classes = append(BasicClasses(), prog.Classes...)
			h, err := BuildHierarchy(prog)
			if err == nil {
				err = Check(prog, h)
			}
			if test.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, test.kind, ErrorKind(err), "%v", err)
			assert.NotNil(t, ErrorSource(err), "%v", err)
		})
	}
}

func TestCheckStopsAtFirstError(t *testing.T) {
	prog, h := load(t, `
class First { f() : Int { "a" }; };
class Second { g() : Int { true }; };
`)
	err := Check(prog, h)
	var mis *TypeMismatchError
	require.True(t, errors.As(err, &mis))
	assert.Equal(t, 2, mis.Source.Line)

	// Checking a single class reports only that class.
	err = CheckClass(prog, h, "Second")
	require.True(t, errors.As(err, &mis))
	assert.Equal(t, 3, mis.Source.Line)

	err = CheckClass(prog, h, "Third")
	assert.Equal(t, "UnknownTypeError", ErrorKind(err))
}

// The hierarchy is read-only during checking and checks of the same
// program leave no state behind.
func TestCheckRepeatable(t *testing.T) {
	prog, h := load(t, testClasses)
	types := fmt.Sprint(h.Types())
	for i := 0; i < 3; i++ {
		require.NoError(t, Check(prog, h))
	}
	assert.Equal(t, types, fmt.Sprint(h.Types()))
}

type phaseRecorder struct {
	events []string
}

func (r *phaseRecorder) Start(phase Phase, name string) func(error) {
	r.events = append(r.events, "start "+phase.String()+" "+name)
	return func(err error) {
		r.events = append(r.events, fmt.Sprintf("end %s %s %v", phase, name, err != nil))
	}
}

func TestObserver(t *testing.T) {
	prog, err := parser.Parse("test.cl", strings.NewReader(`class Main { x : Int; main() : Int { x }; };`))
	require.NoError(t, err)
	prog.Classes = append(BasicClasses(), prog.Classes...)
	rec := &phaseRecorder{}
	h, err := BuildHierarchy(prog, WithObserver(rec))
	require.NoError(t, err)
	require.NoError(t, CheckClass(prog, h, "Main", WithObserver(rec)))
	assert.Equal(t, []string{
		"start build-hierarchy ",
		"end build-hierarchy  false",
		"start check-class Main",
		"start check-method Main.main",
		"end check-method Main.main false",
		"end check-class Main false",
	}, rec.events)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "A", Resolve("SELF_TYPE", "A"))
	assert.Equal(t, "Int", Resolve("Int", "A"))
}
