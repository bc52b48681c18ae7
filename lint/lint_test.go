// Copyright © 2024 The ELPS authors

package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/luthersystems/cool/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: DefaultAnalyzers()}
	diags, err := l.LintFile([]byte(source), "test.cl")
	require.NoError(t, err)
	return diags
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}}
	diags, err := l.LintFile([]byte(source), "test.cl")
	require.NoError(t, err)
	return diags
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, msgs)
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), msgs)
	}
}

// assertDiagOnLine checks that a diagnostic exists on the given line with the given substring.
func assertDiagOnLine(t *testing.T, diags []Diagnostic, line int, substr string) {
	t.Helper()
	for _, d := range diags {
		if d.Pos.Line == line && strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, fmt.Sprintf("line %d: %s", d.Pos.Line, d.Message))
	}
	t.Errorf("expected diagnostic on line %d containing %q, got: %v", line, substr, msgs)
}

// --- Position.String() ---

func TestPosition_String_FileOnly(t *testing.T) {
	p := Position{File: "test.cl"}
	assert.Equal(t, "test.cl", p.String())
}

func TestPosition_String_FileLine(t *testing.T) {
	p := Position{File: "test.cl", Line: 10}
	assert.Equal(t, "test.cl:10", p.String())
}

func TestPosition_String_FileLineCol(t *testing.T) {
	p := Position{File: "test.cl", Line: 10, Col: 5}
	assert.Equal(t, "test.cl:10:5", p.String())
}

// --- Diagnostic.String() ---

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.cl", Line: 10},
		Message:  "self-assignment of x",
		Analyzer: "self-assign",
	}
	assert.Equal(t, "test.cl:10: self-assignment of x (self-assign)", d.String())
}

func TestDiagnostic_String_WithNotes(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.cl", Line: 2, Col: 3},
		Message:  "main method must take no arguments",
		Analyzer: "main-method",
		Notes:    []string{"declare main() : Object { ... }"},
	}
	assert.Equal(t, "test.cl:2:3: main method must take no arguments (main-method)\n  = note: declare main() : Object { ... }", d.String())
}

// --- Analyzer error propagation ---

func TestLintFile_AnalyzerError(t *testing.T) {
	errAnalyzer := &Analyzer{
		Name: "fail",
		Doc:  "Always fails.",
		Run: func(pass *Pass) error {
			return fmt.Errorf("intentional failure")
		},
	}
	l := &Linter{Analyzers: []*Analyzer{errAnalyzer}}
	_, err := l.LintFile([]byte("class A { };"), "test.cl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional failure")
	assert.Contains(t, err.Error(), "fail")
}

func TestParseError(t *testing.T) {
	l := &Linter{Analyzers: DefaultAnalyzers()}
	_, err := l.LintFile([]byte("class A { x : Int }"), "test.cl")
	require.Error(t, err)
	var locErr *token.LocationError
	assert.ErrorAs(t, err, &locErr)
	assert.True(t, strings.HasPrefix(err.Error(), "test.cl: "), err.Error())
}

// --- typecheck ---

func TestTypeCheck_Positive_EachClass(t *testing.T) {
	source := `class A {
  f() : Int { true };
};
class B {
  g() : Bool { 1 };
};
class C {
  h() : Int { 1 };
};`
	diags := lintCheck(t, AnalyzerTypeCheck, source)
	require.Len(t, diags, 2)
	assertDiagOnLine(t, diags, 2, "method f returns Bool")
	assertDiagOnLine(t, diags, 5, "method g returns Int")
	assert.Equal(t, []string{"TypeMismatchError"}, diags[0].Notes)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestTypeCheck_Positive_Hierarchy(t *testing.T) {
	diags := lintCheck(t, AnalyzerTypeCheck, "class A inherits Missing { };")
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined type Missing", diags[0].Message)
	assert.Equal(t, "test.cl:1:1", diags[0].Pos.String())
}

func TestTypeCheck_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerTypeCheck, `class Main inherits IO {
  main() : SELF_TYPE { out_string("hi\n") };
};`))
}

// --- inherit-basic ---

func TestInheritBasic_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerInheritBasic, "class A inherits Int { };\nclass B inherits SELF_TYPE { };")
	assertDiagOnLine(t, diags, 1, "class A inherits from basic class Int")
	assertDiagOnLine(t, diags, 2, "cannot inherit from SELF_TYPE")
}

func TestInheritBasic_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerInheritBasic, "class A inherits IO { };\nclass B { };"))
}

// --- override-signature ---

func TestOverrideSignature_Positive_Arity(t *testing.T) {
	source := `class A {
  f(x : Int) : Int { x };
};
class B inherits A {
  f() : Int { 1 };
};`
	diags := lintCheck(t, AnalyzerOverrideSignature, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 5, "method f takes 0 formals but overrides A.f which takes 1")
}

func TestOverrideSignature_Positive_Types(t *testing.T) {
	source := `class A {
  f(x : Int) : Int { x };
};
class B inherits A {
  f(x : Bool) : Object { x };
};`
	diags := lintCheck(t, AnalyzerOverrideSignature, source)
	require.Len(t, diags, 2)
	assertDiagOnLine(t, diags, 5, "formal x of f has type Bool but A.f declares Int")
	assertDiagOnLine(t, diags, 5, "method f returns Object but overrides A.f which returns Int")
}

func TestOverrideSignature_Positive_Basic(t *testing.T) {
	diags := lintCheck(t, AnalyzerOverrideSignature, "class A {\n  type_name() : Int { 1 };\n};")
	assertDiagOnLine(t, diags, 2, "overrides Object.type_name which returns String")
}

func TestOverrideSignature_Negative(t *testing.T) {
	source := `class A {
  f(x : Int) : Int { x };
};
class B inherits A {
  f(y : Int) : Int { y + 1 };
  g() : Int { 2 };
};`
	assertNoDiags(t, lintCheck(t, AnalyzerOverrideSignature, source))
}

func TestOverrideSignature_Negative_NoHierarchy(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerOverrideSignature, "class A inherits Missing { f() : Int { 1 }; };"))
}

// --- duplicate-case-branch ---

func TestDuplicateCaseBranch_Positive(t *testing.T) {
	source := `class A {
  f(x : Object) : Int {
    case x of
      a : Int => a;
      b : Int => 2;
    esac
  };
};`
	diags := lintCheck(t, AnalyzerDuplicateCaseBranch, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 5, "case branch type Int appears more than once")
}

func TestDuplicateCaseBranch_Negative(t *testing.T) {
	source := `class A {
  f(x : Object) : Object {
    case x of a : Int => a; b : String => b; c : Object => c; esac
  };
};`
	assertNoDiags(t, lintCheck(t, AnalyzerDuplicateCaseBranch, source))
}

// --- unused-let ---

func TestUnusedLet_Positive(t *testing.T) {
	source := `class A {
  f() : Int {
    let x : Int <- 1,
        y : Int <- 2 in y
  };
};`
	diags := lintCheck(t, AnalyzerUnusedLet, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 3, "let-bound identifier x is never used")
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestUnusedLet_Positive_AssignOnly(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedLet, "class A { f() : Int { let x : Int in x <- 3 }; };")
	assertHasDiag(t, diags, "let-bound identifier x is never used")
}

func TestUnusedLet_Negative_LaterInit(t *testing.T) {
	source := "class A { f() : Int { let x : Int <- 1, y : Int <- x + 1 in y }; };"
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedLet, source))
}

// --- self-assign ---

func TestSelfAssign_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerSelfAssign, "class A {\n  x : Int;\n  f() : Int { x <- (x) };\n};")
	assertDiagOnLine(t, diags, 3, "self-assignment of x")
}

func TestSelfAssign_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerSelfAssign, "class A { x : Int; f() : Int { x <- x + 1 }; };"))
}

// --- constant-condition ---

func TestConstantCondition_Positive(t *testing.T) {
	source := `class A {
  f() : Int { if true then 1 else 2 fi };
  g() : Object { while (false) loop 1 pool };
};`
	diags := lintCheck(t, AnalyzerConstantCondition, source)
	assertDiagOnLine(t, diags, 2, "condition is always true")
	assertDiagOnLine(t, diags, 3, "loop body never runs")
}

func TestConstantCondition_Negative_WhileTrue(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerConstantCondition, "class A { g() : Object { while true loop 1 pool }; };"))
}

// --- main-method ---

func TestMainMethod_Positive_Missing(t *testing.T) {
	diags := lintCheck(t, AnalyzerMainMethod, "class Main { f() : Int { 1 }; };")
	assertDiagOnLine(t, diags, 1, "class Main has no main method")
}

func TestMainMethod_Positive_Formals(t *testing.T) {
	diags := lintCheck(t, AnalyzerMainMethod, "class Main {\n  main(x : Int) : Int { x };\n};")
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 2, "main method must take no arguments")
	assert.NotEmpty(t, diags[0].Notes)
}

func TestMainMethod_Negative_Inherited(t *testing.T) {
	source := "class Base { main() : Object { 0 }; };\nclass Main inherits Base { };"
	assertNoDiags(t, lintCheck(t, AnalyzerMainMethod, source))
}

func TestMainMethod_Negative_NoMain(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerMainMethod, "class A { };"))
}

// --- nolint ---

func TestNolint_SuppressAll(t *testing.T) {
	source := "class A { x : Int; f() : Int { x <- x }; }; -- nolint"
	assertNoDiags(t, lintCheck(t, AnalyzerSelfAssign, source))
}

func TestNolint_SuppressSpecific(t *testing.T) {
	source := "class A { x : Int; f() : Int { x <- x }; }; -- nolint:self-assign"
	assertNoDiags(t, lintCheck(t, AnalyzerSelfAssign, source))
}

func TestNolint_DifferentCheck(t *testing.T) {
	source := "class A { x : Int; f() : Int { x <- x }; }; -- nolint:unused-let"
	assertHasDiag(t, lintCheck(t, AnalyzerSelfAssign, source), "self-assignment")
}

func TestNolint_BlockComment(t *testing.T) {
	source := "class A { x : Int; f() : Int { x <- x }; }; (* nolint:unused-let, self-assign *)"
	assertNoDiags(t, lintCheck(t, AnalyzerSelfAssign, source))
}

func TestNolint_RegularCommentDoesNotSuppress(t *testing.T) {
	source := "class A { x : Int; f() : Int { x <- x }; }; -- not a directive"
	assertHasDiag(t, lintCheck(t, AnalyzerSelfAssign, source), "self-assignment")
}

func TestNolintDirectives(t *testing.T) {
	lines := nolintDirectives([]byte("a\n-- nolint\nb (* nolint:x,y *)\n-- nolint:z"))
	assert.Equal(t, map[int]string{2: "", 3: "x,y", 4: "z"}, lines)
}

// --- output ---

func TestFormatText(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "a.cl", Line: 1}, Message: "msg one", Analyzer: "check-a"},
		{Pos: Position{File: "a.cl", Line: 5}, Message: "msg two", Analyzer: "check-b"},
	}
	var buf bytes.Buffer
	require.NoError(t, FormatText(&buf, diags))
	assert.Equal(t, "a.cl:1: msg one (check-a)\na.cl:5: msg two (check-b)\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "a.cl", Line: 1, Col: 2}, Message: "msg", Analyzer: "check", Severity: SeverityError},
	}
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, diags))
	var decoded []Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, diags, decoded)
	assert.Contains(t, buf.String(), `"severity": "error"`)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown", Severity(99).String())
}

func TestSeverity_UnsetMarshalsAsWarning(t *testing.T) {
	b, err := json.Marshal(Diagnostic{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"warning"`)
	var s Severity
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
}

// --- integration ---

func TestIntegration_MultipleFindings(t *testing.T) {
	source := `class Main inherits IO {
  x : Int;
  main() : Object {
    let unused : Int <- 1 in {
      x <- x;
      if false then out_string("a") else out_string("b") fi;
    }
  };
};
class Num inherits Int { };`
	diags := lintSource(t, source)
	assertDiagOnLine(t, diags, 4, "let-bound identifier unused is never used")
	assertDiagOnLine(t, diags, 5, "self-assignment of x")
	assertDiagOnLine(t, diags, 6, "condition is always false")
	assertDiagOnLine(t, diags, 10, "inherits from basic class Int")
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Pos.Line, diags[i].Pos.Line, "sorted by line")
	}
}

func TestIntegration_CleanCode(t *testing.T) {
	source := `class Main inherits IO {
  main() : Object {
    let n : Int <- in_int() in
      if n < 0 then out_string("negative\n") else out_int(n) fi
  };
};`
	assertNoDiags(t, lintSource(t, source))
}

func TestLintFile_FileNameBackfill(t *testing.T) {
	a := &Analyzer{
		Name: "always",
		Run: func(pass *Pass) error {
			pass.Report(Diagnostic{Message: "found", Pos: Position{Line: 1}})
			pass.Reportf(nil, "no source")
			return nil
		},
	}
	l := &Linter{Analyzers: []*Analyzer{a}}
	diags, err := l.LintFile([]byte("class A { };"), "back.cl")
	require.NoError(t, err)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, "back.cl", d.Pos.File)
		assert.Equal(t, "always", d.Analyzer)
	}
}

func TestSelectAnalyzers(t *testing.T) {
	all, err := SelectAnalyzers(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalyzers(), all)

	selected, err := SelectAnalyzers([]string{"unused-let", " typecheck"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Same(t, AnalyzerUnusedLet, selected[0])
	assert.Same(t, AnalyzerTypeCheck, selected[1])

	_, err = SelectAnalyzers([]string{"bogus"})
	assert.EqualError(t, err, "unknown lint check: bogus")
}

func TestAnalyzerDoc(t *testing.T) {
	names := make(map[string]bool)
	for _, a := range DefaultAnalyzers() {
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.Doc, a.Name)
		assert.NotEqual(t, Severity(0), a.Severity, a.Name)
		assert.False(t, names[a.Name], "duplicate analyzer %s", a.Name)
		names[a.Name] = true
	}
}
