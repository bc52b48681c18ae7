// Copyright © 2024 The ELPS authors

package lint

import (
	"sort"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/astutil"
	"github.com/luthersystems/cool/coolutil"
)

// AnalyzerTypeCheck reports the first type error of each class in the file.
// Unlike the check command it does not stop at the first failing class.
var AnalyzerTypeCheck = &Analyzer{
	Name:     "typecheck",
	Doc:      "Report type errors in each class.\n\nEvery class defined in the file is checked separately against the hierarchy of the file and the built-in classes, so one broken class does not hide errors in the others. An error building the hierarchy is reported once.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.HierarchyErr != nil {
			pass.Report(errorDiagnostic(pass.HierarchyErr))
			return nil
		}
		failures, err := coolutil.CheckEach(pass.Program)
		if err != nil {
			pass.Report(errorDiagnostic(err))
			return nil
		}
		names := make([]string, 0, len(failures))
		for name := range failures {
			if pass.Unit.Class(name) != nil {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			pass.Report(errorDiagnostic(failures[name]))
		}
		return nil
	},
}

func errorDiagnostic(err error) Diagnostic {
	d := Diagnostic{Message: err.Error()}
	if src := analysis.ErrorSource(err); src != nil {
		d.Pos = Position{File: src.File, Line: src.Line, Col: src.Col}
	}
	if kind := analysis.ErrorKind(err); kind != "" {
		d.Notes = append(d.Notes, kind)
	}
	return d
}

// AnalyzerInheritBasic reports classes that inherit from Int, String, Bool
// or SELF_TYPE.
var AnalyzerInheritBasic = &Analyzer{
	Name:     "inherit-basic",
	Doc:      "Report classes inheriting from Int, String, Bool or SELF_TYPE.\n\nThe primitive classes are final. A program that extends them cannot be given a runtime representation.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, c := range pass.Unit.Classes {
			switch {
			case c.Parent == ast.SelfType:
				pass.Reportf(c.Pos(), "class %s cannot inherit from %s", c.Name, ast.SelfType)
			case analysis.IsPrimitive(c.Parent):
				pass.Reportf(c.Pos(), "class %s inherits from basic class %s", c.Name, c.Parent)
			}
		}
		return nil
	},
}

// AnalyzerOverrideSignature reports methods whose signature differs from the
// method they override.
var AnalyzerOverrideSignature = &Analyzer{
	Name:     "override-signature",
	Doc:      "Report overriding methods with a different signature.\n\nA method redefined in a subclass must take the same number of formals, with the same types, and declare the same return type as the inherited method.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.Hierarchy == nil {
			return nil
		}
		for _, c := range pass.Unit.Classes {
			parent, ok := pass.Hierarchy.ParentOf(c.Name)
			if !ok || parent == "" {
				continue
			}
			for _, m := range c.Methods() {
				inherited, owner, err := pass.Hierarchy.LookupMethod(parent, m.Name)
				if err != nil || inherited == nil {
					continue
				}
				checkOverride(pass, m, inherited, owner)
			}
		}
		return nil
	},
}

func checkOverride(pass *Pass, m, inherited *ast.Method, owner string) {
	formals, ret := m.Signature()
	wantFormals, wantRet := inherited.Signature()
	if len(formals) != len(wantFormals) {
		pass.Reportf(m.Pos(), "method %s takes %d formals but overrides %s.%s which takes %d",
			m.Name, len(formals), owner, m.Name, len(wantFormals))
		return
	}
	for i := range formals {
		if formals[i] != wantFormals[i] {
			pass.Reportf(m.Formals[i].Pos(), "formal %s of %s has type %s but %s.%s declares %s",
				m.Formals[i].Name, m.Name, formals[i], owner, m.Name, wantFormals[i])
		}
	}
	if ret != wantRet {
		pass.Reportf(m.Pos(), "method %s returns %s but overrides %s.%s which returns %s",
			m.Name, ret, owner, m.Name, wantRet)
	}
}

// AnalyzerDuplicateCaseBranch reports case expressions with two branches
// declaring the same type.
var AnalyzerDuplicateCaseBranch = &Analyzer{
	Name:     "duplicate-case-branch",
	Doc:      "Report case branches that repeat a type.\n\nThe branch selected by a case is the one with the closest declared type. Two branches with the same type make the later one unreachable.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		ast.Inspect(pass.Unit, func(n ast.Node) bool {
			c, ok := n.(*ast.Case)
			if !ok {
				return true
			}
			seen := make(map[string]bool, len(c.Branches))
			for _, b := range c.Branches {
				if seen[b.Decl.Type] {
					pass.Reportf(b.Decl.Pos(), "case branch type %s appears more than once", b.Decl.Type)
				}
				seen[b.Decl.Type] = true
			}
			return true
		})
		return nil
	},
}

// AnalyzerUnusedLet warns about let bindings that are never read.
var AnalyzerUnusedLet = &Analyzer{
	Name:     "unused-let",
	Doc:      "Warn about let bindings that are never read.\n\nA binding is used when its name appears in the let body or in the initializer of a later binding of the same let. Assigning to a binding does not count as a use.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		ast.Inspect(pass.Unit, func(n ast.Node) bool {
			let, ok := n.(*ast.Let)
			if !ok {
				return true
			}
			for i, b := range let.Bindings {
				if !letBindingUsed(let, i) {
					pass.Reportf(b.Decl.Pos(), "let-bound identifier %s is never used", b.Decl.Name)
				}
			}
			return true
		})
		return nil
	},
}

func letBindingUsed(let *ast.Let, i int) bool {
	name := let.Bindings[i].Decl.Name
	if astutil.References(let.Body)[name] > 0 {
		return true
	}
	for _, later := range let.Bindings[i+1:] {
		if later.Init != nil && astutil.References(later.Init)[name] > 0 {
			return true
		}
	}
	return false
}

// AnalyzerSelfAssign warns about assignments of an identifier to itself.
var AnalyzerSelfAssign = &Analyzer{
	Name:     "self-assign",
	Doc:      "Warn about `x <- x`.\n\nAssigning an identifier to itself has no effect and usually means the wrong name was typed on one side.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		ast.Inspect(pass.Unit, func(n ast.Node) bool {
			if a, ok := n.(*ast.Assign); ok {
				if id, ok := unparen(a.Value).(*ast.Ident); ok && id.Name == a.Name {
					pass.Reportf(a.Pos(), "self-assignment of %s", a.Name)
				}
			}
			return true
		})
		return nil
	},
}

// AnalyzerConstantCondition warns about conditionals with a constant
// predicate and loops that never run.  `while true loop` is allowed.
var AnalyzerConstantCondition = &Analyzer{
	Name:     "constant-condition",
	Doc:      "Warn about constant conditions.\n\nAn if whose predicate is a boolean constant always takes the same branch. A while whose predicate is false never runs its body.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		ast.Inspect(pass.Unit, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.If:
				if b, ok := unparen(n.Cond).(*ast.BoolLit); ok {
					pass.Reportf(n.Cond.Pos(), "condition is always %t", b.Value)
				}
			case *ast.While:
				if b, ok := unparen(n.Cond).(*ast.BoolLit); ok && !b.Value {
					pass.Reportf(n.Cond.Pos(), "loop body never runs")
				}
			}
			return true
		})
		return nil
	},
}

func unparen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.Paren)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

// AnalyzerMainMethod warns when a Main class defined in the file has no
// usable main method.
var AnalyzerMainMethod = &Analyzer{
	Name:     "main-method",
	Doc:      "Check that class Main has a main method taking no arguments.\n\nA program starts by calling main() on a new Main object. Files without a Main class are not checked.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		c := pass.Unit.Class("Main")
		if c == nil {
			return nil
		}
		m := c.Method("main")
		if m == nil && pass.Hierarchy != nil {
			var err error
			m, _, err = pass.Hierarchy.LookupMethod(c.Name, "main")
			if err != nil {
				return nil
			}
		}
		switch {
		case m == nil:
			pass.Reportf(c.Pos(), "class Main has no main method")
		case len(m.Formals) > 0:
			pass.ReportWithNotes(Diagnostic{
				Message: "main method must take no arguments",
				Pos:     Position{File: m.Pos().File, Line: m.Pos().Line, Col: m.Pos().Col},
			}, "declare main() : Object { ... }")
		}
		return nil
	},
}
