// Copyright © 2024 The ELPS authors

package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/parser"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/luthersystems/cool/parser/token"
)

// ErrQuit is returned by Session.Feed when the user asks to leave.
var ErrQuit = errors.New("quit")

// inputName names the source of text typed at the prompt.
const inputName = "<input>"

// Session is the state of an interactive checker: the classes defined so
// far, their hierarchy and the class expressions are typed in.
type Session struct {
	out     io.Writer
	units   []*ast.Program
	prog    *ast.Program
	hier    *analysis.Hierarchy
	class   string
	pending strings.Builder
}

// NewSession returns a session holding the built-in classes.  Command
// output is written to out.
func NewSession(out io.Writer) *Session {
	s := &Session{out: out, class: analysis.RootType}
	prog := coolutil.Assemble()
	hier, err := analysis.BuildHierarchy(prog)
	if err != nil {
		panic(fmt.Sprintf("repl: built-in classes: %v", err))
	}
	s.prog, s.hier = prog, hier
	return s
}

// Hierarchy returns the hierarchy of the classes defined so far.
func (s *Session) Hierarchy() *analysis.Hierarchy { return s.hier }

// Class returns the class expressions are typed in.
func (s *Session) Class() string { return s.class }

// Pending reports whether incomplete input is buffered.
func (s *Session) Pending() bool { return s.pending.Len() > 0 }

// Discard drops buffered input.
func (s *Session) Discard() { s.pending.Reset() }

// Feed processes one line of input.  Lines starting with a colon are
// commands.  Other lines are buffered until they form a complete class
// definition or expression.  The returned string is the source the error
// refers to, for rendering.
func (s *Session) Feed(line string) (string, error) {
	if !s.Pending() {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return "", nil
		}
		if strings.HasPrefix(trimmed, ":") {
			return "", s.command(trimmed[1:])
		}
	}
	s.pending.WriteString(line)
	s.pending.WriteByte('\n')
	src := s.pending.String()
	err := s.eval(src)
	if errors.Is(err, rdparser.ErrUnexpectedEOF) {
		return "", nil
	}
	s.pending.Reset()
	return src, err
}

func (s *Session) eval(src string) error {
	if isDefinition(src) {
		unit, err := parser.Parse(inputName, strings.NewReader(src))
		if err != nil {
			return err
		}
		return s.Define(unit)
	}
	p := rdparser.New(token.NewScanner(inputName, strings.NewReader(src)))
	expr, err := p.ParseExpression()
	if err != nil {
		return err
	}
	typ, err := s.TypeOf(expr)
	if err != nil {
		return err
	}
	errlnf(s.out, "%s", typ)
	return nil
}

func isDefinition(src string) bool {
	fields := strings.Fields(src)
	return len(fields) > 0 && token.Keywords[strings.ToLower(fields[0])] == token.CLASS
}

// TypeOf returns the static type of expr in the session's current class.
func (s *Session) TypeOf(expr ast.Expr) (string, error) {
	return analysis.TypeOf(expr, s.hier, s.class)
}

// Define adds the classes of unit to the session.  The classes are
// checked against everything defined before them and the session is left
// unchanged when they are rejected.
func (s *Session) Define(unit *ast.Program) error {
	units := append(s.units[:len(s.units):len(s.units)], unit)
	prog := coolutil.Assemble(units...)
	hier, err := analysis.BuildHierarchy(prog)
	if err != nil {
		return err
	}
	for _, c := range unit.Classes {
		if _, err := hier.RootPath(c.Name); err != nil {
			return err
		}
		if err := analysis.CheckClass(prog, hier, c.Name); err != nil {
			return err
		}
	}
	s.units, s.prog, s.hier = units, prog, hier
	for _, c := range unit.Classes {
		errlnf(s.out, "defined %s", c.Name)
	}
	return nil
}

// Load parses the files at paths and defines their classes together.
func (s *Session) Load(paths ...string) error {
	unit, err := coolutil.Load(coolutil.FileLoader(paths...))
	if err != nil {
		return err
	}
	return s.Define(unit)
}

// Classes returns the names of the user defined classes in definition
// order.
func (s *Session) Classes() []string {
	var names []string
	for _, unit := range s.units {
		for _, c := range unit.Classes {
			names = append(names, c.Name)
		}
	}
	return names
}

// Methods returns the sorted names of the methods callable on typ.
func (s *Session) Methods(typ string) []string {
	path, err := s.hier.RootPath(typ)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, name := range path {
		c := s.hier.Class(name)
		if c == nil {
			continue
		}
		for _, m := range c.Methods() {
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

var commandHelp = []struct{ name, doc string }{
	{"load FILE...", "define the classes in files"},
	{"classes", "list the classes defined in the session"},
	{"hierarchy", "print every type and its parent"},
	{"in [CLASS]", "show or set the class expressions are typed in"},
	{"reset", "forget every user defined class"},
	{"help", "show this message"},
	{"quit", "leave the repl"},
}

func (s *Session) command(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("missing command name")
	}
	args := fields[1:]
	switch fields[0] {
	case "load", "l":
		if len(args) == 0 {
			return fmt.Errorf(":load requires at least one file")
		}
		return s.Load(args...)
	case "classes":
		for _, name := range s.Classes() {
			parent, _ := s.hier.ParentOf(name)
			errlnf(s.out, "%s inherits %s", name, parent)
		}
		return nil
	case "hierarchy":
		return s.hier.Dump(s.out)
	case "in":
		if len(args) == 0 {
			errlnf(s.out, "%s", s.class)
			return nil
		}
		if !s.hier.IsDefined(args[0]) {
			return &analysis.UnknownTypeError{Name: args[0]}
		}
		s.class = args[0]
		return nil
	case "reset":
		*s = *NewSession(s.out)
		return nil
	case "help", "h", "?":
		for _, cmd := range commandHelp {
			errlnf(s.out, "  :%-14s %s", cmd.name, cmd.doc)
		}
		return nil
	case "quit", "q":
		return ErrQuit
	}
	return fmt.Errorf("unknown command :%s (try :help)", fields[0])
}
