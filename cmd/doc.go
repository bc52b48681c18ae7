// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/docs"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

// docWidth is the column method descriptions are wrapped at.
const docWidth = 72

// builtinDocs describes the methods of the built-in classes.
var builtinDocs = map[string]string{
	"Object.abort":     "Halts the program with an error message naming the class of self.",
	"Object.type_name": "Returns the name of the dynamic type of self.",
	"Object.copy":      "Returns a shallow copy of self.",
	"IO.out_string":    "Prints x to standard output and returns self.",
	"IO.out_int":       "Prints the decimal form of x to standard output and returns self.",
	"IO.in_string":     "Reads one line from standard input, without its terminating newline.",
	"IO.in_int":        "Reads one integer from standard input.  The rest of the line is discarded.",
	"String.length":    "Returns the number of characters in self.",
	"String.concat":    "Returns self followed by s.",
	"String.substr":    "Returns the l characters of self starting at index i.  Indexes start at 0.",
}

// classDocs describes the built-in classes.
var classDocs = map[string]string{
	"Object": "The root of the class hierarchy.  Every class conforms to Object.",
	"IO":     "Simple line oriented input and output.  Inherit IO to use its methods on self.",
	"Int":    "Integers.  Int cannot be inherited and its default value is 0.",
	"String": "Strings of characters.  String cannot be inherited and its default value is \"\".",
	"Bool":   "The values true and false.  Bool cannot be inherited and its default value is false.",
}

// DocCommand creates the "doc" cobra command.
func DocCommand() *cobra.Command {
	var (
		sourceFiles []string
		listTypes   bool
		guide       bool
	)

	cmd := &cobra.Command{
		Use:   "doc [flags] QUERY",
		Short: "Show the features of classes and the signatures of methods",
		Long: `Show documentation for COOL classes and methods.

QUERY is either a class name, which lists the class's ancestors together
with every attribute and method it has (including inherited ones), or
Class.method, which shows the signature of the method as it is resolved on
that class.  Use -f to load source files so that their classes can be
queried.  The built-in classes are always available.

Examples:
  coolc doc IO                     Show the features of IO
  coolc doc String.substr          Show the signature of substr
  coolc doc -f main.cl Main        Load a file, then show class Main
  coolc doc -f main.cl -l          List every type of the program
  coolc doc --guide                Print the typing guide`,
		Run: func(cmd *cobra.Command, args []string) {
			if guide {
				_, _ = io.WriteString(cmd.OutOrStdout(), docs.LangGuide)
				return
			}
			if !listTypes && len(args) != 1 {
				_ = cmd.Help()
				os.Exit(exitUsage)
			}
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			err := docExec(out, sourceFiles, query, listTypes)
			_ = out.Flush()
			if err != nil {
				renderError(cmd.ErrOrStderr(), err)
				os.Exit(exitProblems)
			}
		},
	}

	cmd.Flags().StringArrayVarP(&sourceFiles, "source-file", "f", nil,
		"Load a cool source file before querying documentation (may be repeated).")
	cmd.Flags().BoolVarP(&listTypes, "list-types", "l", false,
		"List every type of the program.")
	cmd.Flags().BoolVar(&guide, "guide", false,
		"Print the COOL typing guide.")
	return cmd
}

func docExec(w io.Writer, files []string, query string, list bool) error {
	prog, err := coolutil.LoadFiles(files...)
	if err != nil {
		return err
	}
	hier, err := analysis.BuildHierarchy(prog)
	if err != nil {
		return err
	}
	if list {
		for _, typ := range hier.Types() {
			if parent, _ := hier.ParentOf(typ); parent != "" {
				fmt.Fprintf(w, "%s inherits %s\n", typ, parent) //nolint:errcheck // buffered writer
				continue
			}
			fmt.Fprintln(w, typ) //nolint:errcheck // buffered writer
		}
		return nil
	}
	class, method, isMethod := strings.Cut(query, ".")
	if !hier.IsDefined(class) {
		return &analysis.UnknownTypeError{Name: class}
	}
	if isMethod {
		return renderMethodDoc(w, hier, class, method)
	}
	return renderClassDoc(w, hier, class)
}

func renderClassDoc(w io.Writer, hier *analysis.Hierarchy, class string) error {
	path, err := hier.RootPath(class)
	if err != nil {
		return err
	}
	ew := &errWriter{w: w}
	ew.printf("class %s\n", strings.Join(path, " -> "))
	if doc := classDocs[class]; doc != "" {
		ew.print(wrapDoc(doc))
	}
	attrs, err := hier.Attributes(class)
	if err != nil {
		return err
	}
	if len(attrs) > 0 {
		ew.print("\nattributes:\n")
	}
	for _, v := range attrs {
		ew.printf("  %s : %s%s\n", v.Decl.Name, v.Decl.Type, ownerSuffix(hier, class, v))
	}
	methods, err := methodTable(hier, class)
	if err != nil {
		return err
	}
	if len(methods) > 0 {
		ew.print("\nmethods:\n")
	}
	for _, m := range methods {
		suffix := ""
		if m.owner != class {
			suffix = "  (from " + m.owner + ")"
		}
		ew.printf("  %s%s\n", signature("", m.method), suffix)
	}
	return ew.err
}

func renderMethodDoc(w io.Writer, hier *analysis.Hierarchy, class, name string) error {
	m, owner, err := hier.LookupMethod(class, name)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("class %s has no method %s", class, name)
	}
	ew := &errWriter{w: w}
	ew.printf("%s\n", signature(owner, m))
	if loc := m.Pos(); loc != nil && loc.File != analysis.BasicFile {
		ew.printf("  defined at %s\n", loc)
	}
	if doc := builtinDocs[owner+"."+name]; doc != "" {
		ew.print(wrapDoc(doc))
	}
	return ew.err
}

type tableEntry struct {
	method *ast.Method
	owner  string
}

// methodTable returns the methods callable on class, root class first,
// with redefinitions replacing the inherited entry in place.
func methodTable(hier *analysis.Hierarchy, class string) ([]tableEntry, error) {
	path, err := hier.RootPath(class)
	if err != nil {
		return nil, err
	}
	var table []tableEntry
	index := make(map[string]int)
	for i := len(path) - 1; i >= 0; i-- {
		c := hier.Class(path[i])
		if c == nil {
			continue
		}
		for _, m := range c.Methods() {
			e := tableEntry{method: m, owner: c.Name}
			if j, ok := index[m.Name]; ok {
				table[j] = e
				continue
			}
			index[m.Name] = len(table)
			table = append(table, e)
		}
	}
	return table, nil
}

func ownerSuffix(hier *analysis.Hierarchy, class string, v *ast.VarDef) string {
	c := hier.Class(class)
	if c == nil {
		return ""
	}
	for _, own := range c.Variables() {
		if own == v {
			return ""
		}
	}
	path, _ := hier.Ancestors(class)
	for _, anc := range path {
		if ac := hier.Class(anc); ac != nil {
			for _, own := range ac.Variables() {
				if own == v {
					return "  (from " + anc + ")"
				}
			}
		}
	}
	return ""
}

func signature(owner string, m *ast.Method) string {
	formals := make([]string, len(m.Formals))
	for i, f := range m.Formals {
		formals[i] = f.Name + " : " + f.Type
	}
	name := m.Name
	if owner != "" {
		name = owner + "." + name
	}
	return fmt.Sprintf("%s(%s) : %s", name, strings.Join(formals, ", "), m.ReturnType)
}

func wrapDoc(doc string) string {
	return "\n" + indent.String(wordwrap.String(doc, docWidth-4), 4) + "\n"
}

// errWriter remembers the first write error so that callers can check it
// once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, v ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, v...)
	}
}

func (ew *errWriter) print(s string) {
	if ew.err == nil {
		_, ew.err = io.WriteString(ew.w, s)
	}
}

func init() {
	rootCmd.AddCommand(DocCommand())
}
