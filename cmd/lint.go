// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/cool/lint"
	"github.com/luthersystems/cool/parser/token"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type lintOptions struct {
	json     bool
	checks   string
	list     bool
	excludes []string
}

// LintCommand creates the "lint" cobra command.  Embedders can pass
// WithAnalyzers to run their own checks.
func LintCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var lopts lintOptions

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Run static analysis checks on COOL source files",
		Long: `Run static analysis checks on COOL source files.

Unlike "coolc check", which stops at the first type error of a program, the
linter checks every class on its own and reports one problem per class,
together with likely mistakes that are not type errors.  Each file is
linted as a program of its own, with the built-in classes added.

With no files, reads from stdin. With files, analyzes each file and reports
all findings to stderr.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  x <- x;  -- nolint:self-assign

To suppress all checks on a line:
  x <- x;  -- nolint

Available checks (use --checks to select specific ones):
` + analyzerDoc(lint.DefaultAnalyzers()) + `
Examples:
  coolc lint file.cl                          # Lint a single file
  coolc lint ./...                            # Lint every .cl file below .
  coolc lint --json file.cl                   # Output diagnostics as JSON
  coolc lint --checks=unused-let file.cl      # Run only specific checks
  coolc lint --list                           # List available checks
  coolc lint --exclude='build' ./...          # Exclude directories
  cat file.cl | coolc lint                    # Lint from stdin`,
		Run: func(cmd *cobra.Command, args []string) {
			if lopts.checks == "" {
				lopts.checks = strings.Join(viper.GetStringSlice("lint.checks"), ",")
			}
			code := runLint(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args, lopts)
			if code != exitOK {
				os.Exit(code)
			}
		},
	}

	cmd.Flags().BoolVar(&lopts.json, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&lopts.checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&lopts.list, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&lopts.excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

func runLint(stdin io.Reader, stdout, stderr io.Writer, cfg *cmdConfig, args []string, opts lintOptions) int {
	var names []string
	if opts.checks != "" {
		names = strings.Split(opts.checks, ",")
	}
	analyzers, err := cfg.resolveAnalyzers(names)
	if err != nil {
		fmt.Fprintf(stderr, "coolc lint: %v\n", err) //nolint:errcheck // best-effort CLI output
		return exitUsage
	}
	if opts.list {
		for _, a := range analyzers {
			fmt.Fprintln(stdout, a.Name) //nolint:errcheck // best-effort CLI output
		}
		return exitOK
	}
	l := &lint.Linter{Analyzers: analyzers}

	var allDiags []lint.Diagnostic
	if len(args) == 0 {
		src, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "reading stdin: %v\n", err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
		allDiags, err = l.LintFile(src, "<stdin>")
		if err != nil {
			return lintFailure(stderr, err)
		}
	} else {
		expanded, err := expandArgs(args, opts.excludes)
		if err != nil {
			fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
		for _, path := range expanded {
			diags, err := lintFile(l, path)
			if err != nil {
				return lintFailure(stderr, err)
			}
			allDiags = append(allDiags, diags...)
		}
	}

	if len(allDiags) == 0 {
		return exitOK
	}
	if opts.json {
		if err := lint.FormatJSON(stdout, allDiags); err != nil {
			fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
	} else {
		renderLintDiagnostics(stderr, allDiags)
	}
	return exitProblems
}

// lintFailure reports an error that stopped linting.  Syntax errors are
// problems in the linted source; anything else is a bad invocation.
func lintFailure(stderr io.Writer, err error) int {
	var locErr *token.LocationError
	if errors.As(err, &locErr) {
		renderError(stderr, err)
		return exitProblems
	}
	fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
	return exitUsage
}

func lintFile(l *lint.Linter, path string) ([]lint.Diagnostic, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l.LintFile(src, path)
}

// analyzerDoc lists analyzers with the first line of their documentation
// wrapped under each name.
func analyzerDoc(analyzers []*lint.Analyzer) string {
	var b strings.Builder
	for _, a := range analyzers {
		summary, _, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(&b, "  %s (%s)\n", a.Name, a.Severity) //nolint:errcheck // strings.Builder
		b.WriteString(indent.String(wordwrap.String(summary, 68), 6))
		b.WriteByte('\n')
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(LintCommand())
}
