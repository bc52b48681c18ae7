// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/cool/formatter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type fmtOptions struct {
	write    bool
	diff     bool
	list     bool
	indent   int
	excludes []string
}

var fmtOpts fmtOptions

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] [files...]",
	Short: "Format COOL source files",
	Long: `Format COOL source files, similar to gofmt for Go.

Re-prints every class with one feature per line, normalizes indentation and
spacing around operators, breaks long expressions across lines and preserves
comments. The formatter is idempotent.

With no files, reads from stdin and writes to stdout.
With files, prints formatted output to stdout unless -w is given.

Modes:
  (default)   Print formatted code to stdout
  -w          Write result back to source file
  -d          Display a diff of changes
  -l          List files that would be changed

Examples:
  coolc fmt file.cl                Print formatted output
  coolc fmt -w file.cl             Format in place
  coolc fmt -w ./...               Format every .cl file below . in place
  coolc fmt -d file.cl             Show what would change
  coolc fmt -l *.cl                List files needing formatting
  cat file.cl | coolc fmt          Format from stdin
  coolc fmt --indent-size 4 f.cl   Use 4-space indentation`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := fmtOpts
		if !cmd.Flags().Changed("indent-size") {
			opts.indent = viper.GetInt("fmt.indent")
		}
		code := runFmt(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		if code != exitOK {
			os.Exit(code)
		}
	},
}

func runFmt(stdin io.Reader, stdout, stderr io.Writer, args []string, opts fmtOptions) int {
	cfg := formatter.DefaultConfig()
	if opts.indent > 0 {
		cfg.IndentSize = opts.indent
	}

	if len(args) == 0 {
		if err := fmtStdin(stdin, stdout, cfg); err != nil {
			renderError(stderr, err)
			return exitProblems
		}
		return exitOK
	}

	expanded, err := expandArgs(args, opts.excludes)
	if err != nil {
		fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
		return exitUsage
	}

	exitCode := exitOK
	for _, path := range expanded {
		changed, err := fmtFile(stdout, path, cfg, opts)
		if err != nil {
			renderError(stderr, err)
			exitCode = exitProblems
		} else if opts.list && changed {
			exitCode = exitProblems
		}
	}
	return exitCode
}

func fmtStdin(stdin io.Reader, stdout io.Writer, cfg *formatter.Config) error {
	src, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	out, err := formatter.FormatFile(src, "<stdin>", cfg)
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func fmtFile(stdout io.Writer, path string, cfg *formatter.Config, opts fmtOptions) (bool, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	out, err := formatter.FormatFile(src, path, cfg)
	if err != nil {
		return false, err
	}

	changed := !bytes.Equal(src, out)

	switch {
	case opts.list:
		if changed {
			fmt.Fprintln(stdout, path) //nolint:errcheck // best-effort CLI output
		}
		return changed, nil
	case opts.diff:
		if changed {
			printUnifiedDiff(stdout, path, src, out)
		}
		return changed, nil
	case opts.write:
		if !changed {
			return false, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		return true, os.WriteFile(path, out, info.Mode().Perm())
	}

	// Default: print to stdout
	_, err = stdout.Write(out)
	return changed, err
}

func printUnifiedDiff(w io.Writer, path string, original, formatted []byte) {
	ew := &errWriter{w: w}
	ew.printf("--- %s\n", path)
	ew.printf("+++ %s\n", path)

	origLines := splitLines(original)
	fmtLines := splitLines(formatted)

	// Lines are paired greedily; a changed region prints its removals
	// before its additions.
	i, j := 0, 0
	for i < len(origLines) || j < len(fmtLines) {
		switch {
		case i < len(origLines) && j < len(fmtLines) && origLines[i] == fmtLines[j]:
			ew.printf(" %s\n", origLines[i])
			i++
			j++
		case i < len(origLines):
			ew.printf("-%s\n", origLines[i])
			i++
		default:
			ew.printf("+%s\n", fmtLines[j])
			j++
		}
	}
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtOpts.write, "write", "w", false,
		"Write result to (source) file instead of stdout.")
	fmtCmd.Flags().BoolVarP(&fmtOpts.diff, "diff", "d", false,
		"Display diffs instead of rewriting files.")
	fmtCmd.Flags().BoolVarP(&fmtOpts.list, "list", "l", false,
		"List files whose formatting differs from coolc fmt's.")
	fmtCmd.Flags().IntVar(&fmtOpts.indent, "indent-size", 2,
		"Number of spaces per indentation level.")
	fmtCmd.Flags().StringArrayVar(&fmtOpts.excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}
