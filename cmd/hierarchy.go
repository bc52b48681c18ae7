// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/coolutil"
	"github.com/muesli/reflow/indent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var hierarchyTree bool

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy [flags] files...",
	Short: "Print the class hierarchy of a COOL program",
	Long: `Print the class hierarchy of a COOL program.

By default every type is printed on its own line followed by its parent,
sorted by type name, with "-" standing for the root's missing parent.
With --tree the hierarchy is drawn as an indented tree from its roots.

Examples:
  coolc hierarchy main.cl          A -> Object lines
  coolc hierarchy --tree main.cl   Indented tree`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code := runHierarchy(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, viper.GetBool("builtins"), hierarchyTree)
		if code != exitOK {
			os.Exit(code)
		}
	},
}

func runHierarchy(stdout, stderr io.Writer, files []string, builtins, tree bool) int {
	loaders := []coolutil.Loader{coolutil.FileLoader(files...)}
	if builtins {
		loaders = append([]coolutil.Loader{coolutil.BasicLoader}, loaders...)
	}
	prog, err := coolutil.Load(loaders...)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
		renderError(stderr, err)
		return exitProblems
	}
	hier, err := analysis.BuildHierarchy(prog)
	if err != nil {
		renderError(stderr, err)
		return exitProblems
	}
	if !tree {
		if err := hier.Dump(stdout); err != nil {
			fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
		return exitOK
	}
	for _, typ := range hier.Types() {
		if _, err := hier.RootPath(typ); err != nil {
			renderError(stderr, err)
			return exitProblems
		}
	}
	for _, typ := range hier.Types() {
		if parent, _ := hier.ParentOf(typ); parent == "" {
			_, _ = io.WriteString(stdout, renderTree(hier, typ))
		}
	}
	return exitOK
}

// renderTree draws typ and its subtypes, each level indented two spaces
// deeper than its parent.
func renderTree(hier *analysis.Hierarchy, typ string) string {
	var b strings.Builder
	b.WriteString(typ)
	b.WriteByte('\n')
	for _, sub := range hier.Subtypes(typ) {
		b.WriteString(indent.String(renderTree(hier, sub), 2))
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)

	hierarchyCmd.Flags().BoolVar(&hierarchyTree, "tree", false,
		"Draw the hierarchy as an indented tree.")
}
