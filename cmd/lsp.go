// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/luthersystems/cool/lsp"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	// Registers the commonlog backend used by the glsp transport.
	_ "github.com/tliron/commonlog/simple"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration. Embedders can pass WithAnalyzers to run their own lint
// checks on every document.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio     bool
		port      int
		verbosity int
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the COOL Language Server Protocol server",
		Long: `Start an LSP server for COOL source files.

The language server type checks every open document as you type and
publishes syntax errors, type errors and lint findings as diagnostics.  It
also provides hover with static types, go-to-definition, find references,
completion, document symbols, folding ranges and formatting.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  coolc lsp                          Start with stdio transport
  coolc lsp --stdio                  Same as above (explicit)
  coolc lsp --port 7998              Start with TCP on port 7998
  coolc lsp -v 2                     Log protocol traffic to stderr
  coolc lsp --debounce 100ms         Re-check sooner after each edit

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "coolc lsp --stdio" for .cl files.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			commonlog.Configure(verbosity, nil)

			var serverOpts []lsp.Option
			if debounce > 0 {
				serverOpts = append(serverOpts, lsp.WithDebounce(debounce))
			}
			if len(cfg.analyzers) > 0 {
				serverOpts = append(serverOpts, lsp.WithAnalyzers(cfg.analyzers...))
			}
			srv := lsp.New(serverOpts...)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("COOL LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(exitProblems)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(exitProblems)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().IntVarP(&verbosity, "verbose", "v", 0,
		"Transport log verbosity written to stderr (0 disables logging)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0,
		"Delay before re-checking a document after an edit (default 300ms)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
