// Copyright © 2018 The ELPS authors

package cmd

import (
	"github.com/luthersystems/cool/repl"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl [files...]",
	Short: "Start an interactive COOL type checker",
	Long: `Start an interactive session for exploring the COOL type system.

Class definitions typed at the prompt are checked and added to the session.
Any other input is parsed as an expression and answered with its static
type.  Input that is not yet complete continues on the next line.  Files
given as arguments are loaded before the first prompt.  Line editing and
command history are supported via readline.  Use Ctrl-D or :quit to exit.

Example REPL session:
  cool> 1 + 2
  Int
  cool> class Counter {
          n : Int;
          inc() : SELF_TYPE { { n <- n + 1; self; } };
        };
  defined Counter
  cool> (new Counter).inc()
  Counter
  cool> if true then 0 else "zero" fi
  Object
  cool> :in Counter
  cool> n
  Int
  cool> :hierarchy
  ...`,
	Run: func(cmd *cobra.Command, args []string) {
		repl.RunRepl("cool> ", repl.WithFiles(args...))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
