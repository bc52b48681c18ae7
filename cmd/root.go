// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coolc",
	Short: "Semantic analyzer for COOL programs",
	Long: `coolc checks programs written in COOL, the Classroom Object Oriented
Language.  It builds the class hierarchy of a program, type checks every
method and attribute, and reports the first violation with an annotated
source snippet.

Getting started:
  coolc check main.cl               Type check a program
  coolc check --class Main *.cl     Type check only class Main
  coolc hierarchy main.cl           Print every type and its parent
  coolc doc -f main.cl Main.main    Show a method signature
  coolc lint main.cl                Report every problem, one per class
  coolc fmt main.cl                 Format source code
  coolc repl                        Start an interactive checker
  coolc lsp                         Start the language server

Configuration is read from $HOME/.cool.yaml (or --config) and from COOL_*
environment variables.  Recognised keys:
  color        auto, always or never
  builtins     prepend the built-in classes (default true)
  trace        none, otel or opencensus
  fmt.indent   spaces per indentation level (default 2)
  lint.checks  list of lint checks to run (default all)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

// Exit codes shared by the commands.
const (
	exitOK       = 0
	exitProblems = 1
	exitUsage    = 2
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cool.yaml)")
	rootCmd.PersistentFlags().String("color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("color", "auto")
	v.SetDefault("builtins", true)
	v.SetDefault("trace", "none")
	v.SetDefault("fmt.indent", 2)
	v.SetDefault("lint.checks", []string{})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".cool" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".cool")
		}
	}

	viper.SetEnvPrefix("cool")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}
