// Copyright © 2018 The ELPS authors

// Package repl implements an interactive type checker.  Class definitions
// typed at the prompt are added to a running program and expressions are
// answered with their static type.
package repl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	history string
	files   []string
}

func newConfig(opts ...Option) *config {
	config := &config{history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the file readline keeps history in.  An empty path
// disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithFiles loads the classes of the files at paths before the first
// prompt.
func WithFiles(paths ...string) Option {
	return func(c *config) {
		c.files = append(c.files, paths...)
	}
}

// RunRepl runs a repl over a session holding only the built-in classes.
func RunRepl(prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	s := NewSession(out)
	if len(cfg.files) > 0 {
		if err := s.Load(cfg.files...); err != nil {
			renderError(out, err, "")
		}
	}
	RunSession(s, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunSession reads input for s until the input ends or the user quits.
// The cont prompt is shown while a definition or expression is incomplete.
func RunSession(s *Session, prompt, cont string, opts ...Option) {
	cfg := newConfig(opts...)
	ensureHistoryFilePermissions(cfg.history)

	rlCfg := &readline.Config{
		Stdout:            s.out,
		Stderr:            s.out,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &sessionCompleter{session: s},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		if s.Pending() {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadSlice()
		if err == readline.ErrInterrupt {
			s.Discard()
			continue
		}
		if err != nil {
			break
		}
		src, err := s.Feed(string(bytes.TrimRight(line, "\r\n")))
		if errors.Is(err, ErrQuit) {
			break
		}
		if err != nil {
			renderError(s.out, err, src)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cool_history")
}

// ensureHistoryFilePermissions creates the history file when missing and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600) //#nosec G304
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}

func errlnf(w io.Writer, format string, v ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(w, format, v...) //nolint:errcheck // best-effort REPL output
}
