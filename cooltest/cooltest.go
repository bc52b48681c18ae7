// Copyright © 2018 The ELPS authors

// Package cooltest runs cool source fixtures as Go tests.
//
// A fixture is a .cl file whose first line declares the expected outcome of
// checking it:
//
//	-- expect: ok
//	-- expect: TypeMismatchError
//
// The expected outcome is either ok or the name of an analysis error kind
// (see analysis.ErrorKind).  A parse error is named ParseError.
package cooltest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/parser"
	"github.com/luthersystems/cool/parser/token"
)

const (
	expectPrefix = "-- expect:"
	// ExpectOK is the outcome of a fixture that checks cleanly.
	ExpectOK = "ok"
	// ExpectParseError is the outcome of a fixture that fails to parse.
	ExpectParseError = "ParseError"
)

// BenchmarkParse returns a benchmark that parses the file at path.
func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := parser.Parse("test", bytes.NewReader(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// BenchmarkCheck returns a benchmark that parses and checks the file at
// path.
func BenchmarkCheck(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			prog, err := coolutil.LoadSource("test", string(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
			if _, err := coolutil.Check(prog, ""); err != nil {
				b.Fatalf("Check failure: %v", err)
			}
		}
	}
}

// Expectation reads the declared outcome from the first line of source.
func Expectation(source []byte) (string, error) {
	line, err := bufio.NewReader(bytes.NewReader(source)).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("missing %q header", expectPrefix)
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, expectPrefix) {
		return "", fmt.Errorf("missing %q header", expectPrefix)
	}
	expect := strings.TrimSpace(strings.TrimPrefix(line, expectPrefix))
	if expect == "" {
		return "", fmt.Errorf("empty %q header", expectPrefix)
	}
	return expect, nil
}

// Outcome checks source and returns the name of its outcome along with the
// error that produced it, if any.
func Outcome(name string, source []byte, opts ...analysis.Option) (string, error) {
	prog, err := coolutil.LoadSource(name, string(source))
	if err != nil {
		var locErr *token.LocationError
		if errors.As(err, &locErr) {
			return ExpectParseError, err
		}
		return "", err
	}
	_, err = coolutil.Check(prog, "", opts...)
	if err == nil {
		return ExpectOK, nil
	}
	kind := analysis.ErrorKind(err)
	if kind == "" {
		kind = "Error"
	}
	return kind, err
}

// Runner runs fixtures.
type Runner struct {
	// Options are passed to every check.
	Options []analysis.Option
}

// RunFixture checks the fixture at path and reports a test failure if the
// outcome differs from the one declared in its header.
func (r *Runner) RunFixture(t *testing.T, path string) {
	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read fixture: %v", err)
		return
	}
	expect, err := Expectation(source)
	if err != nil {
		t.Errorf("%s: %v", path, err)
		return
	}
	got, err := Outcome(filepath.Base(path), source, r.Options...)
	if got != expect {
		logger := NewLogger(t)
		defer logger.Flush()
		fmt.Fprintf(logger, "error: %v\n", err)
		t.Errorf("%s: expected outcome %s (got %s)", path, expect, got)
	}
}

// RunFixtureDir runs every .cl fixture in dir as a subtest.
func (r *Runner) RunFixtureDir(t *testing.T, dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cl"))
	if err != nil {
		t.Fatalf("Failed to list fixtures: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("No fixtures found in %s", dir)
	}
	sort.Strings(files)
	for _, path := range files {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			r.RunFixture(t, path)
		})
	}
}
