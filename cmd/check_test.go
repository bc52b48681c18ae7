// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/cool/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string {
	return filepath.Join("..", "testdata", name)
}

func TestCheckCommand_DefaultFlags(t *testing.T) {
	cmd := CheckCommand()
	assert.Equal(t, "check [flags] files...", cmd.Use)
	for _, name := range []string{"class", "json", "trace", "trace-class", "callgrind", "cpuprofile", "builtins"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestRunCheck(t *testing.T) {
	tests := []struct {
		file string
		code int
		want string
	}{
		{"hello.cl", exitOK, ""},
		{"book_list.cl", exitOK, ""},
		{"arity.cl", exitProblems, "error kind: TypeMismatchError"},
		{"cycle.cl", exitProblems, "NonTerminatingHierarchyError"},
		{"unknown_type.cl", exitProblems, "undefined type Widget"},
		{"syntax.cl", exitProblems, "syntax.cl:3:"},
	}
	for _, test := range tests {
		t.Run(test.file, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runCheck(&stdout, &stderr, []string{testdata(test.file)}, checkOptions{builtins: true})
			assert.Equal(t, test.code, code, stderr.String())
			assert.Empty(t, stdout.String())
			if test.want == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), test.want)
				assert.Contains(t, stderr.String(), "try: coolc lint")
			}
		})
	}
}

func TestRunCheckClass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two.cl")
	require.NoError(t, os.WriteFile(path, []byte(`
class Good { f() : Int { 1 }; };
class Bad { g() : Int { true }; };
`), 0o600))

	var stdout, stderr bytes.Buffer
	opts := checkOptions{builtins: true, class: "Good"}
	assert.Equal(t, exitOK, runCheck(&stdout, &stderr, []string{path}, opts))

	opts.class = "Bad"
	assert.Equal(t, exitProblems, runCheck(&stdout, &stderr, []string{path}, opts))

	stderr.Reset()
	opts.class = "Missing"
	assert.Equal(t, exitUsage, runCheck(&stdout, &stderr, []string{path}, opts))
	assert.Contains(t, stderr.String(), "unknown class: Missing")
}

func TestRunCheckJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCheck(&stdout, &stderr, []string{testdata("return_mismatch.cl")}, checkOptions{builtins: true, json: true})
	assert.Equal(t, exitProblems, code)
	assert.Empty(t, stderr.String())

	var res checkResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.False(t, res.OK)
	assert.Equal(t, 6, res.Classes)
	require.NotNil(t, res.Error)
	assert.Equal(t, "TypeMismatchError", res.Error.Kind)
	assert.Equal(t, testdata("return_mismatch.cl"), res.Error.File)
	assert.Equal(t, 3, res.Error.Line)

	stdout.Reset()
	code = runCheck(&stdout, &stderr, []string{testdata("syntax.cl")}, checkOptions{builtins: true, json: true})
	assert.Equal(t, exitProblems, code)
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.Equal(t, "SyntaxError", res.Error.Kind)

	stdout.Reset()
	code = runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, checkOptions{builtins: true, json: true})
	assert.Equal(t, exitOK, code)
	res = checkResult{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Nil(t, res.Error)
}

func TestRunCheckWithoutBuiltins(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, checkOptions{})
	assert.Equal(t, exitProblems, code)
	assert.Contains(t, stderr.String(), "undefined type IO")
}

func TestRunCheckMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCheck(&stdout, &stderr, []string{testdata("does-not-exist.cl")}, checkOptions{builtins: true})
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "does-not-exist.cl")
}

func TestRunCheckTrace(t *testing.T) {
	for _, mode := range []string{"otel", "opencensus"} {
		t.Run(mode, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runCheck(&stdout, &stderr, []string{testdata("return_mismatch.cl")}, checkOptions{builtins: true, trace: mode})
			assert.Equal(t, exitProblems, code)
			out := stderr.String()
			assert.Contains(t, out, "span build-hierarchy ")
			assert.Contains(t, out, "span check-class Object ")
			assert.Regexp(t, `span check-method Main\.main .* error="`, out)
			assert.Regexp(t, `span check-class Main .* error="`, out)
		})
	}

	var stdout, stderr bytes.Buffer
	code := runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, checkOptions{builtins: true, trace: "zipkin"})
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "unknown trace mode: zipkin")
}

func TestRunCheckTraceClass(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := checkOptions{builtins: true, trace: "otel", traceClass: "^Main$"}
	code := runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, opts)
	assert.Equal(t, exitOK, code, stderr.String())
	out := stderr.String()
	assert.Contains(t, out, "span build-hierarchy ")
	assert.Contains(t, out, "span check-class Main ")
	assert.NotContains(t, out, "span check-class IO ")

	stderr.Reset()
	opts.traceClass = "("
	code = runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, opts)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "trace-class")
}

func TestRunCheckProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := checkOptions{
		builtins:   true,
		callgrind:  filepath.Join(dir, "callgrind.out"),
		cpuprofile: filepath.Join(dir, "cpu.pprof"),
	}
	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, runCheck(&stdout, &stderr, []string{testdata("book_list.cl")}, opts), stderr.String())

	data, err := os.ReadFile(opts.callgrind)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "version: 1\n"), string(data))
	assert.Contains(t, string(data), "check-class")

	info, err := os.Stat(opts.cpuprofile)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

type recordingObserver struct {
	names []string
}

func (r *recordingObserver) Start(phase analysis.Phase, name string) func(error) {
	r.names = append(r.names, phase.String()+" "+name)
	return func(error) {}
}

func TestCheckCommand_WithObserver(t *testing.T) {
	obs := &recordingObserver{}
	var stdout, stderr bytes.Buffer
	code := runCheck(&stdout, &stderr, []string{testdata("hello.cl")}, checkOptions{
		builtins:  true,
		class:     "Main",
		observers: newCmdConfig([]Option{WithObserver(obs)}).observers,
	})
	require.Equal(t, exitOK, code)
	assert.Equal(t, []string{"build-hierarchy ", "check-class Main", "check-method Main.main"}, obs.names)
}
