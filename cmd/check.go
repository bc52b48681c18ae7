// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"runtime/pprof"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/profiler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type checkOptions struct {
	class      string
	json       bool
	builtins   bool
	trace      string
	traceClass string
	callgrind  string
	cpuprofile string
	observers  []analysis.Observer
}

// CheckCommand creates the "check" cobra command.  Embedders can pass
// WithObserver to receive the analysis phases of every run.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var copts checkOptions

	cmd := &cobra.Command{
		Use:   "check [flags] files...",
		Short: "Type check COOL source files",
		Long: `Type check a COOL program made of one or more source files.

The built-in classes Object, IO, Int, String and Bool are added to the
program unless --builtins=false is given.  The class hierarchy is built
first, then every class is checked in program order.  Checking stops at
the first violation, which is rendered with an annotated source snippet.

Exit codes:
  0  The program is well typed
  1  A syntax or type error was found
  2  Bad invocation (invalid flags, unreadable files)

Tracing:
  --trace otel         Print an OpenTelemetry span per analysis phase
  --trace opencensus   Print an OpenCensus span per analysis phase
  --callgrind FILE     Write a callgrind profile of the analysis phases
  --cpuprofile FILE    Write a CPU profile labelled with analysis phases
  --trace-class REGEX  Limit class and method events to matching classes

Examples:
  coolc check main.cl
  coolc check --class Main lib.cl main.cl
  coolc check --json main.cl
  coolc check --trace otel main.cl`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			copts.builtins = viper.GetBool("builtins")
			if copts.trace == "" {
				copts.trace = viper.GetString("trace")
			}
			copts.observers = cfg.observers
			code := runCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, copts)
			if code != exitOK {
				os.Exit(code)
			}
		},
	}

	cmd.Flags().StringVar(&copts.class, "class", "",
		"Check only the named class.")
	cmd.Flags().BoolVar(&copts.json, "json", false,
		"Print the result as JSON on stdout.")
	cmd.Flags().StringVar(&copts.trace, "trace", "",
		`Trace analysis phases: "none", "otel" or "opencensus".`)
	cmd.Flags().StringVar(&copts.traceClass, "trace-class", "",
		"Only trace classes whose name matches REGEX.")
	cmd.Flags().StringVar(&copts.callgrind, "callgrind", "",
		"Write a callgrind profile of the analysis to FILE.")
	cmd.Flags().StringVar(&copts.cpuprofile, "cpuprofile", "",
		"Write a CPU profile to FILE.")
	cmd.Flags().Bool("builtins", true,
		"Prepend the built-in classes to the program.")
	_ = viper.BindPFlag("builtins", cmd.Flags().Lookup("builtins"))

	return cmd
}

// checkResult is the JSON form of a check run.
type checkResult struct {
	OK      bool        `json:"ok"`
	Classes int         `json:"classes"`
	Error   *checkError `json:"error,omitempty"`
}

type checkError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
}

func newCheckError(err error) *checkError {
	d := errorToDiagnostic(err)
	ce := &checkError{Kind: analysis.ErrorKind(err), Message: d.Message}
	if ce.Kind == "" {
		ce.Kind = "SyntaxError"
	}
	if len(d.Spans) > 0 {
		ce.File, ce.Line, ce.Col = d.Spans[0].File, d.Spans[0].Line, d.Spans[0].Col
	}
	return ce
}

func runCheck(stdout, stderr io.Writer, files []string, opts checkOptions) int {
	loaders := []coolutil.Loader{coolutil.FileLoader(files...)}
	if opts.builtins {
		loaders = append([]coolutil.Loader{coolutil.BasicLoader}, loaders...)
	}
	prog, err := coolutil.Load(loaders...)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
		return reportCheck(stdout, stderr, opts, nil, err, files)
	}

	obs, finish, err := checkObserver(stderr, opts)
	if err != nil {
		fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort CLI output
		return exitUsage
	}
	hier, err := coolutil.Check(prog, opts.class, analysis.WithObserver(obs))
	if ferr := finish(); ferr != nil {
		fmt.Fprintln(stderr, ferr) //nolint:errcheck // best-effort CLI output
	}
	if opts.class != "" && hier != nil && !hier.IsDefined(opts.class) {
		fmt.Fprintf(stderr, "coolc check: unknown class: %s\n", opts.class) //nolint:errcheck // best-effort CLI output
		return exitUsage
	}
	return reportCheck(stdout, stderr, opts, prog, err, files)
}

func reportCheck(stdout, stderr io.Writer, opts checkOptions, prog *ast.Program, err error, files []string) int {
	if opts.json {
		res := checkResult{OK: err == nil}
		if prog != nil {
			res.Classes = len(prog.Classes)
		}
		if err != nil {
			res.Error = newCheckError(err)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if jerr := enc.Encode(res); jerr != nil {
			fmt.Fprintln(stderr, jerr) //nolint:errcheck // best-effort CLI output
			return exitUsage
		}
	} else if err != nil {
		hint := ""
		if len(files) == 1 {
			hint = files[0]
		}
		renderError(stderr, err, hint)
	}
	if err != nil {
		return exitProblems
	}
	return exitOK
}

// checkObserver builds the observer requested by opts.  The returned
// function completes every enabled profiler.
func checkObserver(stderr io.Writer, opts checkOptions) (analysis.Observer, func() error, error) {
	var (
		profilers []profiler.Profiler
		cleanup   []func()
	)
	ctx := context.Background()
	var popts []profiler.Option
	if opts.traceClass != "" {
		pattern, err := regexp.Compile(opts.traceClass)
		if err != nil {
			return nil, nil, fmt.Errorf("trace-class: %w", err)
		}
		popts = append(popts, profiler.WithClassFilter(pattern))
	}
	finish := func() error {
		var errs []error
		for _, p := range profilers {
			errs = append(errs, p.Complete())
		}
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		return errors.Join(errs...)
	}

	switch opts.trace {
	case "", "none":
	case "otel":
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&spanPrinter{w: stderr}))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		cleanup = append(cleanup, func() {
			_ = tp.Shutdown(ctx)
			otel.SetTracerProvider(prev)
		})
		profilers = append(profilers, profiler.NewOpenTelemetryAnnotator(ctx, popts...))
	case "opencensus":
		exp := &spanPrinter{w: stderr}
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
		trace.RegisterExporter(exp)
		cleanup = append(cleanup, func() { trace.UnregisterExporter(exp) })
		profilers = append(profilers, profiler.NewOpenCensusAnnotator(ctx, popts...))
	default:
		return nil, nil, fmt.Errorf("unknown trace mode: %s", opts.trace)
	}

	if opts.callgrind != "" {
		f, err := os.Create(opts.callgrind) //#nosec G304
		if err != nil {
			return nil, nil, fmt.Errorf("callgrind: %w", err)
		}
		profilers = append(profilers, profiler.NewCallgrindProfiler(f, popts...))
	}

	if opts.cpuprofile != "" {
		f, err := os.Create(opts.cpuprofile) //#nosec G304
		if err != nil {
			return nil, nil, fmt.Errorf("cpuprofile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("cpuprofile: %w", err)
		}
		cleanup = append(cleanup, func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
		profilers = append(profilers, profiler.NewPprofAnnotator(ctx, popts...))
	}

	observers := append([]analysis.Observer(nil), opts.observers...)
	for _, p := range profilers {
		if err := p.Enable(); err != nil {
			_ = finish()
			return nil, nil, err
		}
		observers = append(observers, p)
	}
	return profiler.Tee(observers...), finish, nil
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
