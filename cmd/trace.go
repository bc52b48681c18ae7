// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opencensus.io/trace"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanPrinter writes one line per finished span.  It exports both
// OpenTelemetry and OpenCensus spans.
type spanPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

var (
	_ sdktrace.SpanExporter = (*spanPrinter)(nil)
	_ trace.Exporter        = (*spanPrinter)(nil)
)

func (p *spanPrinter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		msg := ""
		if s.Status().Code == codes.Error {
			msg = s.Status().Description
		}
		p.print(s.Name(), s.EndTime().Sub(s.StartTime()), msg)
	}
	return nil
}

func (p *spanPrinter) Shutdown(context.Context) error { return nil }

func (p *spanPrinter) ExportSpan(sd *trace.SpanData) {
	msg := ""
	if sd.Status.Code != trace.StatusCodeOK {
		msg = sd.Status.Message
	}
	p.print(sd.Name, sd.EndTime.Sub(sd.StartTime), msg)
}

func (p *spanPrinter) print(name string, d time.Duration, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if errMsg != "" {
		fmt.Fprintf(p.w, "span %s %v error=%q\n", name, d, errMsg) //nolint:errcheck // best-effort trace output
		return
	}
	fmt.Fprintf(p.w, "span %s %v\n", name, d) //nolint:errcheck // best-effort trace output
}
