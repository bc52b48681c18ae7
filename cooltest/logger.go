// Copyright © 2018 The ELPS authors

package cooltest

import (
	"bytes"
	"io"
	"testing"
)

// Logger is an io.Writer sending each complete line written to it to a
// test log.  Flush logs a trailing partial line.
type Logger struct {
	tb      testing.TB
	pending []byte
}

var _ io.Writer = (*Logger)(nil)

// NewLogger returns a Logger writing to the log of tb.
func NewLogger(tb testing.TB) *Logger {
	return &Logger{tb: tb}
}

func (l *Logger) Write(p []byte) (int, error) {
	l.pending = append(l.pending, p...)
	for {
		line, rest, ok := bytes.Cut(l.pending, []byte{'\n'})
		if !ok {
			return len(p), nil
		}
		l.tb.Log(string(line))
		l.pending = rest
	}
}

func (l *Logger) Flush() {
	if len(l.pending) > 0 {
		l.tb.Log(string(l.pending))
		l.pending = nil
	}
}
