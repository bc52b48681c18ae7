// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Renderer formats diagnostics as Rust-style annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// Width wraps note text to the given column when positive.
	Width int
}

const notePrefixWidth = len("   = note: ")

// tokenDelims end the token underlined when a span has no end column.
const tokenDelims = " \t(){};:,.@"

// Render writes a single diagnostic to w.
//
//	error: message
//	  --> file:line:col
//	   |
//	 3 |  source line
//	   |  ^^^^ label
//	   |
//	   = note: text
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	st := newStyles(r.Color, w)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", st.severity(d.Severity), st.message(d.Message))
	for _, span := range d.Spans {
		r.writeSnippet(&b, st, d.Severity, span)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "   %s note: %s\n", st.note("="), r.wrapNote(note))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i := range diags {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := r.Render(w, diags[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeSnippet(b *strings.Builder, st styles, sev Severity, span Span) {
	fmt.Fprintf(b, "  %s %s\n", st.gutter("-->"), span.location())
	line, ok := r.sourceLine(span.File, span.Line)
	if !ok {
		fmt.Fprintf(b, "   %s\n", st.gutter("|"))
		return
	}

	num := strconv.Itoa(span.Line)
	blank := st.gutter(strings.Repeat(" ", len(num)) + " |")
	start, end := span.columns(line)
	marks := strings.Repeat(" ", displayWidth(line[:start-1])) +
		st.marker(sev, strings.Repeat("^", end-start+1))
	if span.Label != "" {
		marks += " " + st.marker(sev, span.Label)
	}

	fmt.Fprintf(b, " %s\n", blank)
	fmt.Fprintf(b, " %s  %s\n", st.gutter(num+" |"), strings.ReplaceAll(line, "\t", "    "))
	fmt.Fprintf(b, " %s  %s\n", blank, marks)
	fmt.Fprintf(b, " %s\n", blank)
}

// location formats the span's position as file[:line[:col]].
func (s Span) location() string {
	switch {
	case s.Line <= 0:
		return s.File
	case s.Col <= 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// columns returns the first and last 1-based columns of line to underline.
func (s Span) columns(line string) (start, end int) {
	start = s.Col
	if start <= 0 {
		start = 1
	}
	if start > len(line)+1 {
		start = len(line) + 1
	}
	end = s.EndCol
	if end <= 0 {
		end = tokenEnd(line, start)
	}
	if end < start {
		end = start
	}
	return start, end
}

// tokenEnd returns the last column of the token starting at col.
func tokenEnd(line string, col int) int {
	if col > len(line) {
		return col
	}
	i := strings.IndexAny(line[col-1:], tokenDelims)
	switch {
	case i < 0:
		return len(line)
	case i == 0:
		return col
	}
	return col - 1 + i
}

// wrapNote wraps a note to the renderer width, aligning continuation lines
// with the start of the note text.
func (r *Renderer) wrapNote(note string) string {
	if r.Width <= notePrefixWidth {
		return note
	}
	wrapped := wordwrap.String(note, r.Width-notePrefixWidth)
	first, rest, ok := strings.Cut(wrapped, "\n")
	if !ok {
		return first
	}
	return first + "\n" + indent.String(rest, uint(notePrefixWidth))
}

// sourceLine returns line number n of file.  The built-in classes have no
// source to show.
func (r *Renderer) sourceLine(file string, n int) (string, bool) {
	if n <= 0 || file == "" || file == analysis.BasicFile {
		return "", false
	}
	read := r.SourceReader
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(file)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(data), "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

// displayWidth returns the number of columns s occupies once tabs are
// expanded to four spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
			continue
		}
		w++
	}
	return w
}
