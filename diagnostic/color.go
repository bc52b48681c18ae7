// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"io"

	"github.com/muesli/termenv"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when w is a terminal and NO_COLOR is unset
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// styles paints the parts of a rendered diagnostic.
type styles struct {
	profile termenv.Profile
}

func newStyles(mode ColorMode, w io.Writer) styles {
	switch mode {
	case ColorAlways:
		return styles{profile: termenv.ANSI}
	case ColorNever:
		return styles{profile: termenv.Ascii}
	}
	return styles{profile: termenv.NewOutput(w).EnvColorProfile()}
}

func (st styles) paint(s string, c termenv.Color) string {
	return st.profile.String(s).Foreground(c).Bold().String()
}

func severityColor(sev Severity) termenv.Color {
	switch sev {
	case SeverityWarning:
		return termenv.ANSIYellow
	case SeverityNote:
		return termenv.ANSICyan
	}
	return termenv.ANSIRed
}

func (st styles) severity(sev Severity) string {
	return st.paint(sev.String(), severityColor(sev))
}

func (st styles) marker(sev Severity, s string) string {
	return st.paint(s, severityColor(sev))
}

func (st styles) message(s string) string {
	return st.profile.String(s).Bold().String()
}

func (st styles) gutter(s string) string {
	return st.paint(s, termenv.ANSIBlue)
}

func (st styles) note(s string) string {
	return st.paint(s, termenv.ANSICyan)
}
