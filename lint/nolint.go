// Copyright © 2024 The ELPS authors

package lint

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// nolintPattern matches a nolint directive in a line comment or at the start
// of a block comment, with an optional comma separated list of analyzers.
var nolintPattern = regexp.MustCompile(`(?:--|\(\*)\s*nolint(?::([\w,\- ]+))?`)

// nolintDirectives maps each line carrying a nolint comment to its
// directive.  An empty directive suppresses every analyzer.
func nolintDirectives(source []byte) map[int]string {
	lines := make(map[int]string)
	sc := bufio.NewScanner(bytes.NewReader(source))
	for n := 1; sc.Scan(); n++ {
		m := nolintPattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		lines[n] = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "*)"))
	}
	return lines
}

// suppressed reports whether a nolint directive on the diagnostic's line
// names its analyzer or names none.
func suppressed(d Diagnostic, directives map[int]string) bool {
	directive, ok := directives[d.Pos.Line]
	if !ok {
		return false
	}
	if directive == "" {
		return true
	}
	for _, name := range strings.Split(directive, ",") {
		if strings.TrimSpace(name) == d.Analyzer {
			return true
		}
	}
	return false
}
