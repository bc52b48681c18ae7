// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/parser/token"
)

// sessionCompleter implements readline.AutoCompleter by enumerating the
// names known to a session.
type sessionCompleter struct {
	session *Session
}

func (c *sessionCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to a delimiter).
	start := pos
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	var before rune
	if start > 0 {
		before = line[start-1]
	}
	if prefix == "" && before != '.' && before != '@' {
		return nil, 0
	}

	candidates := c.collect(string(line[:start]), prefix, before)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

func (c *sessionCompleter) collect(head, prefix string, before rune) []string {
	var names []string
	switch {
	case strings.HasPrefix(head, ":") && !strings.Contains(head, " "):
		for _, cmd := range commandHelp {
			names = append(names, strings.Fields(cmd.name)[0])
		}
	case before == '@' || isTypeStart(prefix):
		names = c.session.Hierarchy().Types()
	case before == '.':
		names = c.session.Methods(c.receiverType(head[:len(head)-1]))
	default:
		names = c.session.Methods(c.session.Class())
		for kw := range token.Keywords {
			names = append(names, kw)
		}
		names = append(names, "self", "true", "false")
	}
	return filterPrefix(names, prefix)
}

// receiverType guesses the type of the expression ending head from its
// last word.  Unrecognised receivers are typed as Object.
func (c *sessionCompleter) receiverType(head string) string {
	fields := strings.FieldsFunc(head, func(r rune) bool { return !isWordRune(r) && r != '@' })
	if len(fields) == 0 {
		return c.session.Class()
	}
	last := fields[len(fields)-1]
	if i := strings.LastIndexByte(last, '@'); i >= 0 {
		return last[i+1:]
	}
	if len(fields) >= 2 && strings.EqualFold(fields[len(fields)-2], "new") {
		return last
	}
	if last == "self" {
		return c.session.Class()
	}
	attrs, _ := c.session.Hierarchy().Attributes(c.session.Class())
	for _, v := range attrs {
		if v.Decl.Name == last {
			return analysis.Resolve(v.Decl.Type, c.session.Class())
		}
	}
	return analysis.RootType
}

func filterPrefix(names []string, prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

func isTypeStart(prefix string) bool {
	return prefix != "" && prefix[0] >= 'A' && prefix[0] <= 'Z'
}

func isWordRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
