package cache

import (
	"fmt"
	"os"
	"strings"
)

// ParseDepFile reads a GNU-make-syntax dependency file ("target: dep
// dep \\\n dep ...") and returns every prerequisite path it lists,
// including the source file itself. Backslash-continued lines and
// backslash-escaped spaces in paths are handled; duplicate entries are
// collapsed preserving first-seen order.
func ParseDepFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDepData(string(data)), nil
}

func parseDepData(data string) []string {
	// Join continuation lines first so the prerequisite list is one
	// logical line per rule.
	data = strings.ReplaceAll(data, "\\\r\n", " ")
	data = strings.ReplaceAll(data, "\\\n", " ")

	var deps []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(data, "\n") {
		colon := depRuleColon(line)
		if colon < 0 {
			continue
		}
		for _, tok := range splitDepTokens(line[colon+1:]) {
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			deps = append(deps, tok)
		}
	}
	return deps
}

// depRuleColon finds the rule separator ':' while skipping Windows drive
// letters ("C:\...") in the target path.
func depRuleColon(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		// "C:\" or "C:/" is a drive letter, not a rule separator.
		if i == 1 && i+1 < len(line) && (line[i+1] == '\\' || line[i+1] == '/') {
			continue
		}
		return i
	}
	return -1
}

// splitDepTokens splits a prerequisite list on unescaped whitespace,
// unescaping "\ " sequences inside paths.
func splitDepTokens(s string) []string {
	var out []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == ' ':
			cur.WriteByte(' ')
			i++
		case c == ' ' || c == '\t' || c == '\r':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// WriteDepFile writes a GNU-make-syntax dependency file equivalent to
// what -MMD would have produced: one rule mapping objectPath to the
// source plus every header, followed by empty phony rules so deleted
// headers don't break later make runs (-MP's behavior).
func WriteDepFile(path, objectPath string, deps []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", escapeDepPath(objectPath))
	for _, d := range deps {
		fmt.Fprintf(&b, " \\\n  %s", escapeDepPath(d))
	}
	b.WriteString("\n")
	if len(deps) > 1 {
		for _, d := range deps[1:] {
			fmt.Fprintf(&b, "\n%s:\n", escapeDepPath(d))
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func escapeDepPath(p string) string {
	return strings.ReplaceAll(p, " ", "\\ ")
}

// ParseShowIncludes extracts header paths from MSVC /showIncludes stdout
// lines ("Note: including file:   C:\path\to\header.h", localized builds
// substitute the prefix, which the caller supplies). Returned paths have
// the prefix and leading indentation stripped.
func ParseShowIncludes(output, prefix string) (headers []string, remainder []string) {
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, prefix) {
			h := strings.TrimSpace(line[len(prefix):])
			if h != "" && !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
			continue
		}
		remainder = append(remainder, line)
	}
	return headers, remainder
}
