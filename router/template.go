package router

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// patternMacros maps macro names to their patterns. Used in route variable
// definitions: {name:macro}.
var patternMacros = map[string]string{
	"uuid":     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"int":      `[0-9]+`,
	"float":    `[0-9]*\.?[0-9]+`,
	"slug":     `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`,
	"alpha":    `[a-zA-Z]+`,
	"alphanum": `[a-zA-Z0-9]+`,
	"date":     `[0-9]{4}-[0-9]{2}-[0-9]{2}`,
	"hex":      `[0-9a-fA-F]+`,
}

// expandMacro returns the pattern of a macro name, or the input unchanged
// when it is a raw regular expression.
func expandMacro(pattern string) string {
	if p, ok := patternMacros[pattern]; ok {
		return p
	}
	return pattern
}

// pathTemplate is a parsed route path template.
type pathTemplate struct {
	raw  string
	vars []string
}

// parseTemplate parses a path template such as "/employees/{id:int}" and
// checks that it compiles. Variables without a pattern match a single path
// segment.
func parseTemplate(tpl string) (*pathTemplate, error) {
	if !strings.HasPrefix(tpl, "/") {
		return nil, fmt.Errorf("router: path %q must start with a slash", tpl)
	}

	idxs, err := braceIndices(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern bytes.Buffer
		vars    []string
		end     int
	)
	pattern.WriteByte('^')

	for i := 0; i < len(idxs); i += 2 {
		raw := tpl[end:idxs[i]]
		end = idxs[i+1]

		name, patt, hasPattern := strings.Cut(tpl[idxs[i]+1:end-1], ":")
		if name == "" {
			return nil, fmt.Errorf("router: missing name in %q from %q", tpl[idxs[i]:end], tpl)
		}
		if hasPattern {
			patt = expandMacro(patt)
		} else {
			patt = "[^/]+"
		}
		if _, err := regexp.Compile("^" + patt + "$"); err != nil {
			return nil, fmt.Errorf("router: invalid pattern %q in variable %q: %w", patt, name, err)
		}

		fmt.Fprintf(&pattern, "%s(%s)", regexp.QuoteMeta(raw), patt)
		vars = append(vars, name)
	}
	pattern.WriteString(regexp.QuoteMeta(tpl[end:]))
	pattern.WriteByte('$')

	if err := checkDuplicateVars(vars); err != nil {
		return nil, err
	}

	if _, err := regexp.Compile(pattern.String()); err != nil {
		return nil, fmt.Errorf("router: invalid path %q: %w", tpl, err)
	}

	return &pathTemplate{raw: tpl, vars: vars}, nil
}

// braceIndices returns the start and end+1 indices of each top-level
// {...} pair in s. Returns an error if braces are unbalanced.
func braceIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '}':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("router: unbalanced braces in %q", s)
			}
		}
	}
	if level != 0 {
		return nil, fmt.Errorf("router: unbalanced braces in %q", s)
	}
	return idxs, nil
}

// checkDuplicateVars returns an error if any variable name is repeated.
func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("router: duplicated route variable %q", v)
		}
		seen[v] = true
	}
	return nil
}

// joinPath joins a prefix and a template without doubling slashes.
func joinPath(prefix, tpl string) string {
	if prefix == "" {
		return tpl
	}
	if tpl == "" || tpl == "/" {
		return prefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(tpl, "/")
}
