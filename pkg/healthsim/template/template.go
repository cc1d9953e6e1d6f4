// Package template renders short name templates such as
// "Claim for ${diagnosis_code}" against event parameters.
//
// A placeholder is ${name} or ${name:-fallback}. Names follow identifier
// rules. A placeholder whose variable is missing renders its fallback, or
// stays as written when it has none. "$$" renders a literal "$".
package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every Parse error.
var ErrSyntax = errors.New("template syntax")

type part struct {
	literal  string
	name     string
	fallback *string
	raw      string
}

// Template is a parsed template. It is immutable and safe for concurrent use.
type Template struct {
	src   string
	parts []part
}

// Parse compiles s.
func Parse(s string) (*Template, error) {
	t := &Template{src: s}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' {
			lit.WriteByte(c)
			continue
		}
		switch {
		case i+1 < len(s) && s[i+1] == '$':
			lit.WriteByte('$')
			i++
		case i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated placeholder at offset %d in %q", ErrSyntax, i, s)
			}
			body := s[i+2 : i+2+end]
			p, err := parsePlaceholder(body)
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, s)
			}
			p.raw = s[i : i+3+end]
			flush()
			t.parts = append(t.parts, p)
			i += 2 + end
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

func parsePlaceholder(body string) (part, error) {
	name, fallback, hasFallback := strings.Cut(body, ":-")
	if !isIdent(name) {
		return part{}, fmt.Errorf("%w: bad variable name %q", ErrSyntax, name)
	}
	p := part{name: name}
	if hasFallback {
		p.fallback = &fallback
	}
	return p, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Must is like Parse but panics on error.
func Must(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes vars into the template.
func (t *Template) Render(vars map[string]any) string {
	var b strings.Builder
	for _, p := range t.parts {
		switch {
		case p.name == "":
			b.WriteString(p.literal)
		default:
			if v, ok := vars[p.name]; ok && v != nil {
				fmt.Fprint(&b, v)
			} else if p.fallback != nil {
				b.WriteString(*p.fallback)
			} else {
				b.WriteString(p.raw)
			}
		}
	}
	return b.String()
}

// Vars returns the variable names in order of first use.
func (t *Template) Vars() []string {
	var names []string
	seen := map[string]bool{}
	for _, p := range t.parts {
		if p.name != "" && !seen[p.name] {
			seen[p.name] = true
			names = append(names, p.name)
		}
	}
	return names
}

func (t *Template) String() string { return t.src }
