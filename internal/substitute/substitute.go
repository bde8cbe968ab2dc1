// Package substitute renders page templates with $-placeholders.
//
// Placeholders are $name or ${name}, where name is an ASCII letter or
// underscore followed by letters, digits or underscores. $$ is a literal $.
// Substitution is safe: a placeholder with no binding, or a $ that does not
// start a placeholder, is copied to the output unchanged. Rendering never fails.
package substitute

import "strings"

// Bindings maps placeholder names to replacement text.
type Bindings map[string]string

// Render substitutes bindings into text.
func Render(text string, bindings Bindings) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		raw, name, ok := scanPlaceholder(text[i:])
		switch {
		case raw == "$$":
			b.WriteByte('$')
		case ok:
			if v, found := bindings[name]; found {
				b.WriteString(v)
			} else {
				b.WriteString(raw)
			}
		default:
			b.WriteString(raw)
		}
		i += len(raw)
	}
	return b.String()
}

// Placeholders returns the distinct placeholder names in text, in order of
// first appearance.
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}
	for i := 0; i < len(text); {
		if text[i] != '$' {
			i++
			continue
		}
		raw, name, ok := scanPlaceholder(text[i:])
		if ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i += len(raw)
	}
	return names
}

// scanPlaceholder reads the token at the start of s, which begins with '$'.
// It returns the raw token text, and the placeholder name when the token is a
// well-formed $name or ${name}. A lone '$' yields raw "$" and ok false.
func scanPlaceholder(s string) (raw, name string, ok bool) {
	if len(s) < 2 {
		return "$", "", false
	}
	switch {
	case s[1] == '$':
		return "$$", "", false
	case s[1] == '{':
		n := identLen(s[2:])
		if n == 0 || len(s) < 3+n || s[2+n] != '}' {
			return "$", "", false
		}
		return s[:3+n], s[2 : 2+n], true
	default:
		n := identLen(s[1:])
		if n == 0 {
			return "$", "", false
		}
		return s[:1+n], s[1 : 1+n], true
	}
}

func identLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if letter || (digit && i > 0) {
			continue
		}
		return i
	}
	return len(s)
}
