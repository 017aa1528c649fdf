package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder represents a single {{VAR:...}} occurrence with parsed options.
type Placeholder struct {
	Raw     string
	Name    string
	Options map[string]string // join, default
}

// Vars maps placeholder names to their values. Multi-valued entries are
// joined with the placeholder's join option (newline when absent).
type Vars map[string][]string

var (
	// Matches {{VAR:name|key=value|key2="quoted value"}}
	varPattern = regexp.MustCompile(`\{\{VAR:([a-zA-Z0-9_\-]+)((?:\|[^}]+)?)}}`)
	optPattern = regexp.MustCompile(`\|([^=|]+)=([^|]+)`)
)

// ParsePlaceholders returns all placeholder occurrences in order of appearance.
func ParsePlaceholders(body string) []Placeholder {
	matches := varPattern.FindAllStringSubmatch(body, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		out = append(out, Placeholder{Raw: m[0], Name: m[1], Options: parseOptions(m[2])})
	}
	return out
}

func parseOptions(raw string) map[string]string {
	opts := map[string]string{}
	for _, seg := range optPattern.FindAllStringSubmatch(raw, -1) {
		key := strings.ToLower(strings.TrimSpace(seg[1]))
		val := strings.TrimSpace(seg[2])
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
			val = val[1 : len(val)-1]
		}
		opts[key] = decodeEscapes(val)
	}
	return opts
}

// Render substitutes every placeholder in body. A placeholder with no value
// and no default is an error so an incomplete prompt never reaches the model.
func Render(body string, vars Vars) (string, error) {
	var missing []string
	out := varPattern.ReplaceAllStringFunc(body, func(raw string) string {
		m := varPattern.FindStringSubmatch(raw)
		name, opts := m[1], parseOptions(m[2])

		sep, ok := opts["join"]
		if !ok {
			sep = "\n"
		}
		values, present := vars[name]
		joined := strings.Join(values, sep)
		if joined == "" {
			if def, ok := opts["default"]; ok {
				return def
			}
			if !present {
				missing = append(missing, name)
			}
		}
		return joined
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved prompt variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// decodeEscapes handles \n, \t, \r and \\; other sequences are kept as-is
func decodeEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	esc := false
	for _, r := range s {
		if !esc {
			if r == '\\' {
				esc = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
		esc = false
	}
	if esc {
		b.WriteByte('\\')
	}
	return b.String()
}
