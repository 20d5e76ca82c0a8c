// Package style computes the effective style of DOM nodes without a live
// renderer: matched stylesheet rules, inline declarations and utility-class
// heuristics are folded into one flat map per node.
package style

import (
	"strconv"
	"strings"
	"unicode"
)

// Map is the effective style of one node: normalized camelCase property name
// to resolved value. Derived once per node and cached for the duration of a
// single conversion.
type Map map[string]string

// NormalizeProperty converts a CSS property name to the camelCase form used
// as Map keys ("background-color" -> "backgroundColor").
func NormalizeProperty(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if !strings.Contains(name, "-") {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name))
	upper := false
	for _, r := range name {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Get returns the value for a normalized property name.
func (m Map) Get(key string) string {
	return m[key]
}

// Has reports whether the property has any value.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Is reports whether the property value equals the keyword, case-insensitive.
func (m Map) Is(key, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(m[key]), keyword)
}

// Contains reports whether the property value contains the substring,
// case-insensitive.
func (m Map) Contains(key, sub string) bool {
	return strings.Contains(strings.ToLower(m[key]), strings.ToLower(sub))
}

// Color returns the property value normalized to a 6-digit hex string.
// Transparent values report ok=false - the caller falls back to target
// defaults instead of emitting a transparent literal.
func (m Map) Color(key string) (string, bool) {
	return NormalizeColor(m[key])
}

// Length returns numeric size and unit of the property value
// ("1.5em" -> 1.5, "em"). Bare numbers report an empty unit.
func (m Map) Length(key string) (float64, string, bool) {
	v := strings.TrimSpace(m[key])
	if v == "" {
		return 0, "", false
	}
	numEnd := 0
	for i, r := range v {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, "", false
	}
	n, err := strconv.ParseFloat(v[:numEnd], 64)
	if err != nil {
		return 0, "", false
	}
	return n, strings.ToLower(strings.TrimSpace(v[numEnd:])), true
}

// BackgroundImageURL extracts the url() reference from backgroundImage or the
// background shorthand.
func (m Map) BackgroundImageURL() string {
	for _, key := range []string{"backgroundImage", "background"} {
		v := m[key]
		start := strings.Index(v, "url(")
		if start < 0 {
			continue
		}
		rest := v[start+4:]
		end := strings.Index(rest, ")")
		if end < 0 {
			continue
		}
		u := strings.Trim(strings.TrimSpace(rest[:end]), `"'`)
		if u != "" {
			return u
		}
	}
	return ""
}
