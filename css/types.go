package css

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MediaQuery represents a parsed @media query condition.
type MediaQuery struct {
	Raw      string         // Original media query string
	Type     string         // Media type: "all", "screen", "print" or empty
	Negated  bool           // true if "not" modifier was used on main type
	Features []MediaFeature // Additional conditions (e.g., "and (min-width: 768px)")
}

// MediaFeature represents a single media feature condition in a media query.
type MediaFeature struct {
	Name    string  // Feature name (e.g., "min-width")
	Value   float64 // Numeric value in px when applicable
	Negated bool    // true if "not" modifier was used
}

// Evaluate returns true if this media query matches a static desktop render
// at the given viewport width. Conversion has no live device context, so only
// media type and width features participate; unknown features do not match.
func (mq MediaQuery) Evaluate(viewportWidth int) bool {
	var typeMatches bool
	switch strings.ToLower(mq.Type) {
	case "", "all", "screen":
		typeMatches = true
	case "print", "speech":
		typeMatches = false
	default:
		typeMatches = false // Unknown media type
	}

	if mq.Negated {
		typeMatches = !typeMatches
	}

	if !typeMatches {
		return false
	}

	// Evaluate all features (AND logic)
	for _, f := range mq.Features {
		var featureMatches bool
		switch strings.ToLower(f.Name) {
		case "min-width":
			featureMatches = float64(viewportWidth) >= f.Value
		case "max-width":
			featureMatches = float64(viewportWidth) <= f.Value
		case "width":
			featureMatches = float64(viewportWidth) == f.Value
		default:
			featureMatches = false
		}

		if f.Negated {
			featureMatches = !featureMatches
		}

		if !featureMatches {
			return false
		}
	}

	return true
}

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	// If there's a unit, it's definitely numeric
	if v.Unit != "" {
		return true
	}
	// Non-zero value with no keyword is numeric
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	// Check if Raw looks like a numeric value (handles "0" case)
	// We check if Raw is not empty and starts with a digit, dot, or minus
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Selector represents a parsed CSS selector.
// Element/ID/Class describe simple selectors; anything the simple parser
// cannot decompose (combinators, attribute selectors, selector lists inside
// :is() and friends) keeps only Raw with Complex set - such selectors are
// matched through cascadia by the style extractor.
type Selector struct {
	Raw     string // Original selector string
	Element string // Element name (e.g., "p", "h1") or empty
	ID      string // Id without hash (e.g., "main-content") or empty
	Class   string // Class name without dot (e.g., "hero-title") or empty
	Complex bool   // true when the selector needs a real matcher
}

// IsSimple returns true if this is a simple selector (element, id, class or
// a combination of those on a single compound).
func (s Selector) IsSimple() bool {
	return !s.Complex && (s.Element != "" || s.Class != "" || s.ID != "")
}

// BaseName returns the most specific simple component of the selector.
func (s Selector) BaseName() string {
	switch {
	case s.ID != "":
		return s.ID
	case s.Class != "":
		return s.Class
	case s.Element != "":
		return s.Element
	default:
		return s.Raw
	}
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   Selector         // Parsed selector
	Properties map[string]Value // Property name -> value
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r Rule) GetProperty(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Family string // font-family value
	Src    string // src value (URL or local reference)
	Style  string // font-style: normal, italic
	Weight string // font-weight: normal, bold, 400, 700
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule, MediaBlock, FontFace or Import is non-nil.
type StylesheetItem struct {
	Rule       *Rule       // A plain rule (selector + properties)
	MediaBlock *MediaBlock // A @media block containing nested rules
	FontFace   *FontFace   // A @font-face declaration
	Import     *string     // An @import URL
}

// MediaBlock represents a @media block with its query and nested rules.
type MediaBlock struct {
	Query MediaQuery
	Rules []Rule
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for unsupported features
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// FontFaces returns all @font-face declarations from the stylesheet in source
// order. Only font-faces with a non-empty Family are included.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// RulesBySelector returns all top-level rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.Raw == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// ActiveRules returns every rule that applies at the given viewport width in
// source order: top-level rules plus rules from matching @media blocks.
// Source order matters - the style extractor resolves conflicts by letting
// later rules win.
func (s *Stylesheet) ActiveRules(viewportWidth int) []Rule {
	var rules []Rule
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			rules = append(rules, *item.Rule)
		case item.MediaBlock != nil:
			if item.MediaBlock.Query.Evaluate(viewportWidth) {
				rules = append(rules, item.MediaBlock.Rules...)
			}
		}
	}
	return rules
}

// urlRewritePattern matches url() references in CSS values for RewriteURLs.
// Handles: url("path"), url('path'), url(path)
var urlRewritePattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// AssetURLs returns every url() reference and @import/@font-face source in the
// stylesheet. Used by asset verification.
func (s *Stylesheet) AssetURLs() []string {
	var urls []string
	seen := make(map[string]struct{})
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || strings.HasPrefix(u, "data:") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	collect := func(value string) {
		for _, m := range urlRewritePattern.FindAllStringSubmatch(value, -1) {
			if m[1] != "" {
				add(m[1])
			} else {
				add(m[2])
			}
		}
	}
	for _, item := range s.Items {
		switch {
		case item.Import != nil:
			add(*item.Import)
		case item.FontFace != nil:
			collect(item.FontFace.Src)
		case item.Rule != nil:
			for _, v := range item.Rule.Properties {
				collect(v.Raw)
			}
		case item.MediaBlock != nil:
			for _, r := range item.MediaBlock.Rules {
				for _, v := range r.Properties {
					collect(v.Raw)
				}
			}
		}
	}
	return urls
}

// RewriteURLs walks all URL references in the stylesheet and applies fn to each.
// This covers @import URLs, @font-face src, and url() references in rule properties.
func (s *Stylesheet) RewriteURLs(fn func(originalURL string) string) {
	for i := range s.Items {
		item := &s.Items[i]

		switch {
		case item.Import != nil:
			newURL := fn(*item.Import)
			item.Import = &newURL

		case item.FontFace != nil:
			item.FontFace.Src = rewriteURLsInValue(item.FontFace.Src, fn)

		case item.Rule != nil:
			rewriteURLsInProperties(item.Rule.Properties, fn)

		case item.MediaBlock != nil:
			for j := range item.MediaBlock.Rules {
				rewriteURLsInProperties(item.MediaBlock.Rules[j].Properties, fn)
			}
		}
	}
}

// rewriteURLsInProperties rewrites url() references in property values.
func rewriteURLsInProperties(props map[string]Value, fn func(string) string) {
	for name, val := range props {
		if strings.Contains(val.Raw, "url(") {
			val.Raw = rewriteURLsInValue(val.Raw, fn)
			if val.Keyword != "" && strings.Contains(val.Keyword, "url(") {
				val.Keyword = rewriteURLsInValue(val.Keyword, fn)
			}
			props[name] = val
		}
	}
}

// rewriteURLsInValue replaces url() references in a CSS value string.
func rewriteURLsInValue(value string, fn func(string) string) string {
	return urlRewritePattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlRewritePattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// Group 1 is quoted URL, group 2 is unquoted URL
		originalURL := sub[1]
		if originalURL == "" {
			originalURL = sub[2]
		}
		originalURL = strings.TrimSpace(originalURL)
		newURL := fn(originalURL)
		return fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(newURL))
	})
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		switch {
		case item.Import != nil:
			n, err = fmt.Fprintf(w, "@import url(\"%s\");\n", cssEscapeDoubleQuoted(*item.Import))
		case item.FontFace != nil:
			n, err = writeFontFace(w, item.FontFace)
		case item.MediaBlock != nil:
			n, err = writeMediaBlock(w, item.MediaBlock)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule)
		}

		total += int64(n)
		if err != nil {
			return total, err
		}

		// Add blank line between items (except after last)
		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule to w.
func writeRule(w io.Writer, rule *Rule) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", rule.Selector.Raw)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeProperties(w, rule.Properties, "  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// writeProperties writes property declarations sorted alphabetically.
func writeProperties(w io.Writer, props map[string]Value, indent string) (int, error) {
	// Sort property names for deterministic output
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int
	for _, name := range names {
		val := props[name]
		n, err := fmt.Fprintf(w, "%s%s: %s;\n", indent, name, val.Raw)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeFontFace writes an @font-face block to w.
func writeFontFace(w io.Writer, ff *FontFace) (int, error) {
	var total int
	n, err := fmt.Fprint(w, "@font-face {\n")
	total += n
	if err != nil {
		return total, err
	}

	// Write properties in a stable order
	if ff.Family != "" {
		n, err = fmt.Fprintf(w, "  font-family: \"%s\";\n", cssEscapeDoubleQuoted(ff.Family))
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Src != "" {
		n, err = fmt.Fprintf(w, "  src: %s;\n", ff.Src)
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Style != "" {
		n, err = fmt.Fprintf(w, "  font-style: %s;\n", ff.Style)
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Weight != "" {
		n, err = fmt.Fprintf(w, "  font-weight: %s;\n", ff.Weight)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// writeMediaBlock writes an @media block to w.
func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query.Raw)
	total += n
	if err != nil {
		return total, err
	}

	for i, rule := range mb.Rules {
		n, err = fmt.Fprintf(w, "  %s {\n", rule.Selector.Raw)
		total += n
		if err != nil {
			return total, err
		}

		n, err = writeProperties(w, rule.Properties, "    ")
		total += n
		if err != nil {
			return total, err
		}

		n, err = fmt.Fprint(w, "  }\n")
		total += n
		if err != nil {
			return total, err
		}

		// Blank line between rules in a media block (except after last)
		if i < len(mb.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
