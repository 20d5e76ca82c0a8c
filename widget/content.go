package widget

import (
	"strconv"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"pbc/dom"
	"pbc/recognize"
)

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// descriptionLimit bounds widget body copy. Page builders render long
// descriptions poorly, so anything over the limit is cut to its leading
// sentences.
const descriptionLimit = 240

var newTokenizer = sync.OnceValue(func() *sentences.DefaultSentenceTokenizer {
	t, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil
	}
	return t
})

// firstSentences keeps whole leading sentences of text up to limit. At least
// one sentence always survives even when it alone is over the limit.
func firstSentences(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	tok := newTokenizer()
	if tok == nil {
		return text
	}
	var out strings.Builder
	for _, s := range tok.Tokenize(text) {
		t := strings.TrimSpace(s.Text)
		if out.Len() > 0 && out.Len()+len(t)+1 > limit {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(t)
	}
	if out.Len() == 0 {
		return text
	}
	return out.String()
}

// titleOf extracts a component's title following a fixed selector priority:
// explicit data-title attribute, first heading tag, first title-classed
// element, empty string. The fixed order keeps extraction deterministic
// across markup quirks.
func titleOf(c *recognize.Component) string {
	el := c.Element
	if el == nil {
		return ""
	}
	if v, ok := el.Attr("data-title"); ok {
		return strings.TrimSpace(v)
	}
	if h := el.FirstDescendant(headingTags...); h != nil {
		return strings.TrimSpace(h.FullText())
	}
	if t := el.FirstByClassKeyword("title"); t != nil {
		return strings.TrimSpace(t.FullText())
	}
	return ""
}

// descriptionOf extracts body copy: explicit data-description attribute,
// first paragraph, first description-classed element, empty string.
func descriptionOf(c *recognize.Component) string {
	el := c.Element
	if el == nil {
		return ""
	}
	if v, ok := el.Attr("data-description"); ok {
		return strings.TrimSpace(v)
	}
	if p := el.FirstDescendant("p"); p != nil {
		return firstSentences(strings.TrimSpace(p.FullText()), descriptionLimit)
	}
	if d := el.FirstByClassKeyword("desc"); d != nil {
		return firstSentences(strings.TrimSpace(d.FullText()), descriptionLimit)
	}
	return ""
}

// linkOf builds the target-schema link for a component's href. A URL is
// external when its origin differs from the document's; relative and hash
// URLs are always internal.
func linkOf(c *recognize.Component) Link {
	if c.Href == "" {
		return Link{}
	}
	l := Link{URL: c.Href}
	if el := c.Element; el != nil {
		l.IsExternal = el.Document().IsExternalURL(c.Href)
		if rel, ok := relOf(el); ok && strings.Contains(rel, "nofollow") {
			l.Nofollow = true
		}
	}
	return l
}

func relOf(el *dom.Element) (string, bool) {
	if rel, ok := el.Attr("rel"); ok {
		return strings.ToLower(rel), true
	}
	if a := el.FirstDescendant("a"); a != nil {
		rel, ok := a.Attr("rel")
		return strings.ToLower(rel), ok
	}
	return "", false
}

// colorSetting stores a normalized hex color under key when the component's
// style has a usable value. Transparent and unparseable colors stay unset so
// the target falls back to its own defaults.
func colorSetting(settings map[string]any, key string, c *recognize.Component, prop string) {
	if hex, ok := c.Styles.Color(prop); ok {
		settings[key] = hex
	}
}

// numberIn pulls the first integer out of a text like "1,250+ customers".
func numberIn(text string) (int, bool) {
	var digits strings.Builder
	seen := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			seen = true
			continue
		}
		if seen && r != ',' && r != '.' && r != ' ' {
			break
		}
	}
	if !seen {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// severityIn maps Bootstrap-style suffix classes to the target's alert
// types. Unmatched markup defaults to info.
func severityIn(el *dom.Element) string {
	if el == nil {
		return "info"
	}
	for _, c := range el.Classes() {
		c = strings.ToLower(c)
		for _, s := range []string{"success", "info", "warning", "danger", "error"} {
			if strings.HasSuffix(c, "-"+s) || c == s {
				if s == "error" {
					return "danger"
				}
				return s
			}
		}
	}
	return "info"
}
