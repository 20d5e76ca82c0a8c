package recognize

import (
	"strings"

	"pbc/dom"
	"pbc/style"
)

// Component binds a classification to its originating element plus the
// generic props every mapper can rely on. Components live for the duration
// of one conversion and are not persisted.
type Component struct {
	Element *dom.Element `json:"-"`
	Styles  style.Map    `json:"-"`
	Result  Result       `json:"recognition"`

	Text      string `json:"text,omitempty"`
	Href      string `json:"href,omitempty"`
	Src       string `json:"src,omitempty"`
	Alt       string `json:"alt,omitempty"`
	Title     string `json:"title,omitempty"`
	AboveFold bool   `json:"aboveFold,omitempty"`
}

// Bind builds a component from a classified element, extracting the generic
// props from the node and its nearest relevant descendants.
func Bind(el *dom.Element, styles style.Map, res Result, ctx Context) *Component {
	c := &Component{Element: el, Styles: styles, Result: res, AboveFold: ctx.AboveFold}
	if el == nil {
		return c
	}

	c.Text = strings.TrimSpace(el.FullText())
	c.Title, _ = el.Attr("title")

	if href, ok := el.Attr("href"); ok {
		c.Href = href
	} else if a := el.FirstDescendant("a"); a != nil {
		c.Href, _ = a.Attr("href")
	}

	if src, ok := el.Attr("src"); ok {
		c.Src = src
		c.Alt, _ = el.Attr("alt")
	} else if img := el.FirstDescendant("img"); img != nil {
		c.Src, _ = img.Attr("src")
		c.Alt, _ = img.Attr("alt")
	}
	if c.Src == "" {
		if bg := styles.BackgroundImageURL(); bg != "" {
			c.Src = bg
		}
	}
	return c
}
