package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is an immutable snapshot of one DOM node taken for the duration of
// a single conversion pass.
type Element struct {
	Tag   string            // lower-case tag name
	Attrs map[string]string // attribute map, keys unique and lower-case
	Role  string            // ARIA role if present

	doc  *Document
	node *html.Node
}

// analyze builds an element snapshot. Snapshots are cheap; heavyweight parts
// (inner markup, text) are computed on demand from the retained node.
func (d *Document) analyze(n *html.Node) *Element {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if _, exists := attrs[key]; !exists {
			attrs[key] = a.Val
		}
	}
	return &Element{
		Tag:   strings.ToLower(n.Data),
		Attrs: attrs,
		Role:  strings.ToLower(attrs["role"]),
		doc:   d,
		node:  n,
	}
}

// Document returns the document this element belongs to.
func (e *Element) Document() *Document {
	return e.doc
}

// Attr returns attribute value and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[strings.ToLower(name)]
	return v, ok
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return e.Attrs["id"]
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	return strings.Fields(e.Attrs["class"])
}

// HasClassKeyword reports whether any class contains the given keyword as a
// substring ("btn-primary" matches keyword "btn"). Comparison is
// case-insensitive.
func (e *Element) HasClassKeyword(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, c := range e.Classes() {
		if strings.Contains(strings.ToLower(c), keyword) {
			return true
		}
	}
	return false
}

// Text returns direct text content: child text nodes only, normalized.
func (e *Element) Text() string {
	var parts []string
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// FullText returns all descendant text, normalized.
func (e *Element) FullText() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// InnerHTML returns the inner markup of the element.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(renderNode(c))
	}
	return sb.String()
}

// OuterHTML returns the element markup including the element itself.
func (e *Element) OuterHTML() string {
	return renderNode(e.node)
}

// Children returns direct element children in document order.
func (e *Element) Children() []*Element {
	var children []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, e.doc.analyze(c))
		}
	}
	return children
}

// ChildCount returns the number of direct element children.
func (e *Element) ChildCount() int {
	n := 0
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			n++
		}
	}
	return n
}

// Descendants returns all descendant elements with the given tag in document
// order, the element itself excluded.
func (e *Element) Descendants(tag string) []*Element {
	tag = strings.ToLower(tag)
	var found []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if strings.ToLower(c.Data) == tag {
					found = append(found, e.doc.analyze(c))
				}
				walk(c)
			}
		}
	}
	walk(e.node)
	return found
}

// FirstDescendant returns the first descendant with any of the given tags or
// nil when none exists.
func (e *Element) FirstDescendant(tags ...string) *Element {
	for i := range tags {
		tags[i] = strings.ToLower(tags[i])
	}
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				data := strings.ToLower(c.Data)
				for _, t := range tags {
					if data == t {
						found = c
						return true
					}
				}
				if walk(c) {
					return true
				}
			}
		}
		return false
	}
	if walk(e.node) {
		return e.doc.analyze(found)
	}
	return nil
}

// FirstByClassKeyword returns the first descendant whose class list contains
// the keyword, or nil.
func (e *Element) FirstByClassKeyword(keyword string) *Element {
	keyword = strings.ToLower(keyword)
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				for _, a := range c.Attr {
					if strings.ToLower(a.Key) == "class" && strings.Contains(strings.ToLower(a.Val), keyword) {
						found = c
						return true
					}
				}
				if walk(c) {
					return true
				}
			}
		}
		return false
	}
	if walk(e.node) {
		return e.doc.analyze(found)
	}
	return nil
}

// HasAncestor reports whether any ancestor has the given tag.
func (e *Element) HasAncestor(tag string) bool {
	tag = strings.ToLower(tag)
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.ToLower(p.Data) == tag {
			return true
		}
	}
	return false
}

// Node exposes the underlying parse node for matchers that need it
// (cascadia selector matching). The node must not be mutated.
func (e *Element) Node() *html.Node {
	return e.node
}

// InlineStyle returns the raw style attribute.
func (e *Element) InlineStyle() string {
	return e.Attrs["style"]
}
