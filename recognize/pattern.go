package recognize

import (
	"regexp"
	"strings"

	"pbc/dom"
	"pbc/style"
)

// Structure is a closed set of structural predicates over an element's
// subtree. Keeping the set closed and interpreting it in one place makes
// patterns pure data.
type Structure int

const (
	StructureAny      Structure = iota // no structural constraint
	StructureHero                      // heading, paragraph over 20 chars, and a link or button
	StructureLinkList                  // three or more short-text anchors
	StructureCard                      // image plus heading plus some text
	StructureIconText                  // icon element accompanied by text
	StructureNumeric                   // dominant text content is a number
	StructureFlip                      // front and back halves
	StructureSocial                    // two or more anchors into social networks
	StructureRepeated                  // three or more same-tag non-leaf children
)

// CSSOp is a comparison applied to one resolved style property.
type CSSOp int

const (
	CSSSet      CSSOp = iota // property has any value
	CSSIs                    // property equals value, case-insensitive
	CSSContains              // property value contains value as substring
)

// CSSCondition is one style-property constraint of a pattern.
type CSSCondition struct {
	Property string
	Op       CSSOp
	Value    string
}

func (c CSSCondition) holds(styles style.Map) bool {
	switch c.Op {
	case CSSSet:
		return styles.Has(c.Property) && !styles.Is(c.Property, "none")
	case CSSIs:
		return styles.Is(c.Property, c.Value)
	case CSSContains:
		return styles.Contains(c.Property, c.Value)
	}
	return false
}

// AttrCondition constrains one element attribute to a closed value set,
// compared case-insensitively. A missing attribute never satisfies the
// condition.
type AttrCondition struct {
	Name   string
	Values []string
}

func (a AttrCondition) holds(el *dom.Element) bool {
	v, ok := el.Attr(a.Name)
	if !ok {
		return false
	}
	v = strings.TrimSpace(v)
	for _, want := range a.Values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// Context carries the ambient facts recognition depends on beyond the node
// itself. The caller computes it once per node during the hierarchy walk.
type Context struct {
	InForm    bool // node is inside a <form>
	AboveFold bool // node is among the first elements of the page
}

// Pattern is one declarative recognition rule. A pattern fires only when all
// of its specified matcher fields hold; zero-valued fields are not
// constraints. Tags act as a gate: when the tag does not match, no other
// predicate is evaluated.
type Pattern struct {
	Name          string          // stable identifier, reported as recognition reason
	Kind          Kind            // component kind this pattern votes for
	Tags          []string        // node tag must be one of these
	ClassKeywords []string        // at least one keyword appears in the class list
	ARIARole      string          // role attribute must equal this
	Attrs         []AttrCondition // every attribute condition must hold
	InForm        *bool           // form membership must equal this
	Content       *regexp.Regexp  // full text content must match
	Structure     Structure       // structural predicate over the subtree
	CSS           []CSSCondition  // every condition must hold
	Confidence    int             // base confidence, 0-100
	Priority      int             // tie break among equally confident patterns
}

// Matches evaluates the pattern against one node. The tag gate runs first so
// structural and CSS predicates are only paid for plausible candidates.
func (p *Pattern) Matches(el *dom.Element, styles style.Map, ctx Context) bool {
	if len(p.Tags) > 0 {
		found := false
		for _, t := range p.Tags {
			if el.Tag == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(p.ClassKeywords) > 0 {
		found := false
		for _, kw := range p.ClassKeywords {
			if el.HasClassKeyword(kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.ARIARole != "" {
		if role, _ := el.Attr("role"); !strings.EqualFold(role, p.ARIARole) {
			return false
		}
	}
	for _, cond := range p.Attrs {
		if !cond.holds(el) {
			return false
		}
	}
	if p.InForm != nil && *p.InForm != ctx.InForm {
		return false
	}
	if p.Content != nil && !p.Content.MatchString(el.FullText()) {
		return false
	}
	if p.Structure != StructureAny && !structureHolds(p.Structure, el) {
		return false
	}
	for _, cond := range p.CSS {
		if !cond.holds(styles) {
			return false
		}
	}
	return true
}

func structureHolds(s Structure, el *dom.Element) bool {
	switch s {
	case StructureHero:
		if el.FirstDescendant("h1", "h2") == nil {
			return false
		}
		long := false
		for _, p := range el.Descendants("p") {
			if len(strings.TrimSpace(p.FullText())) > 20 {
				long = true
				break
			}
		}
		if !long {
			return false
		}
		return el.FirstDescendant("button", "a") != nil
	case StructureLinkList:
		return countShortAnchors(el) >= 3
	case StructureCard:
		if el.FirstDescendant("img", "picture", "svg") == nil {
			return false
		}
		if el.FirstDescendant("h1", "h2", "h3", "h4", "h5", "h6") == nil {
			return false
		}
		return strings.TrimSpace(el.FullText()) != ""
	case StructureIconText:
		icon := el.FirstDescendant("i", "svg")
		if icon == nil {
			icon = el.FirstByClassKeyword("icon")
		}
		return icon != nil && strings.TrimSpace(el.FullText()) != ""
	case StructureNumeric:
		return numericContent.MatchString(strings.TrimSpace(el.FullText()))
	case StructureFlip:
		return el.FirstByClassKeyword("front") != nil && el.FirstByClassKeyword("back") != nil
	case StructureSocial:
		return countSocialAnchors(el) >= 2
	case StructureRepeated:
		counts := make(map[string]int)
		for _, c := range el.Children() {
			if c.ChildCount() > 0 {
				counts[c.Tag]++
			}
		}
		for _, n := range counts {
			if n >= 3 {
				return true
			}
		}
		return false
	}
	return true
}

var numericContent = regexp.MustCompile(`^[0-9][0-9,.\s]*[+%]?$`)

var socialHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com",
	"linkedin.com", "youtube.com", "tiktok.com", "pinterest.com",
}

func countShortAnchors(el *dom.Element) int {
	n := 0
	for _, a := range el.Descendants("a") {
		text := strings.TrimSpace(a.FullText())
		if text != "" && len(text) <= 30 {
			n++
		}
	}
	return n
}

func countSocialAnchors(el *dom.Element) int {
	n := 0
	for _, a := range el.Descendants("a") {
		href, _ := a.Attr("href")
		href = strings.ToLower(href)
		for _, host := range socialHosts {
			if strings.Contains(href, host) {
				n++
				break
			}
		}
	}
	return n
}
