package recognize

import (
	"fmt"
	"regexp"
)

// Library is an ordered, read-only set of recognition patterns. Order is the
// final tie break, so the library is built once at process start and never
// mutated afterwards.
type Library struct {
	patterns []Pattern
}

// NewLibrary builds a library from an explicit pattern list, keeping
// declaration order.
func NewLibrary(patterns []Pattern) *Library {
	return &Library{patterns: patterns}
}

// Patterns returns the pattern list in declaration order.
func (l *Library) Patterns() []Pattern {
	return l.patterns
}

// AmbiguousPairs reports pattern pairs that the resolution rules cannot
// order deterministically by anything but declaration position: equal
// confidence, equal priority, and tag gates that can select the same node.
// The default library must report none; a failing lint means a new pattern
// needs a distinct priority, not a silent insertion-order dependency.
func (l *Library) AmbiguousPairs() []string {
	var out []string
	for i := range l.patterns {
		for j := i + 1; j < len(l.patterns); j++ {
			a, b := &l.patterns[i], &l.patterns[j]
			if a.Confidence == b.Confidence && a.Priority == b.Priority && tagsOverlap(a.Tags, b.Tags) {
				out = append(out, fmt.Sprintf("%s / %s", a.Name, b.Name))
			}
		}
	}
	return out
}

func tagsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func boolPtr(v bool) *bool { return &v }

var ctaText = regexp.MustCompile(`(?i)\b(get started|sign up|subscribe|buy now|learn more|try (it|now|free)|join)\b`)

// DefaultLibrary returns the built-in pattern set. Priorities are distinct
// across the whole set so no pair ever falls through to declaration order.
func DefaultLibrary() *Library {
	return NewLibrary([]Pattern{
		{
			Name: "hero-structure", Kind: KindHero,
			Tags:      []string{"section", "div", "header"},
			Structure: StructureHero,
			CSS:       []CSSCondition{{Property: "backgroundImage", Op: CSSSet}},
			Confidence: 95, Priority: 200,
		},
		{
			Name: "hero-class", Kind: KindHero,
			Tags:          []string{"section", "div", "header"},
			ClassKeywords: []string{"hero", "jumbotron", "masthead", "banner"},
			Confidence:    85, Priority: 195,
		},
		{
			Name: "header-tag", Kind: KindHeader,
			Tags:       []string{"header"},
			Confidence: 80, Priority: 190,
		},
		{
			Name: "header-class", Kind: KindHeader,
			Tags:          []string{"div", "nav"},
			ClassKeywords: []string{"site-header", "navbar", "topbar"},
			Confidence:    75, Priority: 185,
		},
		{
			Name: "menu-nav", Kind: KindMenu,
			Tags:      []string{"nav", "ul"},
			Structure: StructureLinkList,
			Confidence: 90, Priority: 180,
		},
		{
			Name: "menu-role", Kind: KindMenu,
			ARIARole:  "navigation",
			Structure: StructureLinkList,
			Confidence: 85, Priority: 175,
		},
		{
			Name: "menu-class", Kind: KindMenu,
			Tags:          []string{"div", "ul"},
			ClassKeywords: []string{"menu", "nav"},
			Structure:     StructureLinkList,
			Confidence:    80, Priority: 170,
		},
		{
			Name: "submit-button", Kind: KindSubmitButton,
			Tags:       []string{"button"},
			InForm:     boolPtr(true),
			Confidence: 92, Priority: 165,
		},
		{
			Name: "submit-input", Kind: KindSubmitButton,
			Tags:   []string{"input"},
			InForm: boolPtr(true),
			// Inputs default to type "text"; only the button-like types
			// qualify, the rest of a form stays untouched.
			Attrs:      []AttrCondition{{Name: "type", Values: []string{"submit", "button", "image"}}},
			Confidence: 92, Priority: 164,
		},
		{
			Name: "button-tag", Kind: KindButton,
			Tags:       []string{"button"},
			Confidence: 90, Priority: 160,
		},
		{
			Name: "button-link", Kind: KindButton,
			Tags:          []string{"a"},
			ClassKeywords: []string{"btn", "button"},
			Confidence:    88, Priority: 155,
		},
		{
			Name: "cta-class", Kind: KindCallToAction,
			Tags:          []string{"a", "button", "div", "section"},
			ClassKeywords: []string{"cta", "call-to-action"},
			Confidence:    86, Priority: 150,
		},
		{
			Name: "cta-text", Kind: KindCallToAction,
			Tags:       []string{"div", "section"},
			Content:    ctaText,
			Structure:  StructureHero,
			Confidence: 66, Priority: 148,
		},
		{
			Name: "alert-class", Kind: KindAlert,
			Tags:          []string{"div"},
			ClassKeywords: []string{"alert"},
			Confidence:    90, Priority: 145,
		},
		{
			Name: "alert-role", Kind: KindAlert,
			ARIARole:   "alert",
			Confidence: 87, Priority: 143,
		},
		{
			Name: "counter-class", Kind: KindCounter,
			ClassKeywords: []string{"counter", "count-up", "countup", "stat-number"},
			Structure:     StructureNumeric,
			Confidence:    88, Priority: 140,
		},
		{
			Name: "counter-plain", Kind: KindCounter,
			Tags:          []string{"div", "span"},
			ClassKeywords: []string{"counter"},
			Confidence:    78, Priority: 135,
		},
		{
			Name: "icon-box-class", Kind: KindIconBox,
			Tags:          []string{"div"},
			ClassKeywords: []string{"icon-box", "iconbox", "feature", "service-box"},
			Structure:     StructureIconText,
			Confidence:    85, Priority: 130,
		},
		{
			Name: "icon-box-structure", Kind: KindIconBox,
			Tags:       []string{"div"},
			Structure:  StructureIconText,
			Confidence: 64, Priority: 125,
		},
		{
			Name: "posts-grid-class", Kind: KindPostsGrid,
			Tags:          []string{"div", "section"},
			ClassKeywords: []string{"posts", "blog", "articles"},
			Structure:     StructureRepeated,
			Confidence:    82, Priority: 120,
		},
		{
			Name: "posts-grid-structure", Kind: KindPostsGrid,
			Tags:          []string{"div", "section"},
			ClassKeywords: []string{"grid"},
			Structure:     StructureRepeated,
			Confidence:    68, Priority: 115,
		},
		{
			Name: "flip-box-structure", Kind: KindFlipBox,
			Tags:       []string{"div"},
			Structure:  StructureFlip,
			Confidence: 85, Priority: 110,
		},
		{
			Name: "flip-box-class", Kind: KindFlipBox,
			Tags:          []string{"div"},
			ClassKeywords: []string{"flip"},
			Confidence:    75, Priority: 105,
		},
		{
			Name: "social-icons-structure", Kind: KindSocialIcons,
			Tags:       []string{"div", "ul", "nav"},
			Structure:  StructureSocial,
			Confidence: 85, Priority: 100,
		},
		{
			Name: "social-icons-class", Kind: KindSocialIcons,
			Tags:          []string{"div", "ul"},
			ClassKeywords: []string{"social"},
			Confidence:    72, Priority: 95,
		},
		{
			Name: "card-class", Kind: KindCard,
			Tags:          []string{"div", "article"},
			ClassKeywords: []string{"card"},
			Confidence:    85, Priority: 90,
		},
		{
			Name: "card-structure", Kind: KindCard,
			Tags:       []string{"div", "article"},
			Structure:  StructureCard,
			Confidence: 72, Priority: 85,
		},
		{
			Name: "image-tag", Kind: KindImage,
			Tags:       []string{"img", "picture"},
			Confidence: 95, Priority: 80,
		},
		{
			Name: "image-figure", Kind: KindImage,
			Tags:       []string{"figure"},
			Confidence: 84, Priority: 75,
		},
		{
			Name: "icon-class", Kind: KindIcon,
			Tags:          []string{"i", "span", "svg"},
			ClassKeywords: []string{"fa-", "icon", "material-icons", "glyphicon"},
			Confidence:    85, Priority: 70,
		},
		{
			Name: "icon-svg", Kind: KindIcon,
			Tags:       []string{"svg"},
			Confidence: 70, Priority: 65,
		},
		{
			Name: "section-tag", Kind: KindSection,
			Tags:       []string{"section", "footer"},
			Confidence: 70, Priority: 60,
		},
		{
			Name: "container-class", Kind: KindContainer,
			Tags:          []string{"div"},
			ClassKeywords: []string{"container", "wrapper", "wrap"},
			Confidence:    65, Priority: 55,
		},
		{
			Name: "column-class", Kind: KindColumn,
			Tags:          []string{"div"},
			ClassKeywords: []string{"col-", "column"},
			Confidence:    64, Priority: 50,
		},
	})
}
