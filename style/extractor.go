package style

import (
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"pbc/css"
	"pbc/dom"
)

// Extractor resolves the effective style of elements. It is a pure function
// of (element, stylesheet) - the per-node cache only avoids recomputation
// within one conversion pass.
type Extractor struct {
	log      *zap.Logger
	parser   *css.Parser
	viewport int

	cache    map[*html.Node]Map
	matchers map[string]cascadia.Matcher
	broken   map[string]struct{}
}

// NewExtractor creates an extractor evaluating media queries at the given
// viewport width.
func NewExtractor(viewportWidth int, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		log:      log.Named("style"),
		parser:   css.NewParser(log),
		viewport: viewportWidth,
		cache:    make(map[*html.Node]Map),
		matchers: make(map[string]cascadia.Matcher),
		broken:   make(map[string]struct{}),
	}
}

// Resolve computes the effective style map for an element. Resolution order,
// weakest first: matched stylesheet rules in source order, inline style
// attribute, utility-class heuristics for properties still unset.
func (e *Extractor) Resolve(el *dom.Element, sheet *css.Stylesheet) Map {
	if cached, ok := e.cache[el.Node()]; ok {
		return cached
	}

	m := make(Map)

	if sheet != nil {
		for _, rule := range sheet.ActiveRules(e.viewport) {
			if e.selectorMatches(rule.Selector, el) {
				for name, val := range rule.Properties {
					m[NormalizeProperty(name)] = val.Raw
				}
			}
		}
	}

	if inline := el.InlineStyle(); inline != "" {
		for name, val := range e.parser.ParseInline(inline) {
			m[NormalizeProperty(name)] = val.Raw
		}
	}

	applyUtilityClasses(el, m)

	e.cache[el.Node()] = m
	return m
}

// selectorMatches tests a parsed selector against an element. Simple
// selectors compare directly; complex ones go through cascadia.
func (e *Extractor) selectorMatches(sel css.Selector, el *dom.Element) bool {
	if !sel.Complex {
		if sel.Element != "" && sel.Element != el.Tag {
			return false
		}
		if sel.ID != "" && sel.ID != el.ID() {
			return false
		}
		if sel.Class != "" {
			found := false
			for _, c := range el.Classes() {
				if c == sel.Class {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return sel.Element != "" || sel.ID != "" || sel.Class != ""
	}

	if _, bad := e.broken[sel.Raw]; bad {
		return false
	}
	matcher, ok := e.matchers[sel.Raw]
	if !ok {
		var err error
		matcher, err = cascadia.Compile(sel.Raw)
		if err != nil {
			e.log.Debug("Unsupported selector", zap.String("selector", sel.Raw), zap.Error(err))
			e.broken[sel.Raw] = struct{}{}
			return false
		}
		e.matchers[sel.Raw] = matcher
	}
	return matcher.Match(el.Node())
}

// utilityClassProps maps common utility class names to the style properties
// they imply. Exact class matches only - keyword heuristics would misfire on
// names like "controls".
var utilityClassProps = map[string]map[string]string{
	"text-center":            {"textAlign": "center"},
	"text-left":              {"textAlign": "left"},
	"text-right":             {"textAlign": "right"},
	"text-white":             {"color": "#ffffff"},
	"d-flex":                 {"display": "flex"},
	"flex":                   {"display": "flex"},
	"d-grid":                 {"display": "grid"},
	"grid":                   {"display": "grid"},
	"d-none":                 {"display": "none"},
	"hidden":                 {"display": "none"},
	"row":                    {"display": "flex", "flexDirection": "row"},
	"flex-row":               {"display": "flex", "flexDirection": "row"},
	"flex-col":               {"display": "flex", "flexDirection": "column"},
	"flex-column":            {"display": "flex", "flexDirection": "column"},
	"justify-content-center": {"justifyContent": "center"},
	"justify-center":         {"justifyContent": "center"},
	"align-items-center":     {"alignItems": "center"},
	"items-center":           {"alignItems": "center"},
	"rounded":                {"borderRadius": "4px"},
	"rounded-full":           {"borderRadius": "9999px"},
	"shadow":                 {"boxShadow": "0 1px 3px rgba(0,0,0,0.2)"},
	"bg-white":               {"backgroundColor": "#ffffff"},
	"bg-dark":                {"backgroundColor": "#212529"},
	"bg-light":               {"backgroundColor": "#f8f9fa"},
	"bg-primary":             {"backgroundColor": "#0d6efd"},
	"bg-secondary":           {"backgroundColor": "#6c757d"},
	"bg-success":             {"backgroundColor": "#198754"},
	"bg-danger":              {"backgroundColor": "#dc3545"},
	"bg-warning":             {"backgroundColor": "#ffc107"},
	"bg-info":                {"backgroundColor": "#0dcaf0"},
}

// applyUtilityClasses fills properties implied by well-known utility class
// names for everything the cascade and inline styles left unset.
func applyUtilityClasses(el *dom.Element, m Map) {
	for _, c := range el.Classes() {
		props, ok := utilityClassProps[c]
		if !ok {
			continue
		}
		for key, val := range props {
			if !m.Has(key) {
				m[key] = val
			}
		}
	}
}
