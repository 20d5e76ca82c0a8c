package hierarchy

import (
	"go.uber.org/zap"

	"pbc/css"
	"pbc/dom"
	"pbc/recognize"
	"pbc/style"
)

// aboveFoldRoots is how many top-level body elements count as above the
// fold for image and lazy-load adjacent heuristics.
const aboveFoldRoots = 3

// Builder walks a document's body and produces the layout tree, calling the
// recognizer for every examined element. One builder serves one conversion.
type Builder struct {
	log       *zap.Logger
	extractor *style.Extractor
	rec       *recognize.Recognizer
	sheet     *css.Stylesheet
}

// NewBuilder wires a builder with its style and recognition collaborators.
// The stylesheet may be nil when the page carries no CSS.
func NewBuilder(ex *style.Extractor, rec *recognize.Recognizer, sheet *css.Stylesheet, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		log:       log.Named("hierarchy"),
		extractor: ex,
		rec:       rec,
		sheet:     sheet,
	}
}

// Build walks the body depth-first and classifies every element into a
// structural role. Layout nodes recurse; widget nodes stop and subsume
// their subtree. A document without a body yields an empty hierarchy.
func (b *Builder) Build(doc *dom.Document) *Hierarchy {
	h := &Hierarchy{}
	body := doc.Body()
	if body == nil {
		return h
	}
	for i, child := range body.Children() {
		h.Roots = append(h.Roots, b.walk(child, h, i < aboveFoldRoots))
	}
	return h
}

func (b *Builder) walk(el *dom.Element, h *Hierarchy, aboveFold bool) *Node {
	h.Visited++

	styles := b.extractor.Resolve(el, b.sheet)
	ctx := recognize.Context{
		InForm:    el.HasAncestor("form"),
		AboveFold: aboveFold,
	}
	res := b.rec.Recognize(el, styles, ctx)
	node := &Node{
		Role:      b.roleFor(el, styles, res),
		Component: recognize.Bind(el, styles, res, ctx),
	}
	b.log.Debug("Classified element",
		zap.String("tag", el.Tag),
		zap.String("kind", res.Kind.String()),
		zap.String("role", string(node.Role)),
		zap.Int("confidence", res.Confidence))

	if node.Role == RoleWidget {
		return node
	}
	for _, child := range el.Children() {
		node.Children = append(node.Children, b.walk(child, h, aboveFold))
	}
	return node
}

// roleFor classifies the structural role of one element. The decision list
// is ordered and the first match wins.
func (b *Builder) roleFor(el *dom.Element, styles style.Map, res recognize.Result) Role {
	switch el.Tag {
	case "section", "header", "footer":
		return RoleSection
	case "form":
		// Recurse into forms so every field is classified on its own
		// instead of the whole form degrading as one opaque blob.
		return RoleContainer
	}
	if res.Kind == recognize.KindHero || res.Kind == recognize.KindSection {
		return RoleSection
	}
	if el.HasClassKeyword("container") || el.HasClassKeyword("wrapper") || res.Kind == recognize.KindContainer {
		return RoleContainer
	}
	if styles.Is("display", "flex") || styles.Is("display", "grid") {
		if el.HasClassKeyword("row") || el.HasClassKeyword("flex") || el.HasClassKeyword("grid") {
			return RoleRow
		}
	}
	if el.HasClassKeyword("col-") || el.HasClassKeyword("column") || hasExactClass(el, "col") || res.Kind == recognize.KindColumn {
		return RoleColumn
	}
	return RoleWidget
}

// hasExactClass avoids the keyword matcher's substring semantics for short
// names like "col" that would otherwise hit "color" or "collapse".
func hasExactClass(el *dom.Element, name string) bool {
	for _, c := range el.Classes() {
		if c == name {
			return true
		}
	}
	return false
}
