package widget

import (
	"go.uber.org/zap"

	"pbc/dom"
	"pbc/recognize"
)

// MapFunc lowers one recognized component into a target-schema node, using
// the generator for the node ID.
type MapFunc func(g *IDGen, c *recognize.Component) *Node

// Registry holds the mapper per component kind. New widget kinds are added
// here plus pattern entries, never by touching the recognizer.
type Registry struct {
	log     *zap.Logger
	mappers map[recognize.Kind]MapFunc
}

// NewRegistry builds a registry with the built-in mapper set.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		log:     log.Named("mapper"),
		mappers: make(map[recognize.Kind]MapFunc),
	}
	r.register(recognize.KindHero, mapCallToAction)
	r.register(recognize.KindCallToAction, mapCallToAction)
	r.register(recognize.KindHeader, mapRawBlock)
	r.register(recognize.KindMenu, mapMenu)
	r.register(recognize.KindCard, mapCard)
	r.register(recognize.KindButton, mapButton)
	r.register(recognize.KindSubmitButton, mapButton)
	r.register(recognize.KindIconBox, mapIconBox)
	r.register(recognize.KindCounter, mapCounter)
	r.register(recognize.KindAlert, mapAlert)
	r.register(recognize.KindPostsGrid, mapPostsGrid)
	r.register(recognize.KindFlipBox, mapFlipBox)
	r.register(recognize.KindSocialIcons, mapSocialIcons)
	r.register(recognize.KindImage, mapImage)
	r.register(recognize.KindIcon, mapIcon)
	r.register(recognize.KindSection, mapRawBlock)
	r.register(recognize.KindContainer, mapRawBlock)
	r.register(recognize.KindColumn, mapRawBlock)
	return r
}

// Register installs or replaces the mapper for a kind.
func (r *Registry) Register(kind recognize.Kind, fn MapFunc) {
	r.register(kind, fn)
}

func (r *Registry) register(kind recognize.Kind, fn MapFunc) {
	r.mappers[kind] = fn
}

// Map lowers a component. ok is false when no mapper covers the kind, which
// the caller turns into a raw-HTML fallback.
func (r *Registry) Map(g *IDGen, c *recognize.Component) (node *Node, ok bool) {
	fn, ok := r.mappers[c.Result.Kind]
	if !ok {
		return nil, false
	}
	return fn(g, c), true
}

// RawHTML builds the opaque fallback widget preserving the original markup.
func (r *Registry) RawHTML(g *IDGen, el *dom.Element) *Node {
	html := ""
	if el != nil {
		html = el.OuterHTML()
	}
	return &Node{
		ID:         g.Next(),
		ElType:     ElTypeWidget,
		WidgetType: "html",
		Settings:   map[string]any{"html": html},
		Elements:   []*Node{},
	}
}
