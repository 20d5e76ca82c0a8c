// Package widget lowers recognized components into target-schema nodes.
// Each mapper is a pure function from component to node; the registry is the
// extension point for new widget kinds.
package widget

import (
	"strings"

	"github.com/google/uuid"
)

// Element types of the target schema tree.
const (
	ElTypeSection = "section"
	ElTypeColumn  = "column"
	ElTypeWidget  = "widget"
)

// Node is one element of the exported document: a section, a column or a
// leaf widget. Settings keys follow the target builder's naming.
type Node struct {
	ID         string         `json:"id"`
	ElType     string         `json:"elType"`
	WidgetType string         `json:"widgetType,omitempty"`
	Settings   map[string]any `json:"settings"`
	Elements   []*Node        `json:"elements"`
	IsInner    bool           `json:"isInner,omitempty"`
}

// Size is a dimension value in the target schema's {size, unit} form.
type Size struct {
	Size float64 `json:"size"`
	Unit string  `json:"unit"`
}

// Link is a URL in the target schema's link form.
type Link struct {
	URL        string `json:"url"`
	IsExternal bool   `json:"is_external"`
	Nofollow   bool   `json:"nofollow"`
}

const idLength = 7

// IDGen hands out node IDs unique within one export document. IDs are
// opaque short alphanumeric tokens; no cross-document guarantee is made.
type IDGen struct {
	seen map[string]struct{}
}

// NewIDGen creates a generator scoped to one export call.
func NewIDGen() *IDGen {
	return &IDGen{seen: make(map[string]struct{})}
}

// Next returns a fresh ID not yet issued by this generator.
func (g *IDGen) Next() string {
	for {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		id := raw[:idLength]
		if _, dup := g.seen[id]; !dup {
			g.seen[id] = struct{}{}
			return id
		}
	}
}
