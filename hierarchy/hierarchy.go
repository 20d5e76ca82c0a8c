// Package hierarchy reconstructs a layout tree from flat DOM: section,
// container, row and column scopes with widget leaves. Only layout roles
// recurse; a widget subsumes its whole subtree.
package hierarchy

import (
	"pbc/recognize"
)

// Role is the structural function of a node in the layout tree.
type Role string

const (
	RoleSection   Role = "section"
	RoleContainer Role = "container"
	RoleRow       Role = "row"
	RoleColumn    Role = "column"
	RoleWidget    Role = "widget"
)

// Node is one node of the layout tree. The tree is strictly acyclic and
// serializes to JSON without back references.
type Node struct {
	Role      Role                 `json:"role"`
	Component *recognize.Component `json:"component,omitempty"`
	Children  []*Node              `json:"children,omitempty"`
}

// IsLayout reports whether the node recurses into children.
func (n *Node) IsLayout() bool {
	return n.Role != RoleWidget
}

// Hierarchy is the reconstructed layout tree of one document plus walk
// counters the conversion statistics are derived from.
type Hierarchy struct {
	Roots   []*Node `json:"roots"`
	Visited int     `json:"visited"` // DOM elements examined during the walk
}

// Components flattens the tree into the recognized component list in
// depth-first document order.
func (h *Hierarchy) Components() []*recognize.Component {
	var out []*recognize.Component
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Component != nil {
			out = append(out, n.Component)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range h.Roots {
		walk(r)
	}
	return out
}

// Simplify repeatedly collapses any container or row with exactly one
// non-widget child into that child until no node qualifies. Wrapper chains
// carry no layout information but bloat the exported document, and deep
// nesting is known to break some target renderers. The pass is a fixed
// point: applying it twice changes nothing more.
func (h *Hierarchy) Simplify() {
	for {
		changed := false
		for i, r := range h.Roots {
			if next, c := collapse(r); c {
				h.Roots[i] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// collapse rewrites one subtree bottom-up, reporting whether anything
// changed.
func collapse(n *Node) (*Node, bool) {
	changed := false
	for i, c := range n.Children {
		if next, ch := collapse(c); ch {
			n.Children[i] = next
			changed = true
		}
	}
	if (n.Role == RoleContainer || n.Role == RoleRow) && len(n.Children) == 1 && n.Children[0].IsLayout() {
		return n.Children[0], true
	}
	return n, changed
}
