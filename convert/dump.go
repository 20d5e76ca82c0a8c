package convert

import (
	"pbc/hierarchy"
	"pbc/utils/debug"
)

// DumpHierarchy renders the recognized page structure as an indented text
// tree for debug reports.
func DumpHierarchy(h *hierarchy.Hierarchy) string {
	tw := debug.NewTreeWriter()
	if h == nil {
		return ""
	}
	tw.Line(0, "hierarchy visited=%d roots=%d", h.Visited, len(h.Roots))
	for _, root := range h.Roots {
		dumpNode(tw, root, 1)
	}
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *hierarchy.Node, depth int) {
	comp := n.Component
	if comp == nil {
		tw.Line(depth, "%s", n.Role)
		return
	}

	r := comp.Result
	switch {
	case r.FallbackType != "":
		tw.Line(depth, "%s <%s> fallback=%s conf=%d", n.Role, comp.Element.Tag, r.FallbackType, r.Confidence)
	case r.ManualReview:
		tw.Line(depth, "%s <%s> kind=%s conf=%d review", n.Role, comp.Element.Tag, r.Kind, r.Confidence)
	default:
		tw.Line(depth, "%s <%s> kind=%s conf=%d", n.Role, comp.Element.Tag, r.Kind, r.Confidence)
	}
	if comp.Text != "" {
		tw.TextBlock(depth+1, "text", comp.Text)
	}
	for _, child := range n.Children {
		dumpNode(tw, child, depth+1)
	}
}
