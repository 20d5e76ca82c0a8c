package convert

import (
	"strings"

	"pbc/widget"
)

// OptimizeDocument shrinks an exported document in place: empty settings
// entries are dropped, adjacent raw-HTML widgets are merged and childless
// layout nodes are removed. The pass is idempotent, running it twice yields
// the same document.
func OptimizeDocument(doc *Document) {
	if doc == nil {
		return
	}
	doc.Content = optimizeNodes(doc.Content)
}

func optimizeNodes(nodes []*widget.Node) []*widget.Node {
	var out []*widget.Node
	for _, n := range nodes {
		pruneSettings(n.Settings)
		n.Elements = optimizeNodes(n.Elements)
		if n.ElType != widget.ElTypeWidget && len(n.Elements) == 0 {
			continue
		}
		if prev := lastHTMLWidget(out); prev != nil && isHTMLWidget(n) {
			if merged := asString(prev.Settings["html"]) + asString(n.Settings["html"]); merged != "" {
				prev.Settings["html"] = merged
			}
			continue
		}
		out = append(out, n)
	}
	return out
}

// lastHTMLWidget returns the trailing node when it is a raw-HTML widget.
func lastHTMLWidget(nodes []*widget.Node) *widget.Node {
	if len(nodes) == 0 {
		return nil
	}
	if n := nodes[len(nodes)-1]; isHTMLWidget(n) {
		return n
	}
	return nil
}

func isHTMLWidget(n *widget.Node) bool {
	return n.ElType == widget.ElTypeWidget && n.WidgetType == "html"
}

func pruneSettings(settings map[string]any) {
	for key, val := range settings {
		switch v := val.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				delete(settings, key)
			}
		case nil:
			delete(settings, key)
		case map[string]any:
			if len(v) == 0 {
				delete(settings, key)
			}
		case []map[string]any:
			if len(v) == 0 {
				delete(settings, key)
			}
		}
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
