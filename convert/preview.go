package convert

import (
	"context"
	"fmt"
	"html"
	"strings"

	"pbc/css"
	"pbc/dom"
	"pbc/validate"
	"pbc/widget"
)

// runValidation builds the two validation targets and hands them to the
// validator. The converted side is a static HTML preview of the exported
// document, which is what the target builder would render shorn of its
// chrome.
func (e *Engine) runValidation(ctx context.Context, original string, doc *dom.Document, sheet *css.Stylesheet, res *Result, opts Options) *validate.Report {
	src := validate.Target{
		HTML:    original,
		BaseURL: doc.BaseURL(),
		Assets:  collectOriginalAssets(doc, sheet),
	}
	dst := validate.Target{
		HTML:    RenderPreview(res.Document),
		BaseURL: doc.BaseURL(),
		Assets:  collectDocumentAssets(res),
	}
	return e.validator.Validate(ctx, src, dst, *opts.Validation)
}

// collectOriginalAssets enumerates the source page's own asset set:
// images, the stylesheet's url() references and linked stylesheets.
func collectOriginalAssets(doc *dom.Document, sheet *css.Stylesheet) []validate.Asset {
	var out []validate.Asset
	seen := make(map[string]struct{})
	add := func(url string, sev validate.Severity) {
		if url == "" || strings.HasPrefix(url, "data:") {
			return
		}
		if u, err := doc.ResolveURL(url); err == nil {
			url = u.String()
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		out = append(out, validate.Asset{URL: url, Severity: sev})
	}

	if body := doc.Body(); body != nil {
		for _, img := range body.Descendants("img") {
			src, _ := img.Attr("src")
			add(src, validate.SeverityHigh)
		}
	}
	for _, url := range sheet.AssetURLs() {
		add(url, validate.SeverityLow)
	}
	for _, url := range doc.StylesheetLinks() {
		add(url, validate.SeverityLow)
	}
	return out
}

// collectDocumentAssets enumerates every asset URL the exported document
// references, with severity derived from the role the asset plays.
func collectDocumentAssets(res *Result) []validate.Asset {
	var out []validate.Asset
	seen := make(map[string]struct{})
	add := func(url string, sev validate.Severity) {
		if url == "" || strings.HasPrefix(url, "data:") {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		out = append(out, validate.Asset{URL: url, Severity: sev})
	}

	var walk func(n *widget.Node)
	walk = func(n *widget.Node) {
		// A section background is the page's visual backbone.
		if bg, ok := n.Settings["background_image"].(map[string]any); ok {
			sev := validate.SeverityCritical
			if n.ElType == widget.ElTypeWidget {
				sev = validate.SeverityHigh
			}
			add(asString(bg["url"]), sev)
		}
		if img, ok := n.Settings["image"].(map[string]any); ok {
			add(asString(img["url"]), validate.SeverityHigh)
		}
		if bg, ok := n.Settings["bg_image"].(map[string]any); ok {
			add(asString(bg["url"]), validate.SeverityCritical)
		}
		if n.WidgetType == "icon" || n.WidgetType == "social-icons" {
			if img, ok := n.Settings["icon_image"].(map[string]any); ok {
				add(asString(img["url"]), validate.SeverityLow)
			}
		}
		for _, c := range n.Elements {
			walk(c)
		}
	}
	for _, n := range res.Document.Content {
		walk(n)
	}
	return out
}

// RenderPreview turns an exported document into plain standalone HTML. It
// is intentionally simple: enough fidelity for screenshot comparison, no
// builder runtime.
func RenderPreview(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	sb.WriteString(html.EscapeString(doc.Title))
	sb.WriteString("</title></head><body>\n")
	for _, n := range doc.Content {
		renderNode(&sb, n)
	}
	sb.WriteString("</body></html>\n")
	return sb.String()
}

func renderNode(sb *strings.Builder, n *widget.Node) {
	switch n.ElType {
	case widget.ElTypeSection, widget.ElTypeColumn:
		fmt.Fprintf(sb, "<div data-id=%q style=%q>\n", n.ID, layoutStyle(n))
		for _, c := range n.Elements {
			renderNode(sb, c)
		}
		sb.WriteString("</div>\n")
	case widget.ElTypeWidget:
		renderWidget(sb, n)
	}
}

func layoutStyle(n *widget.Node) string {
	var parts []string
	if c, ok := n.Settings["background_color"].(string); ok {
		parts = append(parts, "background-color:"+c)
	}
	if bg, ok := n.Settings["background_image"].(map[string]any); ok {
		if url := asString(bg["url"]); url != "" {
			parts = append(parts, "background-image:url("+url+")")
		}
	}
	if n.Settings["text_align"] == "center" {
		parts = append(parts, "text-align:center")
	}
	return strings.Join(parts, ";")
}

func renderWidget(sb *strings.Builder, n *widget.Node) {
	switch n.WidgetType {
	case "html":
		sb.WriteString(asString(n.Settings["html"]))
		sb.WriteString("\n")
	case "button":
		link, _ := n.Settings["link"].(widget.Link)
		fmt.Fprintf(sb, "<a href=%q><button>%s</button></a>\n",
			link.URL, html.EscapeString(asString(n.Settings["text"])))
	case "image":
		url := ""
		if img, ok := n.Settings["image"].(map[string]any); ok {
			url = asString(img["url"])
		}
		fmt.Fprintf(sb, "<img src=%q alt=%q>\n", url, html.EscapeString(asString(n.Settings["caption"])))
	case "alert":
		fmt.Fprintf(sb, "<div class=\"alert\"><strong>%s</strong> %s</div>\n",
			html.EscapeString(asString(n.Settings["alert_title"])),
			html.EscapeString(asString(n.Settings["alert_description"])))
	case "counter":
		fmt.Fprintf(sb, "<div class=\"counter\">%v%s</div>\n",
			n.Settings["ending_number"], asString(n.Settings["suffix"]))
	case "icon-box", "image-box", "call-to-action", "flip-box":
		title := firstString(n.Settings, "title_text", "title", "title_text_a")
		desc := firstString(n.Settings, "description_text", "description", "description_text_a")
		fmt.Fprintf(sb, "<div><h3>%s</h3><p>%s</p></div>\n",
			html.EscapeString(title), html.EscapeString(desc))
	case "nav-menu":
		sb.WriteString("<nav>")
		if items, ok := n.Settings["menu_items"].([]map[string]any); ok {
			for _, item := range items {
				link, _ := item["link"].(widget.Link)
				fmt.Fprintf(sb, "<a href=%q>%s</a>", link.URL, html.EscapeString(asString(item["text"])))
			}
		}
		sb.WriteString("</nav>\n")
	default:
		fmt.Fprintf(sb, "<div data-widget=%q></div>\n", n.WidgetType)
	}
}

func firstString(settings map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(settings[k]); s != "" {
			return s
		}
	}
	return ""
}
