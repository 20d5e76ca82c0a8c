package widget

import (
	"strings"

	"pbc/dom"
	"pbc/recognize"
)

func newWidget(g *IDGen, widgetType string) *Node {
	return &Node{
		ID:         g.Next(),
		ElType:     ElTypeWidget,
		WidgetType: widgetType,
		Settings:   make(map[string]any),
		Elements:   []*Node{},
	}
}

func mapButton(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "button")
	text := c.Text
	if text == "" {
		if v, ok := attrOf(c, "value"); ok {
			text = v
		}
	}
	n.Settings["text"] = text
	if c.Href != "" {
		n.Settings["link"] = linkOf(c)
	}
	colorSetting(n.Settings, "background_color", c, "backgroundColor")
	colorSetting(n.Settings, "button_text_color", c, "color")
	if c.Result.Kind == recognize.KindSubmitButton {
		n.Settings["button_type"] = "success"
	}
	if r, _, ok := c.Styles.Length("borderRadius"); ok {
		n.Settings["border_radius"] = Size{Size: r, Unit: "px"}
	}
	return n
}

func mapImage(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "image")
	n.Settings["image"] = map[string]any{"url": resolveURL(c, c.Src)}
	n.Settings["image_size"] = "full"
	if c.Alt != "" {
		n.Settings["caption"] = c.Alt
	}
	if c.Href != "" {
		n.Settings["link_to"] = "custom"
		n.Settings["link"] = linkOf(c)
	}
	// Above the fold the image loads eagerly even when the source markup
	// asks for lazy loading.
	if !c.AboveFold {
		if v, ok := attrOf(c, "loading"); !ok || strings.EqualFold(v, "lazy") {
			n.Settings["lazyload"] = "yes"
		}
	}
	return n
}

func mapIcon(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "icon")
	n.Settings["selected_icon"] = map[string]any{
		"value":   iconValue(c),
		"library": "fa-solid",
	}
	colorSetting(n.Settings, "primary_color", c, "color")
	return n
}

func mapIconBox(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "icon-box")
	n.Settings["title_text"] = titleOf(c)
	n.Settings["description_text"] = descriptionOf(c)
	n.Settings["selected_icon"] = map[string]any{
		"value":   iconValue(c),
		"library": "fa-solid",
	}
	if c.Href != "" {
		n.Settings["link"] = linkOf(c)
	}
	return n
}

func mapCard(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "image-box")
	n.Settings["title_text"] = titleOf(c)
	n.Settings["description_text"] = descriptionOf(c)
	if c.Src != "" {
		n.Settings["image"] = map[string]any{"url": resolveURL(c, c.Src)}
	}
	if c.Href != "" {
		n.Settings["link"] = linkOf(c)
	}
	return n
}

func mapCounter(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "counter")
	n.Settings["starting_number"] = 0
	if v, ok := attrOf(c, "data-count"); ok {
		if end, ok := numberIn(v); ok {
			n.Settings["ending_number"] = end
		}
	}
	if _, ok := n.Settings["ending_number"]; !ok {
		if end, ok := numberIn(c.Text); ok {
			n.Settings["ending_number"] = end
		} else {
			n.Settings["ending_number"] = 0
		}
	}
	if t := titleOf(c); t != "" {
		n.Settings["title"] = t
	}
	if strings.Contains(c.Text, "+") {
		n.Settings["suffix"] = "+"
	} else if strings.Contains(c.Text, "%") {
		n.Settings["suffix"] = "%"
	}
	return n
}

func mapAlert(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "alert")
	n.Settings["alert_type"] = severityIn(c.Element)

	title := ""
	if el := c.Element; el != nil {
		if lead := el.FirstDescendant("strong", "b", "h1", "h2", "h3", "h4", "h5", "h6"); lead != nil {
			title = strings.TrimSpace(lead.FullText())
		}
	}
	n.Settings["alert_title"] = title
	n.Settings["alert_description"] = strings.TrimSpace(strings.TrimPrefix(c.Text, title))
	return n
}

func mapCallToAction(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "call-to-action")
	n.Settings["title"] = titleOf(c)
	n.Settings["description"] = descriptionOf(c)
	if el := c.Element; el != nil {
		if btn := el.FirstDescendant("button", "a"); btn != nil {
			n.Settings["button"] = strings.TrimSpace(btn.FullText())
		}
	}
	if c.Href != "" {
		n.Settings["link"] = linkOf(c)
	}
	if bg := c.Styles.BackgroundImageURL(); bg != "" {
		n.Settings["bg_image"] = map[string]any{"url": resolveURL(c, bg)}
	}
	colorSetting(n.Settings, "background_color", c, "backgroundColor")
	return n
}

func mapMenu(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "nav-menu")
	var items []map[string]any
	if el := c.Element; el != nil {
		for _, a := range el.Descendants("a") {
			text := strings.TrimSpace(a.FullText())
			if text == "" {
				continue
			}
			href, _ := a.Attr("href")
			items = append(items, map[string]any{
				"text": text,
				"link": Link{URL: href, IsExternal: el.Document().IsExternalURL(href)},
			})
		}
	}
	n.Settings["menu_items"] = items
	n.Settings["layout"] = "horizontal"
	return n
}

func mapPostsGrid(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "posts")
	count := 0
	if el := c.Element; el != nil {
		count = el.ChildCount()
	}
	if count == 0 {
		count = 3
	}
	n.Settings["posts_per_page"] = count
	columns := count
	if columns > 4 {
		columns = 4
	}
	n.Settings["columns"] = columns
	return n
}

func mapFlipBox(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "flip-box")
	if el := c.Element; el != nil {
		if front := el.FirstByClassKeyword("front"); front != nil {
			n.Settings["title_text_a"] = sideTitle(front)
			n.Settings["description_text_a"] = sideText(front)
		}
		if back := el.FirstByClassKeyword("back"); back != nil {
			n.Settings["title_text_b"] = sideTitle(back)
			n.Settings["description_text_b"] = sideText(back)
		}
	}
	if c.Href != "" {
		n.Settings["link"] = linkOf(c)
	}
	return n
}

func mapSocialIcons(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "social-icons")
	var list []map[string]any
	if el := c.Element; el != nil {
		for _, a := range el.Descendants("a") {
			href, _ := a.Attr("href")
			if href == "" {
				continue
			}
			list = append(list, map[string]any{
				"social_icon": map[string]any{
					"value":   "fab fa-" + socialNetwork(href),
					"library": "fa-brands",
				},
				"link": Link{URL: href, IsExternal: true},
			})
		}
	}
	n.Settings["social_icon_list"] = list
	return n
}

// mapRawBlock covers kinds that normally act as layout scopes. When one
// surfaces as a leaf widget its markup is preserved opaquely.
func mapRawBlock(g *IDGen, c *recognize.Component) *Node {
	n := newWidget(g, "html")
	if el := c.Element; el != nil {
		n.Settings["html"] = el.OuterHTML()
	} else {
		n.Settings["html"] = ""
	}
	return n
}

func attrOf(c *recognize.Component, name string) (string, bool) {
	if c.Element == nil {
		return "", false
	}
	return c.Element.Attr(name)
}

func resolveURL(c *recognize.Component, raw string) string {
	if c.Element == nil || raw == "" {
		return raw
	}
	u, err := c.Element.Document().ResolveURL(raw)
	if err != nil {
		return raw
	}
	return u.String()
}

// iconValue recovers an icon-font class pair like "fas fa-star" from the
// first icon-looking descendant, falling back to a generic star.
func iconValue(c *recognize.Component) string {
	el := c.Element
	if el == nil {
		return "fas fa-star"
	}
	icon := el
	if el.Tag != "i" && el.Tag != "svg" {
		if d := el.FirstDescendant("i", "svg"); d != nil {
			icon = d
		} else if d := el.FirstByClassKeyword("icon"); d != nil {
			icon = d
		}
	}
	var fa []string
	for _, cls := range icon.Classes() {
		if strings.HasPrefix(cls, "fa") {
			fa = append(fa, cls)
		}
	}
	if len(fa) > 0 {
		return strings.Join(fa, " ")
	}
	return "fas fa-star"
}

func socialNetwork(href string) string {
	href = strings.ToLower(href)
	for _, net := range []string{"facebook", "twitter", "instagram", "linkedin", "youtube", "tiktok", "pinterest"} {
		if strings.Contains(href, net) {
			return net
		}
	}
	if strings.Contains(href, "x.com") {
		return "x-twitter"
	}
	return "link"
}

func sideTitle(el *dom.Element) string {
	if h := el.FirstDescendant(headingTags...); h != nil {
		return strings.TrimSpace(h.FullText())
	}
	return strings.TrimSpace(el.FullText())
}

func sideText(el *dom.Element) string {
	if p := el.FirstDescendant("p"); p != nil {
		return strings.TrimSpace(p.FullText())
	}
	return strings.TrimSpace(el.FullText())
}
