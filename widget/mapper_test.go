package widget_test

import (
	"fmt"
	"testing"

	"pbc/dom"
	"pbc/recognize"
	"pbc/style"
	"pbc/widget"
)

func component(t *testing.T, body string, kind recognize.Kind, styles style.Map) *recognize.Component {
	t.Helper()
	page := fmt.Sprintf("<!DOCTYPE html><html><head><base href=\"https://site.test/\"></head><body>%s</body></html>", body)
	doc, err := dom.Parse([]byte(page), dom.Options{}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	el := doc.Body().Children()[0]
	return recognize.Bind(el, styles, recognize.Result{Kind: kind, Confidence: 90}, recognize.Context{})
}

func TestMapAlert(t *testing.T) {
	c := component(t, `<div class="alert alert-success"><strong>Done</strong> Your changes were saved.</div>`,
		recognize.KindAlert, nil)

	n, ok := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if !ok {
		t.Fatal("no mapper for alert")
	}
	if n.WidgetType != "alert" {
		t.Fatalf("widgetType = %q", n.WidgetType)
	}
	if got := n.Settings["alert_type"]; got != "success" {
		t.Errorf("alert_type = %v, want success", got)
	}
	if got := n.Settings["alert_title"]; got != "Done" {
		t.Errorf("alert_title = %v, want Done", got)
	}
	if got := n.Settings["alert_description"]; got != "Your changes were saved." {
		t.Errorf("alert_description = %v", got)
	}
}

func TestMapButton(t *testing.T) {
	c := component(t, `<a class="btn" href="https://other.test/buy" rel="nofollow">Buy Now</a>`,
		recognize.KindButton, style.Map{"backgroundColor": "rgb(13, 110, 253)", "color": "#fff"})

	n, ok := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if !ok {
		t.Fatal("no mapper for button")
	}
	if got := n.Settings["text"]; got != "Buy Now" {
		t.Errorf("text = %v", got)
	}
	link, ok := n.Settings["link"].(widget.Link)
	if !ok {
		t.Fatalf("link setting missing: %v", n.Settings["link"])
	}
	if !link.IsExternal || !link.Nofollow {
		t.Errorf("link = %+v, want external nofollow", link)
	}
	if got := n.Settings["background_color"]; got != "#0d6efd" {
		t.Errorf("background_color = %v, want #0d6efd", got)
	}
	if got := n.Settings["button_text_color"]; got != "#ffffff" {
		t.Errorf("button_text_color = %v, want #ffffff", got)
	}
}

func TestMapImageLazyLoad(t *testing.T) {
	c := component(t, `<img src="gallery/photo.jpg" alt="Photo">`, recognize.KindImage, nil)
	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if got := n.Settings["lazyload"]; got != "yes" {
		t.Errorf("below the fold lazyload = %v, want yes", got)
	}

	c = component(t, `<img src="hero.jpg" loading="lazy">`, recognize.KindImage, nil)
	c.AboveFold = true
	n, _ = widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if _, set := n.Settings["lazyload"]; set {
		t.Error("above the fold the image must load eagerly")
	}

	c = component(t, `<img src="footer.jpg" loading="eager">`, recognize.KindImage, nil)
	n, _ = widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if _, set := n.Settings["lazyload"]; set {
		t.Error("explicit eager loading must be kept")
	}
}

func TestMapButtonTransparentBackgroundUnset(t *testing.T) {
	c := component(t, `<button>Go</button>`, recognize.KindButton,
		style.Map{"backgroundColor": "transparent"})

	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if _, set := n.Settings["background_color"]; set {
		t.Error("transparent background must stay unset")
	}
}

func TestMapImageResolvesURL(t *testing.T) {
	c := component(t, `<img src="img/logo.png" alt="Logo">`, recognize.KindImage, nil)

	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	img, ok := n.Settings["image"].(map[string]any)
	if !ok {
		t.Fatalf("image setting = %v", n.Settings["image"])
	}
	if got := img["url"]; got != "https://site.test/img/logo.png" {
		t.Errorf("url = %v, want resolved against base", got)
	}
	if got := n.Settings["caption"]; got != "Logo" {
		t.Errorf("caption = %v", got)
	}
}

func TestMapCounter(t *testing.T) {
	c := component(t, `<div class="counter" data-title="Customers">1,250+</div>`,
		recognize.KindCounter, nil)

	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if got := n.Settings["ending_number"]; got != 1250 {
		t.Errorf("ending_number = %v, want 1250", got)
	}
	if got := n.Settings["suffix"]; got != "+" {
		t.Errorf("suffix = %v, want +", got)
	}
	if got := n.Settings["title"]; got != "Customers" {
		t.Errorf("title = %v, want Customers", got)
	}
}

func TestMapFlipBox(t *testing.T) {
	c := component(t, `<div class="flip-card">
	  <div class="flip-front"><h3>Front</h3><p>Front text</p></div>
	  <div class="flip-back"><h3>Back</h3><p>Back text</p></div>
	</div>`, recognize.KindFlipBox, nil)

	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	if got := n.Settings["title_text_a"]; got != "Front" {
		t.Errorf("front title = %v", got)
	}
	if got := n.Settings["description_text_b"]; got != "Back text" {
		t.Errorf("back description = %v", got)
	}
}

func TestMapMenuItems(t *testing.T) {
	c := component(t, `<nav><a href="/">Home</a><a href="https://ext.test/x">Ext</a></nav>`,
		recognize.KindMenu, nil)

	n, _ := widget.NewRegistry(nil).Map(widget.NewIDGen(), c)
	items, ok := n.Settings["menu_items"].([]map[string]any)
	if !ok || len(items) != 2 {
		t.Fatalf("menu_items = %v", n.Settings["menu_items"])
	}
	if items[0]["text"] != "Home" {
		t.Errorf("first item = %v", items[0])
	}
	if link := items[1]["link"].(widget.Link); !link.IsExternal {
		t.Errorf("second item should be external: %+v", link)
	}
}

// Every recognizable kind must lower without error to a node with a
// non-empty widget type.
func TestEveryKindHasMapper(t *testing.T) {
	reg := widget.NewRegistry(nil)
	g := widget.NewIDGen()
	for _, kind := range recognize.Kinds() {
		c := component(t, `<div class="x"><h3>T</h3><p>Body</p></div>`, kind, nil)
		n, ok := reg.Map(g, c)
		if !ok {
			t.Errorf("kind %s has no mapper", kind)
			continue
		}
		if n.WidgetType == "" {
			t.Errorf("kind %s mapped to empty widgetType", kind)
		}
		if n.ID == "" {
			t.Errorf("kind %s mapped without ID", kind)
		}
	}
}

func TestMapUnknownKindFallsThrough(t *testing.T) {
	reg := widget.NewRegistry(nil)
	c := component(t, `<p>plain</p>`, recognize.KindUnknown, nil)
	if _, ok := reg.Map(widget.NewIDGen(), c); ok {
		t.Error("unknown kind must not map natively")
	}
}

func TestRawHTMLFallback(t *testing.T) {
	c := component(t, `<blockquote>Quote</blockquote>`, recognize.KindUnknown, nil)
	n := widget.NewRegistry(nil).RawHTML(widget.NewIDGen(), c.Element)
	if n.WidgetType != "html" {
		t.Fatalf("widgetType = %q", n.WidgetType)
	}
	if html := n.Settings["html"].(string); html != "<blockquote>Quote</blockquote>" {
		t.Errorf("html = %q", html)
	}
}

func TestIDGenUniqueAndShort(t *testing.T) {
	g := widget.NewIDGen()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if len(id) != 7 {
			t.Fatalf("id %q length = %d, want 7", id, len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
