package dom_test

import (
	"testing"

	"pbc/dom"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Landing</title>
<base href="https://shop.example.com/pages/">
<style>.hero { color: red; }</style>
<link rel="stylesheet" href="/css/site.css">
</head>
<body>
<section id="hero" class="hero full-width" role="banner">
  <h1>Big Sale</h1>
  <p>Save on everything this week only.</p>
  <a class="btn btn-primary" href="/buy">Buy Now</a>
</section>
</body>
</html>`

func parseSample(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.Parse([]byte(samplePage), dom.Options{BaseURL: "https://shop.example.com/"}, nil)
	if err != nil {
		t.Fatalf("unable to parse sample page: %v", err)
	}
	return doc
}

func TestParse_TitleAndBase(t *testing.T) {
	doc := parseSample(t)

	if doc.Title() != "Landing" {
		t.Errorf("expected title 'Landing', got %q", doc.Title())
	}
	if doc.BaseURL() != "https://shop.example.com/pages/" {
		t.Errorf("base element should win over scrape address, got %q", doc.BaseURL())
	}
}

func TestDocument_Stylesheets(t *testing.T) {
	doc := parseSample(t)

	blocks := doc.StyleBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 style block, got %d", len(blocks))
	}
	links := doc.StylesheetLinks()
	if len(links) != 1 || links[0] != "/css/site.css" {
		t.Errorf("unexpected stylesheet links: %v", links)
	}
}

func TestElement_Snapshot(t *testing.T) {
	doc := parseSample(t)

	body := doc.Body()
	if body == nil {
		t.Fatal("expected body element")
	}
	children := body.Children()
	if len(children) != 1 {
		t.Fatalf("expected 1 body child, got %d", len(children))
	}

	sec := children[0]
	if sec.Tag != "section" {
		t.Errorf("expected section tag, got %q", sec.Tag)
	}
	if sec.Role != "banner" {
		t.Errorf("expected banner role, got %q", sec.Role)
	}
	if sec.ID() != "hero" {
		t.Errorf("expected id 'hero', got %q", sec.ID())
	}
	if !sec.HasClassKeyword("hero") {
		t.Error("expected hero class keyword")
	}
	if sec.ChildCount() != 3 {
		t.Errorf("expected 3 element children, got %d", sec.ChildCount())
	}

	h1 := sec.FirstDescendant("h1")
	if h1 == nil || h1.Text() != "Big Sale" {
		t.Errorf("unexpected h1: %+v", h1)
	}
	if got := sec.FullText(); got != "Big Sale Save on everything this week only. Buy Now" {
		t.Errorf("unexpected full text: %q", got)
	}

	btn := sec.FirstByClassKeyword("btn")
	if btn == nil || btn.Tag != "a" {
		t.Fatalf("expected anchor by class keyword, got %+v", btn)
	}
	if href, _ := btn.Attr("href"); href != "/buy" {
		t.Errorf("unexpected href: %q", href)
	}
}

func TestDocument_IsExternalURL(t *testing.T) {
	doc := parseSample(t)

	cases := []struct {
		url      string
		external bool
	}{
		{"/buy", false},
		{"#section-2", false},
		{"checkout.html", false},
		{"https://shop.example.com/other", false},
		{"https://cdn.example.net/img.png", true},
		{"http://shop.example.com/", true}, // scheme differs
	}
	for _, c := range cases {
		if got := doc.IsExternalURL(c.url); got != c.external {
			t.Errorf("IsExternalURL(%q) = %v, expected %v", c.url, got, c.external)
		}
	}
}

func TestParse_EmptyBody(t *testing.T) {
	doc, err := dom.Parse([]byte("<html><body></body></html>"), dom.Options{}, nil)
	if err != nil {
		t.Fatalf("empty body must parse cleanly: %v", err)
	}
	body := doc.Body()
	if body == nil {
		t.Fatal("expected body element")
	}
	if body.ChildCount() != 0 {
		t.Errorf("expected no children, got %d", body.ChildCount())
	}
}

func TestParse_ForcedEncoding(t *testing.T) {
	// "café" in latin-1
	data := []byte("<html><body><p>caf\xe9</p></body></html>")
	doc, err := dom.Parse(data, dom.Options{Encoding: "ISO-8859-1"}, nil)
	if err != nil {
		t.Fatalf("unable to parse with forced encoding: %v", err)
	}
	p := doc.Body().FirstDescendant("p")
	if p == nil || p.Text() != "café" {
		t.Errorf("expected café, got %+v", p)
	}
}

func TestParse_UnknownEncodingRejected(t *testing.T) {
	if _, err := dom.Parse([]byte("<html></html>"), dom.Options{Encoding: "no-such-charset"}, nil); err == nil {
		t.Error("expected unknown encoding to be rejected")
	}
}
