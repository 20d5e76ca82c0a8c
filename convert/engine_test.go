package convert_test

import (
	"context"
	"encoding/json"
	"image"
	"strings"
	"testing"

	"pbc/config"
	"pbc/convert"
	"pbc/validate"
	"pbc/widget"
)

const landingPage = `<!DOCTYPE html>
<html>
<head>
  <title>Acme</title>
  <style>
    #hero { background-image: url("img/bg.jpg"); background-color: #102030; }
  </style>
</head>
<body>
  <section id="hero">
    <h1>Build pages faster</h1>
    <p>Everything you need to launch a landing page in minutes.</p>
    <a class="btn" href="/signup">Get Started</a>
  </section>
  <section>
    <div class="container">
      <div class="alert alert-warning"><strong>Heads up</strong> Plans change on Friday.</div>
      <button class="btn">Buy Now</button>
    </div>
  </section>
</body>
</html>`

func newEngine() *convert.Engine {
	return convert.NewEngine(nil, nil)
}

func TestConvertLandingPage(t *testing.T) {
	res, err := newEngine().Convert(context.Background(), []byte(landingPage), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !res.Success {
		t.Fatalf("success = false: %v", res.Errors)
	}
	if res.Document.Title != "Acme" {
		t.Errorf("title = %q", res.Document.Title)
	}
	if len(res.Document.Content) != 2 {
		t.Fatalf("top-level sections = %d, want 2", len(res.Document.Content))
	}
	for _, n := range res.Document.Content {
		if n.ElType != widget.ElTypeSection {
			t.Errorf("top-level elType = %q, want section", n.ElType)
		}
		for _, c := range n.Elements {
			if c.ElType != widget.ElTypeColumn {
				t.Errorf("section child elType = %q, want column", c.ElType)
			}
		}
	}

	hero := res.Document.Content[0]
	if bg, ok := hero.Settings["background_image"].(map[string]any); !ok || bg["url"] != "img/bg.jpg" {
		t.Errorf("hero background = %v", hero.Settings["background_image"])
	}

	var types []string
	collectTypes(res.Document.Content, &types)
	joined := strings.Join(types, ",")
	for _, want := range []string{"alert", "button"} {
		if !strings.Contains(joined, want) {
			t.Errorf("widget types %q missing %q", joined, want)
		}
	}

	if res.Stats.ElementsVisited == 0 || res.Stats.Recognized == 0 {
		t.Errorf("stats not populated: %+v", res.Stats)
	}
	if res.Stats.MeanConfidence <= 0 {
		t.Errorf("mean confidence = %v", res.Stats.MeanConfidence)
	}
}

func collectTypes(nodes []*widget.Node, out *[]string) {
	for _, n := range nodes {
		if n.WidgetType != "" {
			*out = append(*out, n.WidgetType)
		}
		collectTypes(n.Elements, out)
	}
}

func TestConvertEmptyBody(t *testing.T) {
	res, err := newEngine().Convert(context.Background(),
		[]byte("<html><head></head><body></body></html>"), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !res.Success {
		t.Fatalf("empty body must succeed: %v", res.Errors)
	}
	if len(res.Components) != 0 || len(res.Document.Content) != 0 {
		t.Errorf("expected empty document, got %d components, %d content",
			len(res.Components), len(res.Document.Content))
	}
}

func TestConvertRejectsUnknownSchema(t *testing.T) {
	_, err := newEngine().Convert(context.Background(), []byte("<html></html>"),
		convert.Options{Schema: config.TargetSchema(42)})
	if err == nil {
		t.Fatal("unsupported schema must be rejected before any DOM work")
	}
}

func TestConvertBadEncodingFailsSoft(t *testing.T) {
	res, err := newEngine().Convert(context.Background(), []byte("<html></html>"),
		convert.Options{Encoding: "no-such-charset"})
	if err != nil {
		t.Fatalf("parse-level failures must not surface as call errors: %v", err)
	}
	if res.Success || len(res.Errors) == 0 {
		t.Errorf("result = %+v, want failed with error list", res)
	}
	if res.Stats.ElementsVisited != 0 {
		t.Errorf("stats must report zero elements on parse failure")
	}
}

func TestConvertFallbacks(t *testing.T) {
	page := `<html><body><blockquote>Nobody claims this.</blockquote></body></html>`

	res, err := newEngine().Convert(context.Background(), []byte(page), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Fallbacks) != 1 {
		t.Fatalf("fallbacks = %d, want 1", len(res.Fallbacks))
	}
	if !strings.Contains(res.Fallbacks[0].Markup, "<blockquote>") {
		t.Errorf("fallback markup = %q", res.Fallbacks[0].Markup)
	}

	var types []string
	collectTypes(res.Document.Content, &types)
	if strings.Join(types, ",") != "html" {
		t.Errorf("widget types = %v, want single html fallback", types)
	}

	// With fallbacks disabled the fragment is dropped from the document
	// but still reported.
	off := false
	res, err = newEngine().Convert(context.Background(), []byte(page), convert.Options{FallbackRawHTML: &off})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Fallbacks) != 1 {
		t.Errorf("fallbacks = %d, want still reported", len(res.Fallbacks))
	}
	types = nil
	collectTypes(res.Document.Content, &types)
	if len(types) != 0 {
		t.Errorf("widget types = %v, want none", types)
	}
}

func TestOptimizeMergesAdjacentRawHTML(t *testing.T) {
	page := `<html><body><section><div class="container">
	  <blockquote>First quote.</blockquote>
	  <blockquote>Second quote.</blockquote>
	</div></section></body></html>`

	res, err := newEngine().Convert(context.Background(), []byte(page), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Stats.Fallbacks != 2 {
		t.Fatalf("fallbacks = %d, want both fragments reported", res.Stats.Fallbacks)
	}

	htmls := collectHTMLWidgets(res.Document.Content)
	if len(htmls) != 1 {
		t.Fatalf("html widgets = %d, want adjacent fragments merged into one", len(htmls))
	}
	markup, _ := htmls[0].Settings["html"].(string)
	if !strings.Contains(markup, "First quote.") || !strings.Contains(markup, "Second quote.") {
		t.Errorf("merged markup = %q", markup)
	}
}

func collectHTMLWidgets(nodes []*widget.Node) []*widget.Node {
	var out []*widget.Node
	for _, n := range nodes {
		if n.ElType == widget.ElTypeWidget && n.WidgetType == "html" {
			out = append(out, n)
		}
		out = append(out, collectHTMLWidgets(n.Elements)...)
	}
	return out
}

func TestOptimizeIdempotent(t *testing.T) {
	res, err := newEngine().Convert(context.Background(), []byte(landingPage), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	first, err := json.Marshal(res.Document)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	convert.OptimizeDocument(res.Document)
	second, err := json.Marshal(res.Document)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Error("second optimize pass changed the document")
	}
}

func TestResultSerializable(t *testing.T) {
	res, err := newEngine().Convert(context.Background(), []byte(landingPage), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Fatalf("result must serialize to JSON: %v", err)
	}
}

func TestConvertPages(t *testing.T) {
	pages := []convert.Page{
		{Name: "a.html", HTML: []byte(landingPage)},
		{Name: "b.html", HTML: []byte("<html><body><button class=\"btn\">Go</button></body></html>")},
		{Name: "c.html", HTML: []byte("<html><body></body></html>")},
	}

	results := newEngine().ConvertPages(context.Background(), pages, convert.Options{}, 2)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Name, r.Err)
		}
		if r.Result == nil || !r.Result.Success {
			t.Errorf("%s: conversion failed", r.Name)
		}
	}
}

func TestConvertPagesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newEngine().ConvertPages(ctx, []convert.Page{
		{Name: "a.html", HTML: []byte(landingPage)},
	}, convert.Options{}, 1)

	if results[0].Err == nil {
		t.Error("canceled batch must report the cancellation")
	}
}

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ string, w, h int) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func TestConvertWithValidation(t *testing.T) {
	validator := validate.NewValidator(stubRenderer{}, stubFetcher{}, nil)
	engine := convert.NewEngine(validator, nil)

	res, err := engine.Convert(context.Background(), []byte(landingPage), convert.Options{
		Validation: &validate.Options{Visual: true, CustomCode: true},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Validation == nil {
		t.Fatal("validation report missing")
	}
	if res.Validation.Visual == nil || res.Validation.CustomCode == nil {
		t.Errorf("sub-checks missing: %+v", res.Validation)
	}
}
