package recognize_test

import (
	"fmt"
	"testing"

	"pbc/dom"
	"pbc/recognize"
	"pbc/style"
)

func element(t *testing.T, body string) *dom.Element {
	t.Helper()
	page := fmt.Sprintf("<!DOCTYPE html><html><head></head><body>%s</body></html>", body)
	doc, err := dom.Parse([]byte(page), dom.Options{}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	children := doc.Body().Children()
	if len(children) == 0 {
		t.Fatal("fixture has no body children")
	}
	return children[0]
}

func TestRecognizeButtonByClass(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<button class="btn">Buy Now</button>`)

	res := r.Recognize(el, nil, recognize.Context{})
	if res.Kind != recognize.KindButton {
		t.Fatalf("kind = %s, want button", res.Kind)
	}
	if res.Confidence < 85 {
		t.Errorf("confidence = %d, want >= 85", res.Confidence)
	}
	if !res.Native() || res.ManualReview {
		t.Errorf("expected confident native result, got %+v", res)
	}
}

func TestRecognizeSubmitButtonInForm(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	form := element(t, `<form><button type="submit">Send</button></form>`)
	btn := form.Children()[0]

	res := r.Recognize(btn, nil, recognize.Context{InForm: true})
	if res.Kind != recognize.KindSubmitButton {
		t.Fatalf("kind = %s, want submit-button", res.Kind)
	}
	if !res.Native() {
		t.Errorf("expected native result, got %+v", res)
	}

	// Outside a form the same markup is a plain button.
	res = r.Recognize(btn, nil, recognize.Context{InForm: false})
	if res.Kind != recognize.KindButton {
		t.Errorf("kind outside form = %s, want button", res.Kind)
	}
}

func TestRecognizeFormInputs(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	form := element(t, `<form>
	  <input type="email" name="email" placeholder="you@example.com">
	  <input type="submit" value="Subscribe">
	</form>`)
	fields := form.Children()
	if len(fields) != 2 {
		t.Fatalf("form fields = %d, want 2", len(fields))
	}

	// Data-entry inputs are not buttons, they must fall back to raw HTML
	// so the field survives the conversion.
	res := r.Recognize(fields[0], nil, recognize.Context{InForm: true})
	if res.Kind != recognize.KindUnknown {
		t.Fatalf("email input kind = %s, want unknown", res.Kind)
	}
	if res.FallbackType != recognize.FallbackRawHTML {
		t.Errorf("email input fallback = %q, want %q", res.FallbackType, recognize.FallbackRawHTML)
	}

	res = r.Recognize(fields[1], nil, recognize.Context{InForm: true})
	if res.Kind != recognize.KindSubmitButton || !res.Native() {
		t.Errorf("submit input = %+v, want native submit-button", res)
	}
}

func TestRecognizeConfidenceMonotonic(t *testing.T) {
	// "evidence" constrains everything "base" does plus the card structure,
	// so an element carrying the extra evidence must never score below one
	// that only has the base shape.
	lib := recognize.NewLibrary([]recognize.Pattern{
		{Name: "base", Kind: recognize.KindCard, Tags: []string{"div"},
			ClassKeywords: []string{"card"}, Confidence: 72, Priority: 1},
		{Name: "evidence", Kind: recognize.KindCard, Tags: []string{"div"},
			ClassKeywords: []string{"card"}, Structure: recognize.StructureCard, Confidence: 88, Priority: 2},
	})
	r := recognize.NewRecognizer(lib, 60, 10, nil)

	weak := r.Recognize(element(t, `<div class="card">Plain text only</div>`), nil, recognize.Context{})
	strong := r.Recognize(element(t, `<div class="card"><img src="a.png"><h3>Title</h3><p>Body</p></div>`),
		nil, recognize.Context{})

	if weak.Reason != "base" || strong.Reason != "evidence" {
		t.Fatalf("winners = %q / %q, want base / evidence", weak.Reason, strong.Reason)
	}
	if strong.Confidence <= weak.Confidence {
		t.Errorf("confidence %d with extra evidence, %d without; more evidence must not score lower",
			strong.Confidence, weak.Confidence)
	}
}

func TestRecognizeHero(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<section>
	  <h1>Build faster</h1>
	  <p>Everything you need to launch a landing page in minutes.</p>
	  <button class="btn">Start</button>
	</section>`)
	styles := style.Map{"backgroundImage": "url(/img/bg.jpg)"}

	res := r.Recognize(el, styles, recognize.Context{})
	if res.Kind != recognize.KindHero {
		t.Fatalf("kind = %s, want hero", res.Kind)
	}
	if res.Confidence < 90 {
		t.Errorf("confidence = %d, want >= 90", res.Confidence)
	}

	// Without the background image the section stays a plain section.
	res = r.Recognize(el, nil, recognize.Context{})
	if res.Kind != recognize.KindSection {
		t.Errorf("kind without background = %s, want section", res.Kind)
	}
}

func TestRecognizeMenu(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<nav>
	  <a href="/">Home</a><a href="/about">About</a><a href="/contact">Contact</a>
	</nav>`)

	res := r.Recognize(el, nil, recognize.Context{})
	if res.Kind != recognize.KindMenu {
		t.Fatalf("kind = %s, want menu", res.Kind)
	}
}

func TestRecognizeAlert(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<div class="alert alert-success"><strong>Done</strong> Your changes were saved.</div>`)

	res := r.Recognize(el, nil, recognize.Context{})
	if res.Kind != recognize.KindAlert {
		t.Fatalf("kind = %s, want alert", res.Kind)
	}
}

func TestRecognizeUnknown(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<blockquote>Some quote nobody claims.</blockquote>`)

	res := r.Recognize(el, nil, recognize.Context{})
	if res.Kind != recognize.KindUnknown || res.Confidence != 0 {
		t.Fatalf("got %+v, want unknown with confidence 0", res)
	}
	if res.FallbackType != recognize.FallbackRawHTML {
		t.Errorf("fallback = %q, want %q", res.FallbackType, recognize.FallbackRawHTML)
	}
}

func TestRecognizeNilElement(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	if res := r.Recognize(nil, nil, recognize.Context{}); res.Kind != recognize.KindUnknown {
		t.Fatalf("nil element = %+v, want unknown", res)
	}
}

func TestRecognizeDeterministic(t *testing.T) {
	r := recognize.NewRecognizer(nil, 0, 0, nil)
	el := element(t, `<div class="card"><img src="a.png"><h3>Title</h3><p>Body text</p></div>`)

	first := r.Recognize(el, nil, recognize.Context{})
	for i := 0; i < 10; i++ {
		if got := r.Recognize(el, nil, recognize.Context{}); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	if first.Kind != recognize.KindCard {
		t.Errorf("kind = %s, want card", first.Kind)
	}
}

func TestRecognizeReviewBand(t *testing.T) {
	lib := recognize.NewLibrary([]recognize.Pattern{
		{Name: "certain", Kind: recognize.KindCard, Tags: []string{"article"}, Confidence: 80, Priority: 2},
		{Name: "gray", Kind: recognize.KindCard, Tags: []string{"div"}, Confidence: 55, Priority: 1},
	})
	r := recognize.NewRecognizer(lib, 60, 10, nil)

	res := r.Recognize(element(t, `<div>x</div>`), nil, recognize.Context{})
	if !res.ManualReview {
		t.Errorf("confidence 55 should flag manual review, got %+v", res)
	}
	if !res.Native() {
		t.Errorf("review band still attempts native mapping, got %+v", res)
	}

	res = r.Recognize(element(t, `<article>x</article>`), nil, recognize.Context{})
	if res.ManualReview || !res.Native() {
		t.Errorf("confidence 80 should be clean, got %+v", res)
	}
}

func TestRecognizeConflictAttenuation(t *testing.T) {
	lib := recognize.NewLibrary([]recognize.Pattern{
		{Name: "a", Kind: recognize.KindCard, Tags: []string{"div"}, Confidence: 90, Priority: 2},
		{Name: "b", Kind: recognize.KindIconBox, Tags: []string{"div"}, Confidence: 88, Priority: 1},
	})
	r := recognize.NewRecognizer(lib, 60, 10, nil)

	res := r.Recognize(element(t, `<div>x</div>`), nil, recognize.Context{})
	if res.Kind != recognize.KindCard {
		t.Fatalf("kind = %s, want card", res.Kind)
	}
	// Runner-up of a different kind is 2 below the winner, inside the
	// conflict window of 5, so the winner loses the remaining 3.
	if res.Confidence != 87 {
		t.Errorf("confidence = %d, want 87", res.Confidence)
	}
}

func TestRecognizeTieBreakByPriorityThenOrder(t *testing.T) {
	lib := recognize.NewLibrary([]recognize.Pattern{
		{Name: "low", Kind: recognize.KindCard, Tags: []string{"div"}, Confidence: 70, Priority: 1},
		{Name: "high", Kind: recognize.KindCard, Tags: []string{"div"}, Confidence: 70, Priority: 5},
		{Name: "first", Kind: recognize.KindCard, Tags: []string{"div"}, Confidence: 70, Priority: 5},
	})
	r := recognize.NewRecognizer(lib, 60, 10, nil)

	res := r.Recognize(element(t, `<div>x</div>`), nil, recognize.Context{})
	if res.Reason != "high" {
		t.Errorf("winner = %q, want the first highest-priority pattern %q", res.Reason, "high")
	}
}

func TestDefaultLibraryHasNoAmbiguousPairs(t *testing.T) {
	if pairs := recognize.DefaultLibrary().AmbiguousPairs(); len(pairs) != 0 {
		t.Errorf("ambiguous pattern pairs: %v", pairs)
	}
}

func TestBindExtractsGenericProps(t *testing.T) {
	el := element(t, `<div class="card" title="Card"><img src="pic.png" alt="A picture"><h3>Heading</h3><a href="/more">More</a></div>`)
	c := recognize.Bind(el, nil, recognize.Result{Kind: recognize.KindCard, Confidence: 85}, recognize.Context{})

	if c.Src != "pic.png" || c.Alt != "A picture" {
		t.Errorf("image props = %q/%q", c.Src, c.Alt)
	}
	if c.Href != "/more" {
		t.Errorf("href = %q, want /more", c.Href)
	}
	if c.Title != "Card" {
		t.Errorf("title = %q, want Card", c.Title)
	}
}
