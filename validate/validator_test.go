package validate_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"pbc/validate"
)

type fakeRenderer struct {
	images map[string]image.Image // keyed by a marker substring of the HTML
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, html string, w, h int) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	for marker, img := range f.images {
		if strings.Contains(html, marker) {
			return img, nil
		}
	}
	return solidImage(w, h, color.NRGBA{255, 255, 255, 255}), nil
}

type fakeFetcher struct {
	responses map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if data, ok := f.responses[url]; ok {
		return data, nil
	}
	return nil, errors.New("not found")
}

func solidImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func jpegBytes(t *testing.T, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(32, 32, color.NRGBA{90, 120, 30, 255}), &jpeg.Options{Quality: quality}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestVisualIdenticalPages(t *testing.T) {
	img := solidImage(64, 64, color.NRGBA{10, 20, 30, 255})
	v := validate.NewValidator(&fakeRenderer{images: map[string]image.Image{"<body>": img}}, nil, nil)

	page := "<html><head></head><body><p>same</p></body></html>"
	rpt := v.Validate(context.Background(), validate.Target{HTML: page}, validate.Target{HTML: page},
		validate.Options{Visual: true})

	if rpt.Visual == nil {
		t.Fatalf("visual result missing: %+v", rpt)
	}
	if rpt.Visual.Similarity != 100 {
		t.Errorf("similarity = %v, want 100", rpt.Visual.Similarity)
	}
	if !rpt.Valid || rpt.Score != 100 {
		t.Errorf("report = %+v, want valid with score 100", rpt)
	}
}

func TestVisualDetectsMissingElements(t *testing.T) {
	v := validate.NewValidator(&fakeRenderer{}, nil, nil)

	original := "<html><body><h1>T</h1><p>a</p><p>b</p><span>x</span></body></html>"
	converted := "<html><body><h1>T</h1><p>a</p></body></html>"
	rpt := v.Validate(context.Background(),
		validate.Target{HTML: original}, validate.Target{HTML: converted},
		validate.Options{Visual: true})

	missing := strings.Join(rpt.Visual.MissingElements, ",")
	if !strings.Contains(missing, "p (1)") || !strings.Contains(missing, "span (1)") {
		t.Errorf("missing = %q, want p and span reported", missing)
	}
}

func TestVisualRendererFailureIsScoped(t *testing.T) {
	v := validate.NewValidator(&fakeRenderer{err: errors.New("browser timeout")}, nil, nil)

	rpt := v.Validate(context.Background(),
		validate.Target{HTML: "<html><body><script>eval('x')</script></body></html>"},
		validate.Target{HTML: "<html><body></body></html>"},
		validate.Options{Visual: true, CustomCode: true})

	if len(rpt.Errors) != 1 || !strings.Contains(rpt.Errors[0], "visual") {
		t.Fatalf("errors = %v, want one visual error", rpt.Errors)
	}
	if rpt.CustomCode == nil {
		t.Error("custom-code check should still run after visual failure")
	}
}

func TestAssetsScoring(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://site.test/a.jpg": jpegBytes(t, 85),
	}}
	v := validate.NewValidator(nil, fetcher, nil)

	original := validate.Target{Assets: []validate.Asset{
		{URL: "https://site.test/a.jpg", Severity: validate.SeverityCritical},
		{URL: "https://site.test/gone.png", Severity: validate.SeverityLow},
	}}
	converted := original

	rpt := v.Validate(context.Background(), original, converted, validate.Options{Assets: true})
	if rpt.Assets == nil {
		t.Fatalf("assets result missing: %+v", rpt)
	}
	if rpt.Assets.Resolved != 1 || rpt.Assets.Total != 2 {
		t.Errorf("resolved/total = %d/%d, want 1/2", rpt.Assets.Resolved, rpt.Assets.Total)
	}
	if rpt.Assets.Compatibility != 50 {
		t.Errorf("compatibility = %v, want 50", rpt.Assets.Compatibility)
	}
	if len(rpt.Assets.Failures) != 1 || rpt.Assets.Failures[0].Asset.Severity != validate.SeverityLow {
		t.Errorf("failures = %+v", rpt.Assets.Failures)
	}
	if rpt.Score != 50 {
		t.Errorf("score = %v, want min across checks = 50", rpt.Score)
	}
}

func TestAssetsLowQualityJPEGWarning(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://site.test/bad.jpg": jpegBytes(t, 20),
	}}
	v := validate.NewValidator(nil, fetcher, nil)

	target := validate.Target{Assets: []validate.Asset{{URL: "https://site.test/bad.jpg", Severity: validate.SeverityHigh}}}
	rpt := v.Validate(context.Background(), target, target, validate.Options{Assets: true})

	if rpt.Assets.Resolved != 1 {
		t.Fatalf("low quality is a warning, not a failure: %+v", rpt.Assets)
	}
	if len(rpt.Assets.Warnings) == 0 || !strings.Contains(rpt.Assets.Warnings[0], "low JPEG quality") {
		t.Errorf("warnings = %v", rpt.Assets.Warnings)
	}
}

func TestAssetsDataURLAlwaysResolves(t *testing.T) {
	v := validate.NewValidator(nil, &fakeFetcher{}, nil)
	target := validate.Target{Assets: []validate.Asset{{URL: "data:image/png;base64,AA==", Severity: validate.SeverityLow}}}

	rpt := v.Validate(context.Background(), target, target, validate.Options{Assets: true})
	if rpt.Assets.Resolved != 1 || rpt.Assets.Compatibility != 100 {
		t.Errorf("assets = %+v, want data URL counted as resolved", rpt.Assets)
	}
}

func TestCustomCodeDetection(t *testing.T) {
	v := validate.NewValidator(nil, nil, nil)

	page := `<html><head>
	  <script src="https://cdn.test/wow.min.js"></script>
	  <style>@keyframes spin { from { transform: rotate(0) } } .nav { position: fixed; }</style>
	</head><body>
	  <div onclick="doThing()">Click</div>
	  <div class="animate__fadeIn">Fade</div>
	</body></html>`

	rpt := v.Validate(context.Background(), validate.Target{HTML: page}, validate.Target{},
		validate.Options{CustomCode: true})

	types := make(map[string]int)
	for _, f := range rpt.CustomCode.Features {
		types[f.Type]++
		if f.Supported {
			continue
		}
		if f.Workaround == "" {
			t.Errorf("unsupported feature %s/%s lacks workaround", f.Type, f.Detail)
		}
	}
	for _, want := range []string{"animation-library", "inline-event-handler", "css-animation", "fixed-position"} {
		if types[want] == 0 {
			t.Errorf("feature %q not detected in %v", want, types)
		}
	}
	if !rpt.Valid {
		t.Error("non-blocking features must not invalidate the report")
	}
}

func TestCustomCodeBlockingInvalidates(t *testing.T) {
	v := validate.NewValidator(nil, nil, nil)

	page := `<html><body><script>document.write("<p>hi</p>")</script></body></html>`
	rpt := v.Validate(context.Background(), validate.Target{HTML: page}, validate.Target{},
		validate.Options{CustomCode: true})

	if rpt.Valid {
		t.Error("blocking feature must force valid=false")
	}
}

func TestNothingRequested(t *testing.T) {
	v := validate.NewValidator(nil, nil, nil)
	rpt := v.Validate(context.Background(), validate.Target{}, validate.Target{}, validate.Options{})
	if !rpt.Valid || rpt.Score != 100 {
		t.Errorf("report = %+v, want clean no-op", rpt)
	}
}
