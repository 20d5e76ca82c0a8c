// Package validate checks the round-trip fidelity of a conversion: visual
// similarity against the source page, reachability of referenced assets and
// detection of custom code the target schema cannot represent. Sub-checks
// are independently toggleable and fail independently.
package validate

import (
	"time"
)

// Severity ranks an asset or discrepancy by how visibly its loss would
// break the page.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityLow      Severity = "low"
)

// Asset is one external resource referenced by a document together with the
// role that determines its failure severity.
type Asset struct {
	URL      string   `json:"url"`
	Severity Severity `json:"severity"`
}

// Target is one side of a validation: the rendered HTML plus the asset set
// it references. The conversion engine builds one for the source page and
// one for the converted output.
type Target struct {
	HTML    string  `json:"-"`
	BaseURL string  `json:"baseUrl,omitempty"`
	Assets  []Asset `json:"assets,omitempty"`
}

// Options selects and tunes the sub-checks of one validation run.
type Options struct {
	Visual     bool
	Assets     bool
	CustomCode bool

	PixelThreshold int // per-channel difference treated as a changed pixel
	ViewportWidth  int
	ViewportHeight int
	Timeout        time.Duration // per render or fetch operation
}

// Discrepancy is one per-element style difference found by the visual check.
type Discrepancy struct {
	Element  string `json:"element"`
	Property string `json:"property"`
	Original string `json:"original"`
	Got      string `json:"converted"`
	Major    bool   `json:"major"`
}

// VisualResult is the outcome of the pixel and element comparison.
type VisualResult struct {
	Similarity      float64       `json:"similarity"` // 0-100
	MissingElements []string      `json:"missingElements,omitempty"`
	ExtraElements   []string      `json:"extraElements,omitempty"`
	Discrepancies   []Discrepancy `json:"discrepancies,omitempty"`
}

// AssetFailure is one asset that could not be verified.
type AssetFailure struct {
	Asset  Asset  `json:"asset"`
	Reason string `json:"reason"`
}

// AssetResult is the outcome of asset verification.
type AssetResult struct {
	Total         int            `json:"total"`    // assets in the original set
	Resolved      int            `json:"resolved"` // converted assets verified fetchable
	Compatibility float64        `json:"compatibility"`
	Failures      []AssetFailure `json:"failures,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Feature is one custom-code construct found in the source page.
type Feature struct {
	Type       string `json:"type"`
	Detail     string `json:"detail"`
	Supported  bool   `json:"supported"`
	Blocking   bool   `json:"blocking,omitempty"`
	Workaround string `json:"workaround,omitempty"`
}

// CustomCodeResult is the outcome of the static custom-code scan.
type CustomCodeResult struct {
	Features []Feature `json:"features,omitempty"`
	Score    float64   `json:"score"`
}

// Report is the combined validation outcome. Score is the minimum across
// the sub-checks that actually ran; skipped checks do not penalize it.
type Report struct {
	Valid      bool              `json:"valid"`
	Score      float64           `json:"score"`
	Visual     *VisualResult     `json:"visual,omitempty"`
	Assets     *AssetResult      `json:"assets,omitempty"`
	CustomCode *CustomCodeResult `json:"customCode,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}
