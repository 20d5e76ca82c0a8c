package recognize

import (
	"go.uber.org/zap"

	"pbc/dom"
	"pbc/style"
)

// Default thresholds for native-widget emission and the manual-review band.
const (
	DefaultCutoff     = 60
	DefaultReviewBand = 10
)

// conflictWindow is the confidence distance within which a firing pattern of
// another kind counts as a conflicting signal and attenuates the winner.
const conflictWindow = 5

// FallbackRawHTML marks a result whose confidence is too low for native
// mapping; the export stage emits the original markup opaquely instead.
const FallbackRawHTML = "raw-html"

// Result is the classification of one node.
type Result struct {
	Kind         Kind   `json:"componentType"`
	Confidence   int    `json:"confidence"`
	ManualReview bool   `json:"manualReviewNeeded"`
	FallbackType string `json:"fallbackType,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Native reports whether the result clears the cutoff for native mapping.
func (r Result) Native() bool {
	return r.FallbackType == ""
}

// Recognizer classifies nodes against a pattern library. Safe for concurrent
// use: the library is read-only and recognition keeps no state.
type Recognizer struct {
	log    *zap.Logger
	lib    *Library
	cutoff int
	band   int
}

// NewRecognizer creates a recognizer over the given library. A nil library
// selects the built-in default set; cutoff and band fall back to the package
// defaults when non-positive.
func NewRecognizer(lib *Library, cutoff, band int, log *zap.Logger) *Recognizer {
	if log == nil {
		log = zap.NewNop()
	}
	if lib == nil {
		lib = DefaultLibrary()
	}
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	if band <= 0 {
		band = DefaultReviewBand
	}
	return &Recognizer{
		log:    log.Named("recognizer"),
		lib:    lib,
		cutoff: cutoff,
		band:   band,
	}
}

// Recognize classifies one node. It never fails: nodes no pattern claims
// come back as unknown with confidence 0, and ambiguity shows up as lowered
// confidence or the manual-review flag rather than an error.
//
// Resolution is exact and reproducible: among firing patterns the highest
// confidence wins, ties go to the highest priority, remaining ties to the
// earliest declaration. When the best pattern of another kind lands within
// a small window of the winner, the winning confidence is attenuated by the
// overlap.
func (r *Recognizer) Recognize(el *dom.Element, styles style.Map, ctx Context) Result {
	if el == nil {
		return r.finish(Result{Kind: KindUnknown})
	}

	var winner *Pattern
	bestOther := -1 // best confidence among firing patterns of other kinds
	for i := range r.lib.patterns {
		p := &r.lib.patterns[i]
		if !p.Matches(el, styles, ctx) {
			continue
		}
		if winner == nil || better(p, winner) {
			if winner != nil && winner.Kind != p.Kind && winner.Confidence > bestOther {
				bestOther = winner.Confidence
			}
			winner = p
		} else if p.Kind != winner.Kind && p.Confidence > bestOther {
			bestOther = p.Confidence
		}
	}

	if winner == nil {
		return r.finish(Result{Kind: KindUnknown})
	}

	confidence := winner.Confidence
	if gap := confidence - bestOther; bestOther >= 0 && gap < conflictWindow {
		confidence -= conflictWindow - gap
		if confidence < 1 {
			confidence = 1
		}
	}

	return r.finish(Result{
		Kind:       winner.Kind,
		Confidence: confidence,
		Reason:     winner.Name,
	})
}

func better(p, winner *Pattern) bool {
	if p.Confidence != winner.Confidence {
		return p.Confidence > winner.Confidence
	}
	return p.Priority > winner.Priority
}

// finish applies the cutoff and review-band policy to a raw classification.
// Confidence inside the band below the cutoff still attempts native mapping
// but is flagged for a human glance; below the band the node degrades to an
// opaque raw-HTML fallback.
func (r *Recognizer) finish(res Result) Result {
	switch {
	case res.Confidence >= r.cutoff:
	case res.Confidence >= r.cutoff-r.band:
		res.ManualReview = true
	default:
		res.FallbackType = FallbackRawHTML
	}
	return res
}
