// Package convert orchestrates the whole pipeline: parse, style resolution,
// recognition, hierarchy building, widget mapping and document assembly,
// with optional fidelity validation of the result.
package convert

import (
	"time"

	"pbc/hierarchy"
	"pbc/recognize"
	"pbc/validate"
	"pbc/widget"
)

// Document is the exported page in the target builder's template format.
type Document struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Type    string         `json:"type"`
	Version string         `json:"version"`
	Content []*widget.Node `json:"content"`
}

// Fallback preserves the original markup of one low-confidence node so a
// human reviewer can triage it later.
type Fallback struct {
	Markup     string `json:"markup"`
	Kind       string `json:"componentType"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason,omitempty"`
}

// Stats are the aggregate counters of one conversion. They are computed
// once at the end and reflect work completed even when the conversion
// failed part way.
type Stats struct {
	ElementsVisited int           `json:"elementsVisited"`
	Recognized      int           `json:"recognized"`
	NativeWidgets   int           `json:"nativeWidgets"`
	Fallbacks       int           `json:"fallbacks"`
	ManualReview    int           `json:"manualReview"`
	Elapsed         time.Duration `json:"elapsed"`
	MeanConfidence  float64       `json:"meanConfidence"`
}

// Result is the complete outcome of one conversion. It serializes to JSON
// without circular references.
type Result struct {
	Success    bool                   `json:"success"`
	Document   *Document              `json:"document,omitempty"`
	Components []*recognize.Component `json:"components,omitempty"`
	Hierarchy  *hierarchy.Hierarchy   `json:"hierarchy,omitempty"`
	Fallbacks  []Fallback             `json:"fallbacks,omitempty"`
	Validation *validate.Report       `json:"validation,omitempty"`
	Stats      Stats                  `json:"stats"`
	Errors     []string               `json:"errors,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
}
