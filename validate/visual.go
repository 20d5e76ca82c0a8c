package validate

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"pbc/css"
	"pbc/dom"
	"pbc/style"
)

// majorProperties are the style properties whose divergence changes layout
// rather than looks.
var majorProperties = map[string]struct{}{
	"display":             {},
	"position":            {},
	"width":               {},
	"height":              {},
	"flexDirection":       {},
	"gridTemplateColumns": {},
}

// skippedTags are structural or invisible tags excluded from the element
// census.
var skippedTags = map[string]struct{}{
	"html": {}, "head": {}, "body": {}, "script": {}, "style": {},
	"meta": {}, "link": {}, "title": {}, "noscript": {},
}

// visualCheck renders both pages, pixel-diffs the screenshots and compares
// the element populations and resolved styles of the two documents.
func (v *Validator) visualCheck(ctx context.Context, original, converted Target, opts Options) (*VisualResult, error) {
	srcImg, err := v.render(ctx, original.HTML, opts)
	if err != nil {
		return nil, fmt.Errorf("rendering source: %w", err)
	}
	dstImg, err := v.render(ctx, converted.HTML, opts)
	if err != nil {
		return nil, fmt.Errorf("rendering converted: %w", err)
	}

	res := &VisualResult{
		Similarity: pixelSimilarity(srcImg, dstImg, opts.PixelThreshold),
	}
	v.compareDocuments(original, converted, res, opts.ViewportWidth)
	return res, nil
}

func (v *Validator) render(ctx context.Context, html string, opts Options) (image.Image, error) {
	rctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	return v.renderer.Render(rctx, html, opts.ViewportWidth, opts.ViewportHeight)
}

// pixelSimilarity is (total - differing) / total * 100. The converted
// screenshot is resized onto the source dimensions first so small layout
// drift does not shift every pixel below it.
func pixelSimilarity(a, b image.Image, threshold int) float64 {
	na := imaging.Clone(a)
	bounds := na.Bounds()
	nb := imaging.Clone(imaging.Resize(b, bounds.Dx(), bounds.Dy(), imaging.Lanczos))

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 100
	}
	differing := 0
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			pa := na.NRGBAAt(x, y)
			pb := nb.NRGBAAt(x, y)
			if channelDiff(pa.R, pb.R) > threshold ||
				channelDiff(pa.G, pb.G) > threshold ||
				channelDiff(pa.B, pb.B) > threshold {
				differing++
			}
		}
	}
	return float64(total-differing) / float64(total) * 100
}

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// compareDocuments fills the element census diff and per-element style
// discrepancies. Elements are matched by tag in document order; a missing
// renderer is not needed since both sides resolve styles statically.
func (v *Validator) compareDocuments(original, converted Target, res *VisualResult, viewport int) {
	srcDoc, err := dom.Parse([]byte(original.HTML), dom.Options{BaseURL: original.BaseURL}, v.log)
	if err != nil {
		return
	}
	dstDoc, err := dom.Parse([]byte(converted.HTML), dom.Options{BaseURL: converted.BaseURL}, v.log)
	if err != nil {
		return
	}

	srcTags := census(srcDoc)
	dstTags := census(dstDoc)
	for _, tag := range sortedTags(srcTags) {
		if d := srcTags[tag] - dstTags[tag]; d > 0 {
			res.MissingElements = append(res.MissingElements, fmt.Sprintf("%s (%d)", tag, d))
		}
	}
	for _, tag := range sortedTags(dstTags) {
		if d := dstTags[tag] - srcTags[tag]; d > 0 {
			res.ExtraElements = append(res.ExtraElements, fmt.Sprintf("%s (%d)", tag, d))
		}
	}

	res.Discrepancies = styleDiscrepancies(srcDoc, dstDoc, viewport, v)
}

func census(doc *dom.Document) map[string]int {
	counts := make(map[string]int)
	body := doc.Body()
	if body == nil {
		return counts
	}
	var walk func(el *dom.Element)
	walk = func(el *dom.Element) {
		if _, skip := skippedTags[el.Tag]; !skip {
			counts[el.Tag]++
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(body)
	return counts
}

func sortedTags(m map[string]int) []string {
	tags := make([]string, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

const maxDiscrepancies = 50

// styleDiscrepancies pairs same-tag elements in document order and compares
// their statically resolved styles. Layout-affecting property differences
// are major, cosmetic ones minor.
func styleDiscrepancies(src, dst *dom.Document, viewport int, v *Validator) []Discrepancy {
	srcStyles := resolveAll(src, viewport, v)
	dstStyles := resolveAll(dst, viewport, v)

	var out []Discrepancy
	for tag, srcList := range srcStyles {
		dstList := dstStyles[tag]
		for i, sm := range srcList {
			if i >= len(dstList) {
				break
			}
			dm := dstList[i]
			element := fmt.Sprintf("%s[%d]", tag, i)
			for _, prop := range unionKeys(sm, dm) {
				if len(out) >= maxDiscrepancies {
					return out
				}
				a, b := sm.Get(prop), dm.Get(prop)
				if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
					continue
				}
				_, major := majorProperties[prop]
				out = append(out, Discrepancy{
					Element:  element,
					Property: prop,
					Original: a,
					Got:      b,
					Major:    major,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Element != out[j].Element {
			return out[i].Element < out[j].Element
		}
		return out[i].Property < out[j].Property
	})
	return out
}

// resolveAll computes the effective style of every element, grouped by tag
// in document order.
func resolveAll(doc *dom.Document, viewport int, v *Validator) map[string][]style.Map {
	parser := css.NewParser(v.log)
	var sheetSrc strings.Builder
	for _, block := range doc.StyleBlocks() {
		sheetSrc.WriteString(block)
		sheetSrc.WriteString("\n")
	}
	sheet := parser.Parse([]byte(sheetSrc.String()))
	ex := style.NewExtractor(viewport, v.log)

	out := make(map[string][]style.Map)
	body := doc.Body()
	if body == nil {
		return out
	}
	var walk func(el *dom.Element)
	walk = func(el *dom.Element) {
		if _, skip := skippedTags[el.Tag]; !skip {
			out[el.Tag] = append(out[el.Tag], ex.Resolve(el, sheet))
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(body)
	return out
}

func unionKeys(a, b style.Map) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
