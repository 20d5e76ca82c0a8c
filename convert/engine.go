package convert

import (
	"context"
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"pbc/config"
	"pbc/css"
	"pbc/dom"
	"pbc/hierarchy"
	"pbc/recognize"
	"pbc/style"
	"pbc/validate"
	"pbc/widget"
)

// default.css approximates browser user-agent defaults so static style
// resolution has a baseline even for pages that ship no CSS.
//
//go:embed default.css
var defaultStylesheet []byte

const documentVersion = "0.4"

// Options tune one conversion. Zero values select the documented defaults.
type Options struct {
	Schema          config.TargetSchema
	MinConfidence   int    // cutoff for native widgets, default 60
	ReviewBand      int    // width of the manual-review band, default 10
	FallbackRawHTML *bool  // keep low-confidence fragments as raw HTML, default true
	Optimize        *bool  // run the size optimization post pass, default true
	ViewportWidth   int    // media query evaluation width, default 1280
	BaseURL         string // overrides the document's own base URL
	Encoding        string // forced source encoding, autodetected when empty
	ExtraCSS        []byte // standalone stylesheet applied after page styles

	Validation *validate.Options // nil skips validation
}

func (o Options) fallbackRawHTML() bool { return o.FallbackRawHTML == nil || *o.FallbackRawHTML }
func (o Options) optimize() bool        { return o.Optimize == nil || *o.Optimize }

func (o Options) viewport() int {
	if o.ViewportWidth > 0 {
		return o.ViewportWidth
	}
	return 1280
}

// Engine converts pages. It is safe for concurrent use: per-conversion
// state lives on the stack of Convert.
type Engine struct {
	log       *zap.Logger
	lib       *recognize.Library
	registry  *widget.Registry
	validator *validate.Validator
}

// NewEngine builds an engine. The validator may be nil when no conversion
// will request validation.
func NewEngine(validator *validate.Validator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:       log.Named("convert"),
		lib:       recognize.DefaultLibrary(),
		registry:  widget.NewRegistry(log),
		validator: validator,
	}
}

// Convert runs the full pipeline over one HTML document.
//
// Only configuration problems surface as a returned error, and they are
// rejected before any DOM work. Parse failures and anything that goes wrong
// below the document level are folded into the Result: a bad fragment
// degrades to a fallback, a bad page reports success false with populated
// statistics.
func (e *Engine) Convert(ctx context.Context, html []byte, opts Options) (*Result, error) {
	if opts.Schema != config.TargetSchemaElementor {
		return nil, fmt.Errorf("unsupported target schema %q", opts.Schema)
	}

	start := time.Now()
	res := &Result{}
	defer func() {
		res.Stats.Elapsed = time.Since(start)
	}()

	doc, err := dom.Parse(html, dom.Options{BaseURL: opts.BaseURL, Encoding: opts.Encoding}, e.log)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("parse: %v", err))
		return res, nil
	}

	sheet := e.parseStyles(doc, opts)
	res.Warnings = append(res.Warnings, sheet.Warnings...)
	builder := hierarchy.NewBuilder(
		style.NewExtractor(opts.viewport(), e.log),
		recognize.NewRecognizer(e.lib, opts.MinConfidence, opts.ReviewBand, e.log),
		sheet, e.log)

	tree := builder.Build(doc)
	tree.Simplify()
	res.Hierarchy = tree
	res.Components = tree.Components()

	res.Document = &Document{
		ID:      uuid.NewString(),
		Title:   doc.Title(),
		Type:    "page",
		Version: documentVersion,
	}
	gen := widget.NewIDGen()
	for _, root := range tree.Roots {
		if n := e.assemble(root, gen, res, opts); n != nil {
			res.Document.Content = append(res.Document.Content, e.asTopLevel(n, gen))
		}
	}

	if opts.optimize() {
		OptimizeDocument(res.Document)
	}

	e.fillStats(res)
	res.Success = true

	if opts.Validation != nil && e.validator != nil {
		res.Validation = e.runValidation(ctx, string(html), doc, sheet, res, opts)
	}
	return res, nil
}

// parseStyles folds the baseline defaults, the page's own style blocks and
// any standalone CSS into one stylesheet, in that cascade order.
func (e *Engine) parseStyles(doc *dom.Document, opts Options) *css.Stylesheet {
	var sb strings.Builder
	sb.Write(defaultStylesheet)
	sb.WriteString("\n")
	for _, block := range doc.StyleBlocks() {
		sb.WriteString(block)
		sb.WriteString("\n")
	}
	sb.Write(opts.ExtraCSS)
	return css.NewParser(e.log).Parse([]byte(sb.String()))
}

// assemble lowers one hierarchy node into a target-schema node, recovering
// from mapper panics so a single bad component cannot abort the document.
func (e *Engine) assemble(node *hierarchy.Node, gen *widget.IDGen, res *Result, opts Options) *widget.Node {
	if node.Role == hierarchy.RoleWidget {
		return e.assembleWidget(node, gen, res, opts)
	}

	out := &widget.Node{
		ID:       gen.Next(),
		ElType:   widget.ElTypeSection,
		Settings: sectionSettings(node),
		Elements: []*widget.Node{},
	}
	if node.Role == hierarchy.RoleColumn {
		out.ElType = widget.ElTypeColumn
	}

	for _, child := range node.Children {
		if n := e.assemble(child, gen, res, opts); n != nil {
			out.Elements = append(out.Elements, n)
		}
	}

	// Sections hold only columns in the target schema: wrap any loose
	// children into one synthetic column.
	if out.ElType == widget.ElTypeSection {
		out.Elements = columnize(out.Elements, gen)
	}
	return out
}

func (e *Engine) assembleWidget(node *hierarchy.Node, gen *widget.IDGen, res *Result, opts Options) (out *widget.Node) {
	comp := node.Component
	if comp == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Mapper panic, degrading to raw HTML",
				zap.String("kind", comp.Result.Kind.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res.Errors = append(res.Errors, fmt.Sprintf("mapping %s: %v", comp.Result.Kind, r))
			out = e.fallback(comp, gen, res, opts, "mapper panic")
		}
	}()

	if !comp.Result.Native() {
		return e.fallback(comp, gen, res, opts, "confidence below cutoff")
	}
	mapped, ok := e.registry.Map(gen, comp)
	if !ok {
		return e.fallback(comp, gen, res, opts, "no mapper for kind")
	}
	return mapped
}

func (e *Engine) fallback(comp *recognize.Component, gen *widget.IDGen, res *Result, opts Options, reason string) *widget.Node {
	res.Fallbacks = append(res.Fallbacks, Fallback{
		Markup:     comp.Element.OuterHTML(),
		Kind:       comp.Result.Kind.String(),
		Confidence: comp.Result.Confidence,
		Reason:     reason,
	})
	if !opts.fallbackRawHTML() {
		return nil
	}
	return e.registry.RawHTML(gen, comp.Element)
}

// asTopLevel guarantees a top-level entry is a section; a stray widget or
// column gets wrapped.
func (e *Engine) asTopLevel(n *widget.Node, gen *widget.IDGen) *widget.Node {
	if n.ElType == widget.ElTypeSection {
		return n
	}
	section := &widget.Node{
		ID:       gen.Next(),
		ElType:   widget.ElTypeSection,
		Settings: map[string]any{},
		Elements: columnize([]*widget.Node{n}, gen),
	}
	return section
}

// columnize ensures every direct child of a section is a column.
func columnize(elements []*widget.Node, gen *widget.IDGen) []*widget.Node {
	var out []*widget.Node
	var pending []*widget.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, &widget.Node{
			ID:       gen.Next(),
			ElType:   widget.ElTypeColumn,
			Settings: map[string]any{"_column_size": 100},
			Elements: pending,
		})
		pending = nil
	}
	for _, el := range elements {
		if el.ElType == widget.ElTypeColumn {
			flush()
			out = append(out, el)
			continue
		}
		if el.ElType == widget.ElTypeSection {
			el.IsInner = true
		}
		pending = append(pending, el)
	}
	flush()
	return out
}

// sectionSettings derives layout settings from the component's resolved
// style.
func sectionSettings(node *hierarchy.Node) map[string]any {
	settings := map[string]any{}
	comp := node.Component
	if comp == nil {
		return settings
	}
	if hex, ok := comp.Styles.Color("backgroundColor"); ok {
		settings["background_background"] = "classic"
		settings["background_color"] = hex
	}
	if bg := comp.Styles.BackgroundImageURL(); bg != "" {
		settings["background_background"] = "classic"
		settings["background_image"] = map[string]any{"url": bg}
	}
	if comp.Styles.Is("textAlign", "center") {
		settings["text_align"] = "center"
	}
	if n, unit, ok := comp.Styles.Length("padding"); ok {
		if unit == "" {
			unit = "px"
		}
		settings["padding"] = widget.Size{Size: n, Unit: unit}
	}
	if anchor := sectionAnchor(comp.Element); anchor != "" {
		settings["_element_id"] = anchor
	}
	return settings
}

// sectionAnchor keeps the source anchor of a section so in-page links keep
// working after conversion. Sections without an id get one slugged from
// their heading.
func sectionAnchor(el *dom.Element) string {
	if el == nil {
		return ""
	}
	if id := el.ID(); id != "" {
		return slug.Make(id)
	}
	if h := el.FirstDescendant("h1", "h2", "h3"); h != nil {
		return slug.Make(h.FullText())
	}
	return ""
}

func (e *Engine) fillStats(res *Result) {
	res.Stats.ElementsVisited = res.Hierarchy.Visited
	res.Stats.Fallbacks = len(res.Fallbacks)

	sum := 0
	for _, c := range res.Components {
		if c.Result.Kind != recognize.KindUnknown {
			res.Stats.Recognized++
		}
		if c.Result.ManualReview {
			res.Stats.ManualReview++
		}
		sum += c.Result.Confidence
	}
	if n := len(res.Components); n > 0 {
		res.Stats.MeanConfidence = float64(sum) / float64(n)
	}
	res.Stats.NativeWidgets = countWidgets(res.Document.Content)
}

func countWidgets(nodes []*widget.Node) int {
	n := 0
	for _, node := range nodes {
		if node.ElType == widget.ElTypeWidget && node.WidgetType != "html" {
			n++
		}
		n += countWidgets(node.Elements)
	}
	return n
}
