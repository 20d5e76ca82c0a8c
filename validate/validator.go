package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults applied when Options fields are left zero.
const (
	DefaultPixelThreshold = 16
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	DefaultTimeout        = 30 * time.Second
)

// majorDiscrepancyLimit is how many elements may carry major style
// discrepancies before the visual check turns into a hard error.
const majorDiscrepancyLimit = 5

// Validator runs the fidelity sub-checks. The renderer and fetcher are
// injected so the logic tests against fakes; nil disables the checks that
// need them.
type Validator struct {
	log      *zap.Logger
	renderer Renderer
	fetcher  AssetFetcher
}

// NewValidator wires a validator with its I/O capabilities.
func NewValidator(renderer Renderer, fetcher AssetFetcher, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		log:      log.Named("validate"),
		renderer: renderer,
		fetcher:  fetcher,
	}
}

// Validate runs the selected sub-checks concurrently and combines them.
// A failing sub-check contributes an error string and drops out of the
// score; it never aborts its siblings. The overall score is the minimum
// across sub-checks that ran.
func (v *Validator) Validate(ctx context.Context, original, converted Target, opts Options) *Report {
	opts = withDefaults(opts)
	rpt := &Report{Valid: true}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(check string, err error) {
		mu.Lock()
		defer mu.Unlock()
		rpt.Errors = append(rpt.Errors, fmt.Sprintf("%s: %v", check, err))
	}

	if opts.Visual && v.renderer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.visualCheck(ctx, original, converted, opts)
			if err != nil {
				fail("visual", err)
				return
			}
			rpt.Visual = res
		}()
	}
	if opts.Assets && v.fetcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.assetCheck(ctx, original, converted, opts)
			if err != nil {
				fail("assets", err)
				return
			}
			rpt.Assets = res
		}()
	}
	if opts.CustomCode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.customCodeCheck(original)
			if err != nil {
				fail("custom-code", err)
				return
			}
			rpt.CustomCode = res
		}()
	}
	wg.Wait()

	v.combine(rpt)
	return rpt
}

// combine folds sub-check outcomes into the overall score and validity.
func (v *Validator) combine(rpt *Report) {
	score := -1.0
	min := func(s float64) {
		if score < 0 || s < score {
			score = s
		}
	}

	if rpt.Visual != nil {
		min(rpt.Visual.Similarity)
		if n := majorElementCount(rpt.Visual); n > majorDiscrepancyLimit {
			rpt.Valid = false
			rpt.Errors = append(rpt.Errors, fmt.Sprintf("visual: major style discrepancies in %d elements", n))
		}
	}
	if rpt.Assets != nil {
		min(rpt.Assets.Compatibility)
	}
	if rpt.CustomCode != nil {
		min(rpt.CustomCode.Score)
		for _, f := range rpt.CustomCode.Features {
			if f.Blocking {
				rpt.Valid = false
				break
			}
		}
	}

	if score < 0 {
		score = 100 // nothing ran, nothing to penalize
	}
	rpt.Score = score
}

func majorElementCount(res *VisualResult) int {
	seen := make(map[string]struct{})
	for _, d := range res.Discrepancies {
		if d.Major {
			seen[d.Element] = struct{}{}
		}
	}
	return len(seen)
}

func withDefaults(opts Options) Options {
	if opts.PixelThreshold <= 0 {
		opts.PixelThreshold = DefaultPixelThreshold
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return opts
}
