package convert

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Page is one unit of a batch conversion.
type Page struct {
	Name string // identifier carried into the result, typically the path
	HTML []byte
}

// PageResult pairs a page with its conversion outcome. Err is only set for
// configuration-level rejections or a canceled batch.
type PageResult struct {
	Name   string
	Result *Result
	Err    error
}

// ConvertPages converts pages concurrently, bounded by jobs (defaulting to
// GOMAXPROCS). Page conversions share no mutable state, so this is
// embarrassingly parallel. When the context is canceled, in-flight pages
// are allowed to finish but not-yet-started pages are skipped and reported
// with the cancellation error.
func (e *Engine) ConvertPages(ctx context.Context, pages []Page, opts Options, jobs int) []PageResult {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]PageResult, len(pages))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, page := range pages {
		g.Go(func() error {
			results[i].Name = page.Name
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Result, results[i].Err = e.Convert(ctx, page.HTML, opts)
			return nil
		})
	}
	g.Wait() // errors land in results, never here
	return results
}
