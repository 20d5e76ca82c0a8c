package validate

import (
	"context"
	"image"
)

// Renderer turns an HTML document into a screenshot at a fixed viewport.
// Implementations must honor the context deadline; the production renderer
// drives a headless browser, tests inject fakes returning canned images.
type Renderer interface {
	Render(ctx context.Context, html string, width, height int) (image.Image, error)
}

// AssetFetcher resolves one asset URL to its bytes.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
