package validate

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"pbc/jpegquality"
	"pbc/utils/images"
)

// lowJPEGQuality is the encoder quality below which a fetched JPEG gets a
// degradation warning.
const lowJPEGQuality = 40

// assetCheck fetches every asset the converted document references and
// verifies it resolves to plausible content. Compatibility is scored
// against the original page's own asset set, so dropped references lower
// the score even when everything that remains fetches cleanly.
func (v *Validator) assetCheck(ctx context.Context, original, converted Target, opts Options) (*AssetResult, error) {
	res := &AssetResult{Total: len(original.Assets)}

	for _, asset := range converted.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(asset.URL, "data:") {
			res.Resolved++
			continue
		}
		data, err := v.fetch(ctx, asset.URL, opts)
		if err != nil {
			res.Failures = append(res.Failures, AssetFailure{Asset: asset, Reason: err.Error()})
			continue
		}
		if warn, err := verifyContent(asset.URL, data); err != nil {
			res.Failures = append(res.Failures, AssetFailure{Asset: asset, Reason: err.Error()})
			continue
		} else if warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		res.Resolved++
	}

	if res.Total == 0 {
		res.Compatibility = 100
	} else {
		res.Compatibility = float64(res.Resolved) / float64(res.Total) * 100
		if res.Compatibility > 100 {
			res.Compatibility = 100
		}
	}
	return res, nil
}

func (v *Validator) fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	fctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	return v.fetcher.Fetch(fctx, url)
}

// verifyContent sniffs the fetched bytes and cross-checks them against the
// URL's extension. Image formats get extra degradation checks: encoder
// quality for JPEG, rasterizability for SVG.
func verifyContent(url string, data []byte) (warning string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty response")
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(strings.SplitN(url, "?", 2)[0]), "."))

	kind, _ := filetype.Match(data)
	switch kind {
	case matchers.TypeJpeg:
		if ext != "" && ext != "jpg" && ext != "jpeg" {
			return "", fmt.Errorf("content is JPEG but URL claims .%s", ext)
		}
		if q, err := jpegquality.NewWithBytes(data); err == nil && q.Quality() < lowJPEGQuality {
			warning = fmt.Sprintf("%s: low JPEG quality (%d)", url, q.Quality())
		}
	case matchers.TypePng, matchers.TypeGif, matchers.TypeWebp:
		if ext != "" && ext != kind.Extension {
			return "", fmt.Errorf("content is %s but URL claims .%s", kind.Extension, ext)
		}
	default:
		if ext == "svg" || strings.Contains(string(data[:min(len(data), 512)]), "<svg") {
			if _, rerr := images.RasterizeSVG(data, 64, 64); rerr != nil {
				return "", fmt.Errorf("unrenderable SVG: %w", rerr)
			}
			break
		}
		if isImageExt(ext) {
			return "", fmt.Errorf("content of .%s asset is not a recognized image", ext)
		}
	}
	return warning, nil
}

func isImageExt(ext string) bool {
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp", "ico", "bmp", "avif":
		return true
	}
	return false
}
