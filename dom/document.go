// Package dom parses scraped HTML into immutable element snapshots the
// conversion pipeline analyzes. It never mutates the underlying tree.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/ianaindex"
)

// Options controls document parsing.
type Options struct {
	// BaseURL is the address the page was scraped from, used to resolve
	// relative links and to classify link targets as external.
	BaseURL string
	// Encoding forces input decoding by IANA name. Empty means autodetect
	// from BOM/meta tags.
	Encoding string
}

// Document wraps a parsed HTML page.
type Document struct {
	gq   *goquery.Document
	base *url.URL
	log  *zap.Logger
}

// Parse decodes and parses a complete HTML document.
func Parse(data []byte, opts Options, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("dom")

	var r io.Reader = bytes.NewReader(data)
	if opts.Encoding != "" {
		enc, err := ianaindex.IANA.Encoding(opts.Encoding)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unsupported input encoding %q", opts.Encoding)
		}
		r = enc.NewDecoder().Reader(r)
	} else {
		var err error
		if r, err = charset.NewReader(r, ""); err != nil {
			return nil, fmt.Errorf("unable to detect input encoding: %w", err)
		}
	}

	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML: %w", err)
	}

	d := &Document{gq: gq, log: log}
	if opts.BaseURL != "" {
		if u, err := url.Parse(opts.BaseURL); err == nil {
			d.base = u
		} else {
			log.Warn("Ignoring malformed base URL", zap.String("url", opts.BaseURL), zap.Error(err))
		}
	}
	// <base href> overrides the scrape address
	if href, ok := gq.Find("base[href]").First().Attr("href"); ok {
		if u, err := d.ResolveURL(href); err == nil {
			d.base = u
		}
	}

	log.Debug("Parsed document", zap.Int("bytes", len(data)), zap.String("base", d.BaseURL()))
	return d, nil
}

// BaseURL returns document base address or empty string when unknown.
func (d *Document) BaseURL() string {
	if d.base == nil {
		return ""
	}
	return d.base.String()
}

// ResolveURL resolves ref against the document base.
func (d *Document) ResolveURL(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if d.base != nil {
		return d.base.ResolveReference(u), nil
	}
	return u, nil
}

// IsExternalURL reports whether ref points outside the document origin.
// Relative and fragment references are always internal.
func (d *Document) IsExternalURL(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return false
	}
	if d.base == nil {
		return true
	}
	return u.Scheme != d.base.Scheme || u.Host != d.base.Host
}

// Title returns page title, falling back to the first h1.
func (d *Document) Title() string {
	if t := strings.TrimSpace(d.gq.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(d.gq.Find("h1").First().Text())
}

// Body returns the analyzed body element, or nil when the document has none.
func (d *Document) Body() *Element {
	sel := d.gq.Find("body")
	if sel.Length() == 0 || len(sel.Nodes) == 0 {
		return nil
	}
	return d.analyze(sel.Nodes[0])
}

// StyleBlocks returns contents of every <style> element in document order.
func (d *Document) StyleBlocks() []string {
	var blocks []string
	d.gq.Find("style").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.TrimSpace(text) != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

// StylesheetLinks returns hrefs of linked stylesheets in document order.
func (d *Document) StylesheetLinks() []string {
	var links []string
	d.gq.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, strings.TrimSpace(href))
		}
	})
	return links
}

// Find returns analyzed elements matching a CSS selector in document order.
func (d *Document) Find(selector string) []*Element {
	var els []*Element
	d.gq.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			els = append(els, d.analyze(n))
		}
	})
	return els
}

// renderNode serializes a node back to HTML.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
