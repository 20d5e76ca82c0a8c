// Package archive builds Walk abstraction on top of "archive/zip" for
// crawl bundles, zip files produced by a site crawler holding HTML pages
// and their assets.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. The file argument is the zip.File structure for a matching entry.
// If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks all files in the archive whose name starts with pattern,
// calling walkFn for each item. Entries with path traversal components
// ("..") or absolute paths abort the walk to prevent Zip Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkPages walks only the HTML pages in a crawl bundle, skipping assets
// and crawler metadata.
func WalkPages(archive string, walkFn WalkFunc) error {
	return Walk(archive, "", func(archive string, file *zip.File) error {
		if !IsPageFile(file.Name) {
			return nil
		}
		return walkFn(archive, file)
	})
}

// IsPageFile reports whether a bundle entry holds an HTML page. Junk
// entries added by archiving tools (__MACOSX, dot files) do not count.
func IsPageFile(name string) bool {
	if junkEntry(name) {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// IsStyleFile reports whether a bundle entry holds a stylesheet, with the
// same junk rules as IsPageFile.
func IsStyleFile(name string) bool {
	if junkEntry(name) {
		return false
	}
	return strings.ToLower(path.Ext(name)) == ".css"
}

func junkEntry(name string) bool {
	if strings.HasPrefix(path.Base(name), ".") {
		return true
	}
	for _, part := range strings.Split(name, "/") {
		if part == "__MACOSX" {
			return true
		}
	}
	return false
}

// ReadFile slurps one zip entry into memory.
func ReadFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
