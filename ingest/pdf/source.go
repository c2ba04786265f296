// Package pdf reads PDF documents for the ingest pipeline.
//
// It uses ledongthuc/pdf (BSD-3, pure Go, no CGO). Page text is rebuilt
// from positioned glyphs row by row, in visual order, and tables are
// recovered from the ruling rectangles drawn on the page.
package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest"
)

var _ ingest.Source = (*Source)(nil)

// Source opens PDF files.
type Source struct{}

// NewSource creates a PDF source.
func NewSource() *Source { return &Source{} }

// Open reads the whole file and parses its cross-reference table. The
// file handle is not kept open.
func (s *Source) Open(path string) (ingest.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse opens a PDF held in memory.
func Parse(content []byte) (doc ingest.Document, err error) {
	if len(content) == 0 {
		return nil, ingest.ErrEmptyDocument
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &document{r: r}, nil
}

type document struct {
	r *pdf.Reader
}

func (d *document) NumPages() int { return d.r.NumPage() }

func (d *document) Close() error { return nil }

// Page extracts page n. The PDF library panics on malformed content
// streams; those panics are returned as errors.
func (d *document) Page(n int) (page ingest.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = ingest.Page{}, fmt.Errorf("page %d: %v", n, r)
		}
	}()
	p := d.r.Page(n)
	if p.V.IsNull() {
		return ingest.Page{}, nil
	}
	content := p.Content()
	glyphs := normalizeGlyphs(content.Text)
	return ingest.Page{
		Text:   layoutText(glyphs),
		Tables: detectTables(content.Rect, glyphs),
	}, nil
}
