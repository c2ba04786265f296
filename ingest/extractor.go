// Package ingest turns documents into direction-fixed records and splits
// text into overlapping windows for embedding.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	"github.com/sameertanveer602-cmyk/Hebrew/rtl"
)

// ErrEmptyDocument is returned by sources for zero-length input.
var ErrEmptyDocument = errors.New("empty document")

// Record is one unit of extracted content. Page numbers start at 1.
type Record struct {
	Page    int
	Type    hebrew.ContentType
	Content string
}

// Page is the raw content of one document page as the source library
// produced it: text in visual order and zero or more table grids.
type Page struct {
	Text   string
	Tables [][][]string
}

// Document is an opened, paginated document.
type Document interface {
	NumPages() int
	// Page returns page n, 1-indexed.
	Page(n int) (Page, error)
	Close() error
}

// Source opens documents from the filesystem.
type Source interface {
	Open(path string) (Document, error)
}

// Extractor reads every page of a document and emits one text record per
// non-empty page followed by one table record per table on that page.
type Extractor struct {
	source Source
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor over src.
func NewExtractor(src Source, opts ...Option) *Extractor {
	e := &Extractor{source: src, logger: nopLogger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the records of the document at path in page order.
// Any page failure aborts the whole extraction; no partial result is
// returned.
func (e *Extractor) Extract(ctx context.Context, path string) ([]Record, error) {
	doc, err := e.source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer doc.Close()

	var records []Record
	var tables int
	for n := 1; n <= doc.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("read %s page %d: %w", path, n, err)
		}
		if text := rtl.FixText(page.Text); text != "" {
			records = append(records, Record{Page: n, Type: hebrew.ContentText, Content: text})
		}
		for _, grid := range page.Tables {
			md := rtl.FormatTable(grid)
			if md == "" {
				continue
			}
			records = append(records, Record{Page: n, Type: hebrew.ContentTable, Content: md})
			tables++
		}
	}
	e.logger.Debug("document extracted",
		"path", path,
		"pages", doc.NumPages(),
		"records", len(records),
		"tables", tables)
	return records, nil
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
