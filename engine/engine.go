// Package engine ingests Hebrew documents into a vector index and answers
// questions over them with an LLM.
//
// An Engine is not safe for concurrent use. Ingestion mutates the shared
// index, so callers serving requests concurrently must serialise access.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	"github.com/sameertanveer602-cmyk/Hebrew/index"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest/pdf"
	"github.com/sameertanveer602-cmyk/Hebrew/rtl"
)

// DefaultTopK is the number of chunks retrieved when a caller passes a
// non-positive top-k.
const DefaultTopK = 7

// Engine owns the index, the document extractor and the answer providers.
type Engine struct {
	index     *index.Index
	extractor *ingest.Extractor
	source    ingest.Source

	primary  hebrew.Generator
	fallback hebrew.Generator
	mode     Mode

	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPrimary sets the first-choice answer provider.
func WithPrimary(g hebrew.Generator) Option {
	return func(e *Engine) { e.primary = g }
}

// WithFallback sets the provider tried when the primary fails. Without a
// primary it is used directly.
func WithFallback(g hebrew.Generator) Option {
	return func(e *Engine) { e.fallback = g }
}

// WithChunking sets the window used for extracted document text (default
// 800 runes with 100 overlap). Invalid values fail at ingest time.
func WithChunking(size, overlap int) Option {
	return func(e *Engine) {
		e.chunkSize = size
		e.chunkOverlap = overlap
	}
}

// WithSource replaces the PDF reader, mainly for tests.
func WithSource(src ingest.Source) Option {
	return func(e *Engine) { e.source = src }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine embedding with emb. The provider mode is fixed
// here from the configured generators.
func New(emb hebrew.Embedder, opts ...Option) *Engine {
	e := &Engine{
		source:       pdf.NewSource(),
		chunkSize:    ingest.DefaultChunkSize,
		chunkOverlap: ingest.DefaultChunkOverlap,
		logger:       nopLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.index = index.New(emb, index.WithLogger(e.logger))
	e.extractor = ingest.NewExtractor(e.source, ingest.WithLogger(e.logger))

	if e.primary == nil && e.fallback != nil {
		e.primary, e.fallback = e.fallback, nil
	}
	e.mode = selectMode(e.primary, e.fallback)
	e.logger.Info("engine ready", "mode", e.mode.String(), "provider", e.ProviderName())
	return e
}

// Mode reports the provider configuration chosen at construction.
func (e *Engine) Mode() Mode { return e.mode }

// ProviderName names the active providers, for example "gemini+groq", or
// "none".
func (e *Engine) ProviderName() string {
	switch e.mode {
	case ModePrimary:
		return e.primary.Name()
	case ModePrimaryWithFallback:
		return e.primary.Name() + "+" + e.fallback.Name()
	default:
		return "none"
	}
}

// Len returns the number of indexed chunks.
func (e *Engine) Len() int { return e.index.Len() }

// AddDocument extracts the PDF at path and indexes it under docID. Text
// records are split into windows; each table becomes exactly one chunk.
// It returns the number of chunks added. On error nothing is added.
func (e *Engine) AddDocument(ctx context.Context, path, docID string) (int, error) {
	if err := ingest.ValidateWindow(e.chunkSize, e.chunkOverlap); err != nil {
		return 0, err
	}
	records, err := e.extractor.Extract(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", docID, err)
	}

	var chunks []hebrew.Chunk
	for _, rec := range records {
		if rec.Type == hebrew.ContentTable {
			chunks = append(chunks, hebrew.Chunk{DocID: docID, Page: rec.Page, Type: rec.Type, Text: rec.Content})
			continue
		}
		windows, err := ingest.Chunk(rec.Content, e.chunkSize, e.chunkOverlap)
		if err != nil {
			return 0, err
		}
		for _, w := range windows {
			chunks = append(chunks, hebrew.Chunk{DocID: docID, Page: rec.Page, Type: hebrew.ContentText, Text: w})
		}
	}
	if err := e.index.Append(ctx, chunks); err != nil {
		return 0, fmt.Errorf("index %s: %w", docID, err)
	}
	e.logger.Info("document added", "doc_id", docID, "records", len(records), "chunks", len(chunks))
	return len(chunks), nil
}

// AddText direction-fixes raw once, splits it with the given window and
// indexes the pieces as page 1 text of docID. metadata is attached to
// every chunk. It returns the number of chunks added.
func (e *Engine) AddText(ctx context.Context, raw, docID string, metadata map[string]any, size, overlap int) (int, error) {
	return e.addWindows(ctx, rtl.FixText(raw), docID, metadata, size, overlap)
}

// AddLogicalText indexes text that is already in logical order, such as a
// fetched web page, without direction fixing.
func (e *Engine) AddLogicalText(ctx context.Context, text, docID string, metadata map[string]any, size, overlap int) (int, error) {
	return e.addWindows(ctx, text, docID, metadata, size, overlap)
}

func (e *Engine) addWindows(ctx context.Context, text, docID string, metadata map[string]any, size, overlap int) (int, error) {
	windows, err := ingest.Chunk(text, size, overlap)
	if err != nil {
		return 0, err
	}
	chunks := make([]hebrew.Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = hebrew.Chunk{
			DocID:    docID,
			Page:     1,
			Type:     hebrew.ContentText,
			Text:     w,
			Metadata: maps.Clone(metadata),
		}
	}
	if err := e.index.Append(ctx, chunks); err != nil {
		return 0, fmt.Errorf("index %s: %w", docID, err)
	}
	e.logger.Info("text added", "doc_id", docID, "chunks", len(chunks))
	return len(chunks), nil
}

// Retrieve returns the topK chunks nearest to query, closest first.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]hebrew.RetrievedChunk, error) {
	sources, _, err := e.retrieve(ctx, query, topK)
	return sources, err
}

// Search answers query from the topK nearest chunks. Retrieval failures
// are returned as errors; generation failures never are, they become the
// answer text.
func (e *Engine) Search(ctx context.Context, query string, topK int) (hebrew.SearchResult, error) {
	sources, chunks, err := e.retrieve(ctx, query, topK)
	if err != nil {
		return hebrew.SearchResult{}, err
	}
	prompt := BuildPrompt(BuildContext(chunks), query)
	answer := e.answer(ctx, prompt)
	e.logger.Info("query answered", "sources", len(sources), "mode", e.mode.String())
	return hebrew.SearchResult{Answer: answer, Sources: sources}, nil
}

// retrieve embeds query and resolves the nearest hits to chunks.
func (e *Engine) retrieve(ctx context.Context, query string, topK int) ([]hebrew.RetrievedChunk, []hebrew.Chunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	hits, err := e.index.Search(ctx, query, topK)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: %w", err)
	}
	sources, chunks := e.resolve(hits)
	return sources, chunks, nil
}

// resolve maps hits to stored chunks in rank order. Positions the index
// does not hold are skipped.
func (e *Engine) resolve(hits []index.Hit) ([]hebrew.RetrievedChunk, []hebrew.Chunk) {
	sources := make([]hebrew.RetrievedChunk, 0, len(hits))
	chunks := make([]hebrew.Chunk, 0, len(hits))
	for _, h := range hits {
		c, ok := e.index.Chunk(h.Position)
		if !ok {
			e.logger.Debug("skipping hit outside index", "position", h.Position)
			continue
		}
		sources = append(sources, hebrew.RetrievedChunk{
			ChunkID: strconv.Itoa(h.Position),
			Text:    c.Text,
			Score:   h.Distance,
			Fields:  c.Fields(),
		})
		chunks = append(chunks, c)
	}
	return sources, chunks
}

// Save persists the index as <base>.index and <base>.meta.
func (e *Engine) Save(base string) error { return e.index.Save(base) }

// Load replaces the index with the pair saved under base.
func (e *Engine) Load(base string) error { return e.index.Load(base) }

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
