// Package index is an exact, in-memory vector index over chunks.
//
// Every chunk is stored next to its embedding at the same position; the
// two sequences only ever grow together. Search is a flat scan by squared
// Euclidean distance, which is exact and fast enough for the few thousand
// chunks a document set produces.
package index

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

var (
	// ErrIndexInconsistent means vectors and chunks no longer pair up, or
	// a persisted index pair is incomplete or corrupt.
	ErrIndexInconsistent = errors.New("index inconsistent")
	// ErrDimension means a vector does not match the index dimension.
	ErrDimension = errors.New("vector dimension mismatch")
)

// Hit is one search result: a position in the index and its squared L2
// distance to the query.
type Hit struct {
	Position int
	Distance float64
}

// Index pairs chunks with their embeddings. It is not safe for concurrent
// use; callers serialise access.
type Index struct {
	embedder hebrew.Embedder
	dim      int
	vectors  [][]float32
	chunks   []hebrew.Chunk
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// New creates an empty index embedding with e. The dimension is taken from
// e.Dimensions(); when that is 0 it is fixed by the first stored vector.
func New(e hebrew.Embedder, opts ...Option) *Index {
	ix := &Index{embedder: e, dim: e.Dimensions(), logger: nopLogger}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Dimension returns the vector dimension, or 0 before the first vector of
// an index without a configured dimension.
func (ix *Index) Dimension() int { return ix.dim }

// Chunk returns the chunk at pos. ok is false for positions that do not
// name a stored chunk, including the -1 sentinel.
func (ix *Index) Chunk(pos int) (c hebrew.Chunk, ok bool) {
	if pos < 0 || pos >= len(ix.chunks) {
		return hebrew.Chunk{}, false
	}
	return ix.chunks[pos], true
}

// Append embeds the text of every chunk in one batch call and stores the
// pairs. Empty input is a no-op. Nothing is stored if embedding fails or
// returns unusable vectors.
func (ix *Index) Append(ctx context.Context, chunks []hebrew.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks: %w", len(vecs), len(chunks), ErrIndexInconsistent)
	}
	dim := ix.dim
	if dim == 0 {
		dim = len(vecs[0])
	}
	for i, v := range vecs {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("vector %d has %d dimensions, index has %d: %w", i, len(v), dim, ErrDimension)
		}
	}
	ix.dim = dim
	ix.vectors = append(ix.vectors, vecs...)
	ix.chunks = append(ix.chunks, chunks...)
	ix.logger.Debug("chunks indexed", "added", len(chunks), "total", len(ix.chunks))
	return nil
}

// Search embeds query and returns the k nearest chunks, closest first.
// Fewer than k hits come back when the index holds fewer chunks; an empty
// index or k <= 0 yields no hits and no embedding call.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if len(ix.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query: %w", len(vecs), ErrIndexInconsistent)
	}
	return ix.SearchVector(vecs[0], k)
}

// SearchVector is Search with a precomputed query vector.
func (ix *Index) SearchVector(query []float32, k int) ([]Hit, error) {
	if len(ix.vectors) != len(ix.chunks) {
		return nil, fmt.Errorf("%d vectors for %d chunks: %w", len(ix.vectors), len(ix.chunks), ErrIndexInconsistent)
	}
	if len(ix.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), ix.dim, ErrDimension)
	}
	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(query, v)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits[:min(k, len(hits))], nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
