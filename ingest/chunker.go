package ingest

import (
	"errors"
	"fmt"
)

// ErrChunkConfig reports an unusable window size/overlap pair.
var ErrChunkConfig = errors.New("invalid chunk configuration")

// Default window settings for extracted document text and for raw text
// uploads.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100

	DefaultTextChunkSize    = 500
	DefaultTextChunkOverlap = 50
)

// ValidateWindow checks that a window of size runes advancing by
// size-overlap makes progress.
func ValidateWindow(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w: chunk size %d must be positive", ErrChunkConfig, size)
	case overlap < 0:
		return fmt.Errorf("%w: chunk overlap %d must not be negative", ErrChunkConfig, overlap)
	case overlap >= size:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrChunkConfig, overlap, size)
	}
	return nil
}

// Chunk splits text into windows of at most size runes. Consecutive
// windows start size-overlap runes apart, so each shares its first overlap
// runes with the end of the previous one. Splitting stops at the first
// window that reaches the end of the text: text longer than size yields
// ceil((n-overlap)/(size-overlap)) windows, shorter text a single one.
// Empty text yields no windows.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := ValidateWindow(size, overlap); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	n := len(runes)
	stride := size - overlap

	var chunks []string
	for start := 0; ; start += stride {
		end := min(start+size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks, nil
}
