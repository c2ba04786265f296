package hebrew

import "fmt"

// ContentType tags a chunk as running text or a rendered table.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentTable ContentType = "table"
)

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	return c == ContentText || c == ContentTable
}

// Chunk is one retrievable unit. Chunks are immutable once indexed and are
// addressed by their position in the index.
type Chunk struct {
	DocID    string         `json:"doc_id"`
	Page     int            `json:"page"`
	Type     ContentType    `json:"type"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Fields flattens the chunk into the metadata map exposed to API callers.
// Caller-supplied metadata never overrides the four core fields.
func (c Chunk) Fields() map[string]any {
	m := make(map[string]any, len(c.Metadata)+4)
	for k, v := range c.Metadata {
		m[k] = v
	}
	m["doc_id"] = c.DocID
	m["page"] = c.Page
	m["type"] = string(c.Type)
	m["text"] = c.Text
	return m
}

// Citation renders the source header used in prompt context blocks.
func (c Chunk) Citation() string {
	return fmt.Sprintf("[מקור: %s, עמוד: %d]", c.DocID, c.Page)
}

// RetrievedChunk is a chunk returned by a search together with its squared
// L2 distance to the query. Lower is closer.
type RetrievedChunk struct {
	ChunkID string         `json:"chunk_id"`
	Text    string         `json:"text"`
	Score   float64        `json:"score"`
	Fields  map[string]any `json:"metadata"`
}

// SearchResult is the answer to one question. Sources keep retrieval rank
// order.
type SearchResult struct {
	Answer  string           `json:"answer"`
	Sources []RetrievedChunk `json:"sources"`
}
