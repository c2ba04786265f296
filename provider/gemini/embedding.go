package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// maxBatch is the request limit of batchEmbedContents.
const maxBatch = 100

// Embedding implements hebrew.Embedder for Gemini embedding models.
type Embedding struct {
	apiKey     string
	model      string
	dims       int
	taskType   string
	httpClient *http.Client
}

// EmbeddingOption configures an Embedding provider.
type EmbeddingOption func(*Embedding)

// WithTaskType sets the embedding task type, for example
// "RETRIEVAL_DOCUMENT". Omitted by default.
func WithTaskType(t string) EmbeddingOption {
	return func(e *Embedding) { e.taskType = t }
}

// WithEmbeddingHTTPClient replaces the default HTTP client.
func WithEmbeddingHTTPClient(c *http.Client) EmbeddingOption {
	return func(e *Embedding) { e.httpClient = c }
}

// NewEmbedding creates a Gemini embedding provider producing dims-sized
// vectors.
func NewEmbedding(apiKey, model string, dims int, opts ...EmbeddingOption) *Embedding {
	e := &Embedding{
		apiKey:     apiKey,
		model:      model,
		dims:       dims,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns "gemini".
func (e *Embedding) Name() string { return "gemini" }

// Model returns the configured model name.
func (e *Embedding) Model() string { return e.model }

// Dimensions returns the configured embedding dimensionality.
func (e *Embedding) Dimensions() int { return e.dims }

// Embed embeds texts with batchEmbedContents, in requests of at most 100
// texts. Vectors come back in input order.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", baseURL, e.model)
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatch {
		batch := texts[start:min(start+maxBatch, len(texts))]
		requests := make([]map[string]any, len(batch))
		for i, text := range batch {
			req := map[string]any{
				"model": "models/" + e.model,
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
			}
			if e.dims > 0 {
				req["outputDimensionality"] = e.dims
			}
			if e.taskType != "" {
				req["taskType"] = e.taskType
			}
			requests[i] = req
		}

		respBody, err := post(ctx, e.httpClient, endpoint, e.apiKey, map[string]any{"requests": requests})
		if err != nil {
			return nil, err
		}
		var parsed struct {
			Embeddings []struct {
				Values []float64 `json:"values"`
			} `json:"embeddings"`
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, wrapErr("failed to parse embed response: " + err.Error())
		}
		if len(parsed.Embeddings) != len(batch) {
			return nil, wrapErr(fmt.Sprintf("got %d embeddings for %d texts", len(parsed.Embeddings), len(batch)))
		}
		for _, emb := range parsed.Embeddings {
			vec := make([]float32, len(emb.Values))
			for i, v := range emb.Values {
				vec[i] = float32(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

var _ hebrew.Embedder = (*Embedding)(nil)
