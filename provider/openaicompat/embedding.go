package openaicompat

import (
	"context"
	"fmt"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	openai "github.com/sashabaranov/go-openai"
)

// Embedding implements hebrew.Embedder over an OpenAI-compatible
// embeddings endpoint.
type Embedding struct {
	name   string
	model  string
	dims   int
	client *openai.Client
}

// NewEmbedding creates an embedding provider. When dims is positive it is
// sent as the requested output dimensionality.
func NewEmbedding(apiKey, model, baseURL string, dims int, opts ...ProviderOption) *Embedding {
	cfg := providerConfig{name: "openai"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Embedding{
		name:   cfg.name,
		model:  model,
		dims:   dims,
		client: newClient(apiKey, baseURL, cfg.httpClient),
	}
}

func (e *Embedding) Name() string    { return e.name }
func (e *Embedding) Model() string   { return e.model }
func (e *Embedding) Dimensions() int { return e.dims }

// maxBatch is the input limit of one OpenAI embeddings request.
const maxBatch = 2048

// Embed embeds texts in requests of at most 2048 inputs. Vectors are
// placed by the index the service reports, so out-of-order replies still
// line up with texts.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		if err := e.embedBatch(ctx, texts[start:min(start+maxBatch, len(texts))], out[start:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// embedBatch fills out[:len(batch)] with the vectors of batch.
func (e *Embedding) embedBatch(ctx context.Context, batch []string, out [][]float32) error {
	req := openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dims > 0 {
		req.Dimensions = e.dims
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return convertErr(e.name, err)
	}
	if len(resp.Data) != len(batch) {
		return &hebrew.ErrLLM{Provider: e.name, Message: fmt.Sprintf("got %d embeddings for %d texts", len(resp.Data), len(batch))}
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) || out[d.Index] != nil {
			return &hebrew.ErrLLM{Provider: e.name, Message: fmt.Sprintf("bad embedding index %d", d.Index)}
		}
		vec := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			vec[i] = float32(d.Embedding[i])
		}
		out[d.Index] = vec
	}
	return nil
}

var _ hebrew.Embedder = (*Embedding)(nil)
