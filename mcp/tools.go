package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

var tools = []Tool{
	{
		Name:        "search_documents",
		Description: "Answer a question in Hebrew from the indexed documents, citing the pages used.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"The question"},"top_k":{"type":"integer","description":"Number of chunks to retrieve (default 7)"}},"required":["query"]}`),
	},
	{
		Name:        "retrieve_chunks",
		Description: "Return the indexed chunks nearest to a query without generating an answer.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"top_k":{"type":"integer"}},"required":["query"]}`),
	},
}

var indexResource = Resource{
	URI:         "hebrag://index",
	Name:        "index",
	Description: "Size of the loaded index and the active LLM provider",
	MimeType:    "application/json",
}

type queryArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (s *Server) call(ctx context.Context, name string, raw json.RawMessage) CallResult {
	var args queryArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult("invalid arguments: " + err.Error())
		}
	}
	q, bad := trimQuery(args.Query)

	switch name {
	case "search_documents":
		if bad != nil {
			return *bad
		}
		res, err := s.index.Search(ctx, q, args.TopK)
		if err != nil {
			return errorResult("search failed: " + err.Error())
		}
		return textResult(formatAnswer(res))
	case "retrieve_chunks":
		if bad != nil {
			return *bad
		}
		chunks, err := s.index.Retrieve(ctx, q, args.TopK)
		if err != nil {
			return errorResult("retrieve failed: " + err.Error())
		}
		if chunks == nil {
			chunks = []hebrew.RetrievedChunk{}
		}
		data, err := json.Marshal(chunks)
		if err != nil {
			return errorResult(err.Error())
		}
		return textResult(string(data))
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}
}

// formatAnswer renders the answer followed by one citation line per source.
func formatAnswer(res hebrew.SearchResult) string {
	var b strings.Builder
	b.WriteString(res.Answer)
	if len(res.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for i, src := range res.Sources {
			fmt.Fprintf(&b, "\n[%d] %v p.%v (distance %.4f)", i+1, src.Fields["doc_id"], src.Fields["page"], src.Score)
		}
	}
	return b.String()
}

func (s *Server) readIndex() (resourceContents, error) {
	data, err := json.Marshal(map[string]any{
		"chunks":   s.index.Len(),
		"provider": s.index.ProviderName(),
	})
	if err != nil {
		return resourceContents{}, fmt.Errorf("encode index stats: %w", err)
	}
	return resourceContents{URI: indexResource.URI, MimeType: indexResource.MimeType, Text: string(data)}, nil
}
