package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

type fakeIndex struct {
	result hebrew.SearchResult
	err    error
	query  string
	topK   int
}

func (f *fakeIndex) Search(_ context.Context, q string, k int) (hebrew.SearchResult, error) {
	f.query, f.topK = q, k
	return f.result, f.err
}

func (f *fakeIndex) Retrieve(_ context.Context, q string, k int) ([]hebrew.RetrievedChunk, error) {
	f.query, f.topK = q, k
	return f.result.Sources, f.err
}

func (f *fakeIndex) Len() int             { return 12 }
func (f *fakeIndex) ProviderName() string { return "gemini+groq" }

func sampleIndex() *fakeIndex {
	return &fakeIndex{result: hebrew.SearchResult{
		Answer: "יש להגיש טופס.",
		Sources: []hebrew.RetrievedChunk{
			{ChunkID: "3", Text: "הגשת טופס", Score: 0.25, Fields: map[string]any{"doc_id": "regs", "page": 2}},
		},
	}}
}

// exchange feeds input lines to a fresh server and returns each output line.
func exchange(t *testing.T, idx Index, lines ...string) []string {
	t.Helper()
	var out bytes.Buffer
	srv := New(idx, WithIO(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out))
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func decodeResponse(t *testing.T, line string, result any) *rpcError {
	t.Helper()
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", line, err)
	}
	if resp.Error == nil && result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			t.Fatalf("unmarshal result: %v", err)
		}
	}
	return resp.Error
}

func TestInitialize(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`)
	if len(lines) != 1 {
		t.Fatalf("got %d responses, want 1", len(lines))
	}
	var res initializeResult
	if e := decodeResponse(t, lines[0], &res); e != nil {
		t.Fatalf("error: %+v", e)
	}
	if res.ProtocolVersion != protocolVersion || res.ServerInfo.Name != "hebrag" {
		t.Errorf("result = %+v", res)
	}
	if res.Capabilities.Tools == nil || res.Capabilities.Resources == nil {
		t.Error("capabilities missing")
	}
}

func TestNotificationHasNoResponse(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	if len(lines) != 1 || !strings.Contains(lines[0], `"id":2`) {
		t.Errorf("responses = %v", lines)
	}
}

func TestToolsList(t *testing.T) {
	lines := exchange(t, sampleIndex(), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	var res struct {
		Tools []Tool `json:"tools"`
	}
	decodeResponse(t, lines[0], &res)
	if len(res.Tools) != 2 || res.Tools[0].Name != "search_documents" || res.Tools[1].Name != "retrieve_chunks" {
		t.Errorf("tools = %+v", res.Tools)
	}
}

func TestSearchDocuments(t *testing.T) {
	idx := sampleIndex()
	lines := exchange(t, idx,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_documents","arguments":{"query":"  מה להגיש? ","top_k":3}}}`)
	var res CallResult
	decodeResponse(t, lines[0], &res)
	if res.IsError {
		t.Fatalf("tool error: %+v", res)
	}
	if idx.query != "מה להגיש?" || idx.topK != 3 {
		t.Errorf("searched %q k=%d", idx.query, idx.topK)
	}
	text := res.Content[0].Text
	if !strings.HasPrefix(text, "יש להגיש טופס.") || !strings.Contains(text, "[1] regs p.2 (distance 0.2500)") {
		t.Errorf("text = %q", text)
	}
}

func TestRetrieveChunks(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"retrieve_chunks","arguments":{"query":"טופס"}}}`)
	var res CallResult
	decodeResponse(t, lines[0], &res)
	var chunks []hebrew.RetrievedChunk
	if err := json.Unmarshal([]byte(res.Content[0].Text), &chunks); err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if len(chunks) != 1 || chunks[0].ChunkID != "3" || chunks[0].Text != "הגשת טופס" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestRetrieveChunksEmptyIsArray(t *testing.T) {
	lines := exchange(t, &fakeIndex{},
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"retrieve_chunks","arguments":{"query":"x"}}}`)
	var res CallResult
	decodeResponse(t, lines[0], &res)
	if res.Content[0].Text != "[]" {
		t.Errorf("text = %q", res.Content[0].Text)
	}
}

func TestToolErrors(t *testing.T) {
	cases := []struct {
		name string
		idx  *fakeIndex
		line string
		want string
	}{
		{"missing query", sampleIndex(),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_documents","arguments":{}}}`,
			"query is required"},
		{"unknown tool", sampleIndex(),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{"query":"q"}}}`,
			"unknown tool: nope"},
		{"search failure", &fakeIndex{err: errors.New("embedding offline")},
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_documents","arguments":{"query":"q"}}}`,
			"search failed: embedding offline"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines := exchange(t, tc.idx, tc.line)
			var res CallResult
			decodeResponse(t, lines[0], &res)
			if !res.IsError || res.Content[0].Text != tc.want {
				t.Errorf("result = %+v, want error %q", res, tc.want)
			}
		})
	}
}

func TestReadIndexResource(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"hebrag://index"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"hebrag://other"}}`)
	var res struct {
		Contents []resourceContents `json:"contents"`
	}
	decodeResponse(t, lines[0], &res)
	if len(res.Contents) != 1 || res.Contents[0].Text != `{"chunks":12,"provider":"gemini+groq"}` {
		t.Errorf("contents = %+v", res.Contents)
	}
	if e := decodeResponse(t, lines[1], nil); e == nil || e.Code != codeInvalidParams {
		t.Errorf("unknown resource error = %+v", e)
	}
}

func TestMethodNotFoundAndParseError(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`,
		`{not json`)
	if e := decodeResponse(t, lines[0], nil); e == nil || e.Code != codeMethodNotFound {
		t.Errorf("method error = %+v", e)
	}
	if e := decodeResponse(t, lines[1], nil); e == nil || e.Code != codeParseError {
		t.Errorf("parse error = %+v", e)
	}
}

func TestBatch(t *testing.T) {
	lines := exchange(t, sampleIndex(),
		`[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","method":"notifications/initialized"},{"jsonrpc":"2.0","id":2,"method":"ping"}]`)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	var batch []json.RawMessage
	if err := json.Unmarshal([]byte(lines[0]), &batch); err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Errorf("batch responses = %d, want 2", len(batch))
	}
}

func TestServeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := New(sampleIndex(), WithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &bytes.Buffer{}))
	if err := srv.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
}
