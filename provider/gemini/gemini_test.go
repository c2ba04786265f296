package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

func withServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	origBaseURL := baseURL
	t.Cleanup(func() { baseURL = origBaseURL })
	baseURL = server.URL
}

func TestGenerate(t *testing.T) {
	var gotPath, gotKey, gotQuery string
	var gotBody map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"thinking","thought":true},{"text":"תשובה "},{"text":"מלאה"}]},"finishReason":"STOP"}]}`)
	})

	g := New("k", "gemini-1.5-flash")
	got, err := g.Generate(context.Background(), "שאלה")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "תשובה מלאה" {
		t.Errorf("Generate() = %q, want %q", got, "תשובה מלאה")
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" || gotKey != "k" {
		t.Errorf("request to %s key=%s", gotPath, gotKey)
	}
	if gotQuery != "" {
		t.Errorf("query string = %q, want none", gotQuery)
	}
	contents := gotBody["contents"].([]any)
	part := contents[0].(map[string]any)["parts"].([]any)[0].(map[string]any)
	if part["text"] != "שאלה" {
		t.Errorf("prompt text = %v", part["text"])
	}
	cfg := gotBody["generationConfig"].(map[string]any)
	if cfg["temperature"] != 0.1 || cfg["topP"] != 0.9 {
		t.Errorf("generationConfig = %v", cfg)
	}
}

func TestGenerateOptions(t *testing.T) {
	var gotBody map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})
	g := New("k", "m", WithTemperature(0.5), WithTopP(0.7))
	if _, err := g.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cfg := gotBody["generationConfig"].(map[string]any)
	if cfg["temperature"] != 0.5 || cfg["topP"] != 0.7 {
		t.Errorf("generationConfig = %v", cfg)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"7s"}]}}`)
	})
	_, err := New("k", "m").Generate(context.Background(), "p")
	var httpErr *hebrew.ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *ErrHTTP", err)
	}
	if httpErr.Status != 429 || httpErr.RetryAfter != 7*time.Second {
		t.Errorf("got status %d retry %v", httpErr.Status, httpErr.RetryAfter)
	}
}

func TestGenerateRetryAfterHeaderWins(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"9s"}]}}`)
	})
	_, err := New("k", "m").Generate(context.Background(), "p")
	var httpErr *hebrew.ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.RetryAfter != 3*time.Second {
		t.Fatalf("err = %v, want retry after 3s", err)
	}
}

func TestGenerateBlocked(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})
	_, err := New("k", "m").Generate(context.Background(), "p")
	var llmErr *hebrew.ErrLLM
	if !errors.As(err, &llmErr) || !strings.Contains(llmErr.Message, "SAFETY") {
		t.Fatalf("err = %v, want blocked ErrLLM", err)
	}
	if llmErr.Provider != "gemini" {
		t.Errorf("provider = %q", llmErr.Provider)
	}
}

func TestGenerateEmptyCandidate(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`)
	})
	_, err := New("k", "m").Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "MAX_TOKENS") {
		t.Fatalf("err = %v, want empty response error", err)
	}
}

func TestGenerateBadJSON(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})
	if _, err := New("k", "m").Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseRetryInfo(t *testing.T) {
	tests := []struct {
		body string
		want time.Duration
	}{
		{"", 0},
		{`{"error":{}}`, 0},
		{`{"error":{"details":[{"@type":"other","retryDelay":"5s"}]}}`, 0},
		{`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"1.5s"}]}}`, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := parseRetryInfo(tt.body); got != tt.want {
			t.Errorf("parseRetryInfo(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

func TestTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	orig := baseURL
	t.Cleanup(func() { baseURL = orig })
	baseURL = addr + "/v1beta"

	_, err := New("SECRET-KEY-123", "gemini-1.5-flash").Generate(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") || strings.Contains(err.Error(), addr) {
		t.Errorf("error exposes request details: %v", err)
	}

	_, err = NewEmbedding("SECRET-KEY-123", "text-embedding-004", 4).Embed(context.Background(), []string{"x"})
	if err == nil || strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("embed error = %v", err)
	}
}
