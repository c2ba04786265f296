package resolve

import (
	"testing"

	"github.com/sameertanveer602-cmyk/Hebrew/provider/gemini"
	"github.com/sameertanveer602-cmyk/Hebrew/provider/openaicompat"
)

func TestGeneratorGemini(t *testing.T) {
	g, err := Generator(Config{Provider: "gemini", APIKey: "k", Model: "gemini-1.5-flash"})
	if err != nil {
		t.Fatalf("Generator: %v", err)
	}
	gm, ok := g.(*gemini.Gemini)
	if !ok {
		t.Fatalf("got %T, want *gemini.Gemini", g)
	}
	if gm.Model() != "gemini-1.5-flash" || gm.Name() != "gemini" {
		t.Errorf("model=%q name=%q", gm.Model(), gm.Name())
	}
}

func TestGeneratorGroq(t *testing.T) {
	temp := 0.2
	g, err := Generator(Config{Provider: "groq", APIKey: "k", Model: "llama-3.3-70b-versatile", Temperature: &temp})
	if err != nil {
		t.Fatalf("Generator: %v", err)
	}
	p, ok := g.(*openaicompat.Provider)
	if !ok {
		t.Fatalf("got %T, want *openaicompat.Provider", g)
	}
	if p.Name() != "groq" || p.Model() != "llama-3.3-70b-versatile" {
		t.Errorf("name=%q model=%q", p.Name(), p.Model())
	}
}

func TestGeneratorUnknown(t *testing.T) {
	if _, err := Generator(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestEmbedder(t *testing.T) {
	e, err := Embedder(EmbeddingConfig{Provider: "gemini", Model: "text-embedding-004", Dimensions: 768})
	if err != nil {
		t.Fatalf("Embedder: %v", err)
	}
	if e.Dimensions() != 768 || e.Name() != "gemini" {
		t.Errorf("dims=%d name=%q", e.Dimensions(), e.Name())
	}

	e, err = Embedder(EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("Embedder: %v", err)
	}
	if e.Name() != "ollama" {
		t.Errorf("name=%q, want ollama", e.Name())
	}

	if _, err := Embedder(EmbeddingConfig{Provider: "groq"}); err == nil {
		t.Error("expected error: groq has no embeddings endpoint")
	}
}

func TestDefaultBaseURL(t *testing.T) {
	if got := DefaultBaseURL("groq"); got != "https://api.groq.com/openai/v1" {
		t.Errorf("DefaultBaseURL(groq) = %q", got)
	}
	if got := DefaultBaseURL("unknown"); got != "" {
		t.Errorf("DefaultBaseURL(unknown) = %q, want empty", got)
	}
}

func TestBaseURLOverride(t *testing.T) {
	got, err := baseURLFor("groq", "http://proxy/v1")
	if err != nil || got != "http://proxy/v1" {
		t.Errorf("baseURLFor = %q, %v", got, err)
	}
}
