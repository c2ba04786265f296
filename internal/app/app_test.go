package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sameertanveer602-cmyk/Hebrew/engine"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

// keyed returns the default config with an embedding key, which every
// non-local embedder needs.
func keyed() config.Config {
	cfg := config.Default()
	cfg.Embedding.APIKey = "e"
	return cfg
}

func TestNewWithoutKeys(t *testing.T) {
	_, err := New(context.Background(), config.Default(), testLogger)
	if !errors.Is(err, ErrNoEmbeddingKey) {
		t.Fatalf("err = %v, want ErrNoEmbeddingKey", err)
	}
	if !strings.Contains(err.Error(), "GOOGLE_API_KEY") {
		t.Errorf("error does not name the missing variable: %v", err)
	}
}

func TestNewLocalEmbedderWithoutLLM(t *testing.T) {
	cfg := config.Default()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.Model = "nomic-embed-text"
	a := newApp(t, cfg)
	if a.Engine.Mode() != engine.ModeNone {
		t.Errorf("mode = %v, want none without LLM keys", a.Engine.Mode())
	}
}

func TestNewEmbeddingKeyOnly(t *testing.T) {
	a := newApp(t, keyed())
	if a.Engine.Mode() != engine.ModeNone || a.Engine.ProviderName() != "none" {
		t.Errorf("mode=%v provider=%q", a.Engine.Mode(), a.Engine.ProviderName())
	}
}

func TestNewBothProviders(t *testing.T) {
	cfg := keyed()
	cfg.LLM.Primary.APIKey = "g"
	cfg.LLM.Fallback.APIKey = "q"
	a := newApp(t, cfg)
	if a.Engine.Mode() != engine.ModePrimaryWithFallback || a.Engine.ProviderName() != "gemini+groq" {
		t.Errorf("mode=%v provider=%q", a.Engine.Mode(), a.Engine.ProviderName())
	}
}

func TestNewFallbackOnly(t *testing.T) {
	cfg := keyed()
	cfg.LLM.Fallback.APIKey = "q"
	a := newApp(t, cfg)
	if a.Engine.Mode() != engine.ModePrimary || a.Engine.ProviderName() != "groq" {
		t.Errorf("mode=%v provider=%q", a.Engine.Mode(), a.Engine.ProviderName())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := keyed()
	cfg.LLM.Primary = config.ProviderConfig{Provider: "telepathy", APIKey: "k"}
	if _, err := New(context.Background(), cfg, testLogger); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	cfg = keyed()
	cfg.Embedding.Provider = "groq"
	if _, err := New(context.Background(), cfg, testLogger); err == nil {
		t.Fatal("expected error for unsupported embedding provider")
	}
}

func TestLoadIndexMissing(t *testing.T) {
	cfg := keyed()
	cfg.Index.Path = filepath.Join(t.TempDir(), "none")
	loaded, err := newApp(t, cfg).LoadIndex()
	if err != nil || loaded {
		t.Errorf("LoadIndex = %v, %v; want false, nil", loaded, err)
	}
}

func TestOpenSessionsSQLite(t *testing.T) {
	cfg := keyed()
	cfg.Session.Path = filepath.Join(t.TempDir(), "s.db")
	a := newApp(t, cfg)

	ctx := context.Background()
	store, err := a.OpenSessions(ctx)
	if err != nil {
		t.Fatalf("OpenSessions: %v", err)
	}
	defer store.Close()
	if err := store.Append(ctx, "s", "user", "hi"); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestOpenSessionsUnknownDriver(t *testing.T) {
	cfg := keyed()
	cfg.Session.Driver = "redis"
	if _, err := newApp(t, cfg).OpenSessions(context.Background()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
