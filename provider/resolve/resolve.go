// Package resolve builds generators and embedders from provider names, so
// configuration can pick a backend without importing every provider
// package.
package resolve

import (
	"fmt"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	"github.com/sameertanveer602-cmyk/Hebrew/provider/gemini"
	"github.com/sameertanveer602-cmyk/Hebrew/provider/openaicompat"
)

// Config describes one generation backend.
type Config struct {
	Provider string // "gemini", "groq", "openai", "deepseek", "together", "mistral", "ollama"
	APIKey   string
	Model    string
	BaseURL  string // auto-filled for known OpenAI-compatible providers

	Temperature *float64
}

// EmbeddingConfig describes one embedding backend.
type EmbeddingConfig struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

// Generator creates a hebrew.Generator for cfg.
func Generator(cfg Config) (hebrew.Generator, error) {
	switch cfg.Provider {
	case "gemini":
		var opts []gemini.Option
		if cfg.Temperature != nil {
			opts = append(opts, gemini.WithTemperature(*cfg.Temperature))
		}
		return gemini.New(cfg.APIKey, cfg.Model, opts...), nil
	case "openai", "groq", "deepseek", "together", "mistral", "ollama":
		baseURL, err := baseURLFor(cfg.Provider, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		opts := []openaicompat.ProviderOption{openaicompat.WithName(cfg.Provider)}
		if cfg.Temperature != nil {
			opts = append(opts, openaicompat.WithTemperature(float32(*cfg.Temperature)))
		}
		return openaicompat.NewProvider(cfg.APIKey, cfg.Model, baseURL, opts...), nil
	default:
		return nil, fmt.Errorf("resolve: unknown provider %q", cfg.Provider)
	}
}

// Embedder creates a hebrew.Embedder for cfg.
func Embedder(cfg EmbeddingConfig) (hebrew.Embedder, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewEmbedding(cfg.APIKey, cfg.Model, cfg.Dimensions), nil
	case "openai", "together", "mistral", "ollama":
		baseURL, err := baseURLFor(cfg.Provider, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return openaicompat.NewEmbedding(cfg.APIKey, cfg.Model, baseURL, cfg.Dimensions,
			openaicompat.WithName(cfg.Provider)), nil
	default:
		return nil, fmt.Errorf("resolve: embedding provider %q not supported", cfg.Provider)
	}
}

func baseURLFor(provider, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if u := DefaultBaseURL(provider); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("resolve: provider %q needs a base URL", provider)
}

// DefaultBaseURL returns the public API root of a known OpenAI-compatible
// provider, or "".
func DefaultBaseURL(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1"
	case "groq":
		return "https://api.groq.com/openai/v1"
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "together":
		return "https://api.together.xyz/v1"
	case "mistral":
		return "https://api.mistral.ai/v1"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return ""
	}
}
