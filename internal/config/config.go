package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM       LLMConfig       `toml:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding" yaml:"embedding"`
	Index     IndexConfig     `toml:"index" yaml:"index"`
	Chunking  ChunkingConfig  `toml:"chunking" yaml:"chunking"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Session   SessionConfig   `toml:"session" yaml:"session"`
	Observer  ObserverConfig  `toml:"observer" yaml:"observer"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type LLMConfig struct {
	Primary  ProviderConfig `toml:"primary" yaml:"primary"`
	Fallback ProviderConfig `toml:"fallback" yaml:"fallback"`
}

// ProviderConfig selects one answer provider. An empty Provider disables
// the slot.
type ProviderConfig struct {
	Provider    string  `toml:"provider" yaml:"provider"`
	Model       string  `toml:"model" yaml:"model"`
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	BaseURL     string  `toml:"base_url" yaml:"base_url"`
	Temperature float64 `toml:"temperature" yaml:"temperature"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider" yaml:"provider"`
	Model      string `toml:"model" yaml:"model"`
	Dimensions int    `toml:"dimensions" yaml:"dimensions"`
	APIKey     string `toml:"api_key" yaml:"api_key"`
	BaseURL    string `toml:"base_url" yaml:"base_url"`
}

type IndexConfig struct {
	// Path is the base of the <path>.index / <path>.meta pair.
	Path string `toml:"path" yaml:"path"`
}

type ChunkingConfig struct {
	Size    int `toml:"size" yaml:"size"`
	Overlap int `toml:"overlap" yaml:"overlap"`
}

type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

type SessionConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver   string        `toml:"driver" yaml:"driver"`
	Path     string        `toml:"path" yaml:"path"`
	DSN      string        `toml:"dsn" yaml:"dsn"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
	MaxTurns int           `toml:"max_turns" yaml:"max_turns"`
}

type ObserverConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Service string `toml:"service" yaml:"service"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Primary:  ProviderConfig{Provider: "gemini", Model: "gemini-1.5-flash", Temperature: 0.1},
			Fallback: ProviderConfig{Provider: "groq", Model: "llama-3.3-70b-versatile", Temperature: 0.1},
		},
		Embedding: EmbeddingConfig{Provider: "gemini", Model: "text-embedding-004", Dimensions: 768},
		Index:     IndexConfig{Path: "hebrew_index"},
		Chunking:  ChunkingConfig{Size: 800, Overlap: 100},
		Server:    ServerConfig{Addr: ":8000"},
		Session:   SessionConfig{Driver: "sqlite", Path: "hebrag.db", TTL: 24 * time.Hour, MaxTurns: 50},
		Observer:  ObserverConfig{Service: "hebrag"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads config: defaults -> TOML or YAML file -> env vars (env wins).
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = "hebrag.toml"
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// keyEnv maps a provider name to the env var holding its API key.
var keyEnv = map[string]string{
	"gemini": "GOOGLE_API_KEY",
	"groq":   "GROQ_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// KeyEnv returns the env var read for provider's API key, or a generic
// description for providers configured only through the file.
func KeyEnv(provider string) string {
	if v, ok := keyEnv[provider]; ok {
		return v
	}
	return "api_key in the config file"
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(keyEnv[cfg.LLM.Primary.Provider]); v != "" {
		cfg.LLM.Primary.APIKey = v
	}
	if v := os.Getenv(keyEnv[cfg.LLM.Fallback.Provider]); v != "" {
		cfg.LLM.Fallback.APIKey = v
	}
	if v := os.Getenv(keyEnv[cfg.Embedding.Provider]); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("HEBRAG_INDEX"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("HEBRAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HEBRAG_SESSION_DSN"); v != "" {
		cfg.Session.Driver = "postgres"
		cfg.Session.DSN = v
	}
	if v := os.Getenv("HEBRAG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if os.Getenv("HEBRAG_OBSERVER_ENABLED") == "true" || os.Getenv("HEBRAG_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Embedding shares the primary's key when both use the same backend.
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == cfg.LLM.Primary.Provider {
		cfg.Embedding.APIKey = cfg.LLM.Primary.APIKey
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// SlogLevel parses the configured level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
