// Package app assembles the engine, providers, session store and telemetry
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	"github.com/sameertanveer602-cmyk/Hebrew/engine"
	"github.com/sameertanveer602-cmyk/Hebrew/index"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/config"
	"github.com/sameertanveer602-cmyk/Hebrew/observer"
	"github.com/sameertanveer602-cmyk/Hebrew/provider/resolve"
	"github.com/sameertanveer602-cmyk/Hebrew/store/postgres"
	"github.com/sameertanveer602-cmyk/Hebrew/store/sqlite"
)

// ErrNoEmbeddingKey means the configured embedder cannot authenticate.
// Without embeddings nothing can be indexed or retrieved, even when no LLM
// is configured.
var ErrNoEmbeddingKey = errors.New("embedding provider not configured")

// App holds the long-lived components of one process.
type App struct {
	Config      config.Config
	Engine      *engine.Engine
	Instruments *observer.Instruments
	Logger      *slog.Logger

	shutdown func(context.Context) error
}

// New builds the engine described by cfg. Telemetry exporters start only
// when the observer is enabled.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider != "ollama" {
		return nil, fmt.Errorf("%w: embedding provider %q has no API key; set %s or use the local ollama embedder",
			ErrNoEmbeddingKey, cfg.Embedding.Provider, config.KeyEnv(cfg.Embedding.Provider))
	}
	a := &App{Config: cfg, Logger: logger, shutdown: func(context.Context) error { return nil }}

	var err error
	if cfg.Observer.Enabled {
		a.Instruments, a.shutdown, err = observer.Init(ctx, cfg.Observer.Service)
		if err != nil {
			return nil, fmt.Errorf("init observer: %w", err)
		}
		logger.Info("observer enabled", "service", cfg.Observer.Service)
	} else if a.Instruments, err = observer.Noop(); err != nil {
		return nil, err
	}

	emb, err := resolve.Embedder(resolve.EmbeddingConfig{
		Provider:   cfg.Embedding.Provider,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	emb = hebrew.WithEmbeddingRetry(emb, hebrew.RetryLogger(logger))
	if cfg.Observer.Enabled {
		emb = observer.WrapEmbedder(emb, cfg.Embedding.Model, a.Instruments)
	}

	opts := []engine.Option{
		engine.WithChunking(cfg.Chunking.Size, cfg.Chunking.Overlap),
		engine.WithLogger(logger),
	}
	primary, err := a.generator(cfg.LLM.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	if primary != nil {
		opts = append(opts, engine.WithPrimary(primary))
	}
	fallback, err := a.generator(cfg.LLM.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	if fallback != nil {
		opts = append(opts, engine.WithFallback(fallback))
	}

	a.Engine = engine.New(emb, opts...)
	return a, nil
}

// generator resolves one provider slot. A slot without a provider name or
// API key is left empty, except for local ollama which needs no key.
func (a *App) generator(p config.ProviderConfig) (hebrew.Generator, error) {
	if p.Provider == "" || (p.APIKey == "" && p.Provider != "ollama") {
		return nil, nil
	}
	temp := p.Temperature
	g, err := resolve.Generator(resolve.Config{
		Provider:    p.Provider,
		APIKey:      p.APIKey,
		Model:       p.Model,
		BaseURL:     p.BaseURL,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	g = hebrew.WithRetry(g, hebrew.RetryLogger(a.Logger))
	if a.Config.Observer.Enabled {
		g = observer.WrapGenerator(g, p.Model, a.Instruments)
	}
	return g, nil
}

// LoadIndex loads the configured index pair. It reports false without an
// error when nothing has been saved yet.
func (a *App) LoadIndex() (bool, error) {
	err := a.Engine.Load(a.Config.Index.Path)
	if errors.Is(err, index.ErrNoIndex) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.Logger.Info("index loaded", "path", a.Config.Index.Path, "chunks", a.Engine.Len())
	return true, nil
}

// OpenSessions opens and initialises the configured session store.
func (a *App) OpenSessions(ctx context.Context) (hebrew.SessionStore, error) {
	s := a.Config.Session
	switch s.Driver {
	case "postgres":
		store, err := postgres.Connect(ctx, s.DSN,
			postgres.WithTTL(s.TTL), postgres.WithMaxTurns(s.MaxTurns), postgres.WithLogger(a.Logger))
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		store := sqlite.New(s.Path,
			sqlite.WithTTL(s.TTL), sqlite.WithMaxTurns(s.MaxTurns), sqlite.WithLogger(a.Logger))
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", s.Driver)
	}
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	return a.shutdown(ctx)
}
