// Package openaicompat implements generation and embedding providers for
// any service speaking the OpenAI chat and embeddings API, such as Groq,
// OpenAI or a local Ollama server.
package openaicompat

import (
	"context"
	"errors"
	"net/http"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	openai "github.com/sashabaranov/go-openai"
)

// Provider implements hebrew.Generator over an OpenAI-compatible chat
// completions endpoint.
type Provider struct {
	name        string
	model       string
	temperature *float32
	client      *openai.Client
}

// ProviderOption configures a Provider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	name        string
	temperature *float32
	httpClient  *http.Client
}

// WithName sets the provider name used in logs and error messages
// (default "openai").
func WithName(name string) ProviderOption {
	return func(c *providerConfig) { c.name = name }
}

// WithTemperature sets the sampling temperature. Unset means the service
// default.
func WithTemperature(t float32) ProviderOption {
	return func(c *providerConfig) { c.temperature = &t }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ProviderOption {
	return func(c *providerConfig) { c.httpClient = h }
}

// NewProvider creates a chat provider for model at baseURL, for example
// "https://api.groq.com/openai/v1".
func NewProvider(apiKey, model, baseURL string, opts ...ProviderOption) *Provider {
	cfg := providerConfig{name: "openai"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Provider{
		name:        cfg.name,
		model:       model,
		temperature: cfg.temperature,
		client:      newClient(apiKey, baseURL, cfg.httpClient),
	}
}

func newClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Name returns the configured provider name.
func (p *Provider) Name() string { return p.name }

// Model returns the configured model name.
func (p *Provider) Model() string { return p.model }

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if p.temperature != nil {
		req.Temperature = *p.temperature
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", convertErr(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", &hebrew.ErrLLM{Provider: p.name, Message: "no choices in response"}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &hebrew.ErrLLM{Provider: p.name, Message: "empty response (finish reason " + string(resp.Choices[0].FinishReason) + ")"}
	}
	return content, nil
}

// convertErr maps client errors carrying an HTTP status onto
// *hebrew.ErrHTTP so transient failures are retried.
func convertErr(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &hebrew.ErrHTTP{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &hebrew.ErrHTTP{Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return &hebrew.ErrLLM{Provider: name, Message: err.Error()}
}

var _ hebrew.Generator = (*Provider)(nil)
