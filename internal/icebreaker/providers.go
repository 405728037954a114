package icebreaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/garnizeh/warmconnect/internal/config"
	"github.com/garnizeh/warmconnect/pkg/gemini"
	"github.com/garnizeh/warmconnect/pkg/ollama"
)

// OllamaCompleter completes prompts with a local Ollama model.
type OllamaCompleter struct {
	Client *ollama.Client
	Model  string
}

func (o *OllamaCompleter) Complete(ctx context.Context, c Completion) (string, error) {
	res, err := o.Client.Generate(ctx, ollama.GenerateRequest{
		Model:       o.Model,
		System:      c.System,
		Prompt:      c.Prompt,
		Temperature: c.Temperature,
		TopP:        c.TopP,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (o *OllamaCompleter) Close() error {
	return o.Client.Close()
}

// GeminiCompleter completes prompts with Google's Gemini API.
type GeminiCompleter struct {
	Client *gemini.Client
}

func (g *GeminiCompleter) Complete(ctx context.Context, c Completion) (string, error) {
	text, err := g.Client.Generate(ctx, gemini.GenerateRequest{
		System:      c.System,
		Prompt:      c.Prompt,
		Temperature: c.Temperature,
		TopP:        c.TopP,
	})
	if errors.Is(err, gemini.ErrEmptyResponse) {
		return "", nil
	}
	return text, err
}

// OllamaConfig maps the service configuration onto the Ollama client settings.
func OllamaConfig(cfg *config.Config) ollama.Config {
	oc := ollama.DefaultConfig()
	oc.BaseURL = cfg.Ollama.BaseURL
	if cfg.Ollama.Timeout > 0 {
		oc.Timeout = cfg.Ollama.Timeout
	}
	oc.Retries = cfg.Ollama.Retries
	oc.Backoff = cfg.Ollama.Backoff
	oc.CircuitFailureThreshold = cfg.Ollama.CircuitFailureThreshold
	oc.CircuitReset = cfg.Ollama.CircuitReset

	return oc
}

// OpenCompleter builds the provider selected by cfg.LLM.Provider. It returns
// a nil Completer for the "none" provider.
func OpenCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.LLM.Provider {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderOllama:
		client, err := ollama.NewDefaultClient(OllamaConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return &OllamaCompleter{Client: client, Model: cfg.LLM.Model}, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return &GeminiCompleter{Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
