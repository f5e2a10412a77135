package client

import (
	"context"
	"fmt"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/client/anthropic"
	"github.com/fpt/go-expert-panel/pkg/client/gemini"
	"github.com/fpt/go-expert-panel/pkg/client/ollama"
	"github.com/fpt/go-expert-panel/pkg/client/openai"
)

// NewProvider constructs the adapter named by cfg.ProviderID.
// Construction failures are returned as ProviderInitError.
func NewProvider(ctx context.Context, cfg domain.ProviderConfig) (domain.Provider, error) {
	var (
		provider domain.Provider
		err      error
	)

	switch cfg.ProviderID {
	case domain.ProviderOpenAI:
		provider, err = openai.NewOpenAIClient(cfg)
	case domain.ProviderAnthropic, "claude":
		cfg.ProviderID = domain.ProviderAnthropic
		provider, err = anthropic.NewAnthropicClient(cfg)
	case domain.ProviderGemini:
		provider, err = gemini.NewGeminiClient(ctx, cfg)
	case domain.ProviderOllama:
		provider, err = ollama.NewOllamaClient(cfg)
	default:
		err = fmt.Errorf("unsupported provider: %s", cfg.ProviderID)
	}

	if err != nil {
		return nil, domain.NewInitError(cfg.ProviderID, err)
	}
	return provider, nil
}

// DefaultModel returns the model used when none is configured for a provider
func DefaultModel(providerID string) string {
	switch providerID {
	case domain.ProviderOpenAI:
		return openai.DefaultModel
	case domain.ProviderAnthropic:
		return anthropic.DefaultModel
	case domain.ProviderGemini:
		return gemini.DefaultModel
	case domain.ProviderOllama:
		return ollama.DefaultModel
	default:
		return ""
	}
}
