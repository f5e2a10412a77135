package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
	"github.com/fpt/go-expert-panel/pkg/pricing"
)

// OllamaCore contains the API client and immutable call defaults
type OllamaCore struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewOllamaCore validates cfg and creates the API client. An empty BaseURL
// falls back to OLLAMA_HOST via api.ClientFromEnvironment.
func NewOllamaCore(cfg domain.ProviderConfig) (*OllamaCore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client *api.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	}

	return &OllamaCore{
		client:      client,
		model:       cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// OllamaClient implements domain.Provider for locally served models
type OllamaClient struct {
	*OllamaCore
	pricing *pricing.Table
	logger  *pkgLogger.Logger
}

// NewOllamaClient creates a provider for a local Ollama model
func NewOllamaClient(cfg domain.ProviderConfig) (*OllamaClient, error) {
	core, err := NewOllamaCore(cfg)
	if err != nil {
		return nil, err
	}
	return NewOllamaClientFromCore(core), nil
}

// NewOllamaClientFromCore wraps a shared core
func NewOllamaClientFromCore(core *OllamaCore) *OllamaClient {
	c := &OllamaClient{
		OllamaCore: core,
		pricing:    Pricing,
		logger:     pkgLogger.NewComponentLogger("ollama-client"),
	}
	if !IsModelInKnownList(core.model) {
		c.logger.DebugWithIcon("🦙", "Model not in known list", "model", core.model)
	}
	return c
}

func (c *OllamaClient) ID() string { return domain.ProviderOllama }

func (c *OllamaClient) ModelID() string { return c.model }

// EstimateCost prices usage for local models, which is zero unless the
// table says otherwise
func (c *OllamaClient) EstimateCost(usage message.TokenUsage) float64 {
	return c.pricing.Cost(c.model, usage)
}

// Generate streams a chat completion and accumulates the reply. Eval
// counts from the final chunk are used when present.
func (c *OllamaClient) Generate(ctx context.Context, messages []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := c.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	chatRequest := &api.ChatRequest{
		Model:    c.model,
		Messages: toOllamaMessages(messages),
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}
	if IsThinkingCapableModel(c.model) {
		think := false
		chatRequest.Think = &think
	}

	var content strings.Builder
	var promptEval, eval int

	start := time.Now()
	err := c.client.Chat(ctx, chatRequest, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			promptEval = resp.PromptEvalCount
			eval = resp.EvalCount
		}
		return nil
	})
	latency := time.Since(start)
	if err != nil {
		return nil, domain.NewCallError(domain.ProviderOllama, err)
	}

	text := content.String()
	usage := message.NewTokenUsage(promptEval, eval)
	estimated := false
	if usage.IsZero() {
		usage = message.EstimateUsage(messages, text)
		estimated = true
	}

	c.logger.Debug("Ollama API usage",
		"model", c.model, "input_tokens", usage.PromptTokens, "output_tokens", usage.CompletionTokens,
		"estimated", estimated, "latency", latency)

	return &domain.GenerationResult{
		Content:        text,
		ModelID:        c.model,
		Usage:          usage,
		CostUSD:        c.EstimateCost(usage),
		Latency:        latency,
		ProviderID:     domain.ProviderOllama,
		UsageEstimated: estimated,
	}, nil
}

func toOllamaMessages(messages []message.Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, api.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
