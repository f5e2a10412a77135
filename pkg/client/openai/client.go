package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
	"github.com/fpt/go-expert-panel/pkg/pricing"
)

// OpenAICore holds the SDK client and the immutable call defaults
type OpenAICore struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// OpenAIClient implements domain.Provider on the Chat Completions API.
// Any OpenAI-compatible endpoint works through ProviderConfig.BaseURL.
type OpenAIClient struct {
	*OpenAICore
	pricing *pricing.Table
	logger  *pkgLogger.Logger
}

// NewOpenAIClient validates cfg and creates a client. SDK retries are
// disabled; retry policy belongs to the caller.
func NewOpenAIClient(cfg domain.ProviderConfig) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	// Support custom base URL (for Azure OpenAI, etc.)
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return NewOpenAIClientFromCore(&OpenAICore{
		client:      &client,
		model:       cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}), nil
}

// NewOpenAIClientFromCore wraps an existing core
func NewOpenAIClientFromCore(core *OpenAICore) *OpenAIClient {
	c := &OpenAIClient{
		OpenAICore: core,
		pricing:    Pricing,
		logger:     pkgLogger.NewComponentLogger("openai-client"),
	}
	if !c.pricing.Has(core.model) {
		c.logger.WarnWithIcon("💲", "Model missing from pricing table, using default rate",
			"error", domain.NewConfigurationError(domain.ProviderOpenAI, "no pricing for "+core.model),
			"default_model", c.pricing.DefaultModel())
	}
	return c
}

func (c *OpenAIClient) ID() string { return domain.ProviderOpenAI }

func (c *OpenAIClient) ModelID() string { return c.model }

// EstimateCost prices usage with the OpenAI pricing table
func (c *OpenAIClient) EstimateCost(usage message.TokenUsage) float64 {
	return c.pricing.Cost(c.model, usage)
}

// Generate sends the conversation to the Chat Completions endpoint
func (c *OpenAIClient) Generate(ctx context.Context, messages []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            toOpenAIMessages(messages),
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(c.effectiveMaxTokens(opts))),
		Temperature:         openai.Float(c.effectiveTemperature(opts)),
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, domain.NewCallError(domain.ProviderOpenAI, err)
	}
	if len(completion.Choices) == 0 {
		return nil, domain.NewCallError(domain.ProviderOpenAI, fmt.Errorf("no choices in response"))
	}

	content := completion.Choices[0].Message.Content
	usage := message.NewTokenUsage(int(completion.Usage.PromptTokens), int(completion.Usage.CompletionTokens))
	estimated := false
	if usage.IsZero() {
		usage = message.EstimateUsage(messages, content)
		estimated = true
	}

	c.logger.Debug("OpenAI API usage",
		"model", c.model, "input_tokens", usage.PromptTokens, "output_tokens", usage.CompletionTokens,
		"estimated", estimated, "latency", latency)

	return &domain.GenerationResult{
		Content:        content,
		ModelID:        c.model,
		Usage:          usage,
		CostUSD:        c.EstimateCost(usage),
		Latency:        latency,
		ProviderID:     domain.ProviderOpenAI,
		UsageEstimated: estimated,
	}, nil
}

func (c *OpenAIClient) effectiveMaxTokens(opts domain.GenerateOptions) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return c.maxTokens
}

func (c *OpenAIClient) effectiveTemperature(opts domain.GenerateOptions) float64 {
	if opts.Temperature != nil {
		return *opts.Temperature
	}
	return c.temperature
}

// toOpenAIMessages keeps system messages inline; the API accepts them as-is
func toOpenAIMessages(messages []message.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case message.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
