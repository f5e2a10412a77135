package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
	"github.com/fpt/go-expert-panel/pkg/pricing"
)

// AnthropicCore contains the SDK client and immutable call defaults
type AnthropicCore struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropicCore validates cfg and creates the SDK client
func NewAnthropicCore(cfg domain.ProviderConfig) (*AnthropicCore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicCore{
		client:      &client,
		model:       cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// AnthropicClient implements domain.Provider on the Messages API
type AnthropicClient struct {
	*AnthropicCore
	pricing *pricing.Table
	logger  *pkgLogger.Logger
}

// NewAnthropicClient creates a provider for Claude models
func NewAnthropicClient(cfg domain.ProviderConfig) (*AnthropicClient, error) {
	core, err := NewAnthropicCore(cfg)
	if err != nil {
		return nil, err
	}
	return NewAnthropicClientFromCore(core), nil
}

// NewAnthropicClientFromCore wraps a shared core
func NewAnthropicClientFromCore(core *AnthropicCore) *AnthropicClient {
	c := &AnthropicClient{
		AnthropicCore: core,
		pricing:       Pricing,
		logger:        pkgLogger.NewComponentLogger("anthropic-client"),
	}
	if !c.pricing.Has(core.model) {
		c.logger.WarnWithIcon("💲", "Model missing from pricing table, using default rate",
			"error", domain.NewConfigurationError(domain.ProviderAnthropic, "no pricing for "+core.model),
			"default_model", c.pricing.DefaultModel())
	}
	return c
}

func (c *AnthropicClient) ID() string { return domain.ProviderAnthropic }

func (c *AnthropicClient) ModelID() string { return c.model }

// EstimateCost prices usage with the Anthropic pricing table
func (c *AnthropicClient) EstimateCost(usage message.TokenUsage) float64 {
	return c.pricing.Cost(c.model, usage)
}

// Generate sends the conversation to Claude. System messages are lifted
// into the System parameter because the Messages API rejects them inline.
func (c *AnthropicClient) Generate(ctx context.Context, messages []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	system, conversation := message.SplitSystem(messages)

	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := c.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	params := anthropic.MessageNewParams{
		MaxTokens:   int64(maxTokens),
		Messages:    toAnthropicMessages(conversation),
		Model:       anthropic.Model(c.model),
		Temperature: anthropic.Float(temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, domain.NewCallError(domain.ProviderAnthropic, err)
	}
	if len(msg.Content) == 0 {
		return nil, domain.NewCallError(domain.ProviderAnthropic, fmt.Errorf("no content in response"))
	}

	var content strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(variant.Text)
		}
	}
	text := content.String()

	usage := message.NewTokenUsage(int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens))
	estimated := false
	if usage.IsZero() {
		usage = message.EstimateUsage(messages, text)
		estimated = true
	}

	if string(msg.StopReason) == maxTokensStopReason {
		c.logger.WarnWithIcon("✂️", "Response truncated at max tokens", "model", c.model, "max_tokens", maxTokens)
	}
	c.logger.Debug("Anthropic API usage",
		"model", c.model, "input_tokens", usage.PromptTokens, "output_tokens", usage.CompletionTokens,
		"estimated", estimated, "latency", latency)

	return &domain.GenerationResult{
		Content:        text,
		ModelID:        c.model,
		Usage:          usage,
		CostUSD:        c.EstimateCost(usage),
		Latency:        latency,
		ProviderID:     domain.ProviderAnthropic,
		UsageEstimated: estimated,
	}, nil
}

// toAnthropicMessages converts non-system messages, merging adjacent turns
// of the same role so the request alternates user and assistant.
func toAnthropicMessages(messages []message.Message) []anthropic.MessageParam {
	merged := message.MergeConsecutive(messages)
	out := make([]anthropic.MessageParam, 0, len(merged))
	for _, msg := range merged {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == message.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
