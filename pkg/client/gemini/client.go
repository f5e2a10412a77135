package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
	"github.com/fpt/go-expert-panel/pkg/pricing"
)

// GeminiCore holds the SDK client and immutable call defaults
type GeminiCore struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// GeminiClient implements domain.Provider on the Gemini API
type GeminiClient struct {
	*GeminiCore
	pricing *pricing.Table
	logger  *pkgLogger.Logger
}

// NewGeminiClient validates cfg and creates a client for the Gemini API backend
func NewGeminiClient(ctx context.Context, cfg domain.ProviderConfig) (*GeminiClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewGeminiClientFromCore(&GeminiCore{
		client:      client,
		model:       cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}), nil
}

// NewGeminiClientFromCore wraps an existing core
func NewGeminiClientFromCore(core *GeminiCore) *GeminiClient {
	c := &GeminiClient{
		GeminiCore: core,
		pricing:    Pricing,
		logger:     pkgLogger.NewComponentLogger("gemini-client"),
	}
	if !c.pricing.Has(core.model) {
		c.logger.WarnWithIcon("💲", "Model missing from pricing table, using default rate",
			"error", domain.NewConfigurationError(domain.ProviderGemini, "no pricing for "+core.model),
			"default_model", c.pricing.DefaultModel())
	}
	return c
}

func (c *GeminiClient) ID() string { return domain.ProviderGemini }

func (c *GeminiClient) ModelID() string { return c.model }

// EstimateCost prices usage with the Gemini pricing table
func (c *GeminiClient) EstimateCost(usage message.TokenUsage) float64 {
	return c.pricing.Cost(c.model, usage)
}

// Generate sends the conversation to GenerateContent. System messages
// become the SystemInstruction and assistant turns use the model role.
func (c *GeminiClient) Generate(ctx context.Context, messages []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	system, contents := toGeminiContents(messages)

	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := float32(c.temperature)
	if opts.Temperature != nil {
		temperature = float32(*opts.Temperature)
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     &temperature,
	}
	if system != nil {
		config.SystemInstruction = system
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	latency := time.Since(start)
	if err != nil {
		return nil, domain.NewCallError(domain.ProviderGemini, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, domain.NewCallError(domain.ProviderGemini, fmt.Errorf("no candidates in response"))
	}

	text := resp.Text()

	var usage message.TokenUsage
	if resp.UsageMetadata != nil {
		usage = message.NewTokenUsage(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}
	estimated := false
	if usage.IsZero() {
		usage = message.EstimateUsage(messages, text)
		estimated = true
	}

	c.logger.Debug("Gemini API usage",
		"model", c.model, "input_tokens", usage.PromptTokens, "output_tokens", usage.CompletionTokens,
		"estimated", estimated, "latency", latency)

	return &domain.GenerationResult{
		Content:        text,
		ModelID:        c.model,
		Usage:          usage,
		CostUSD:        c.EstimateCost(usage),
		Latency:        latency,
		ProviderID:     domain.ProviderGemini,
		UsageEstimated: estimated,
	}, nil
}

// toGeminiContents splits out the system instruction and converts the
// remaining turns, merging adjacent turns of the same role.
func toGeminiContents(messages []message.Message) (*genai.Content, []*genai.Content) {
	system, conversation := message.SplitSystem(messages)

	var instruction *genai.Content
	if system != "" {
		instruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	merged := message.MergeConsecutive(conversation)
	contents := make([]*genai.Content, 0, len(merged))
	for _, msg := range merged {
		var role genai.Role = genai.RoleUser
		if msg.Role == message.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return instruction, contents
}
