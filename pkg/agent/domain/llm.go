package domain

import (
	"context"
	"time"

	"github.com/fpt/go-expert-panel/pkg/message"
)

// Provider is implemented by every backend adapter. Callers depend only on
// this interface and never on vendor SDK types.
type Provider interface {
	ModelIdentifier

	// ID returns the registry key of the backend, e.g. "openai"
	ID() string

	// Generate sends the canonical message list to the backend and returns a
	// normalized result. It never retries.
	Generate(ctx context.Context, messages []message.Message, opts GenerateOptions) (*GenerationResult, error)

	// EstimateCost prices a usage value with the adapter's pricing table
	EstimateCost(usage message.TokenUsage) float64
}

// GenerateOptions overrides adapter defaults for a single call.
// Zero values keep the adapter's configured defaults.
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   int
}

// WithTemperature returns a copy of the options with the temperature set
func (o GenerateOptions) WithTemperature(t float64) GenerateOptions {
	o.Temperature = &t
	return o
}

// GenerationResult is produced once per successful call and never mutated afterwards
type GenerationResult struct {
	Content    string             `json:"content"`
	ModelID    string             `json:"model_id"`
	Usage      message.TokenUsage `json:"usage"`
	CostUSD    float64            `json:"cost_usd"`
	Latency    time.Duration      `json:"latency"`
	ProviderID string             `json:"provider_id"`
	// UsageEstimated is set when the backend reported no token counts
	UsageEstimated bool `json:"usage_estimated,omitempty"`
}
