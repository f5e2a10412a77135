package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Supported provider identifiers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// ProviderConfig holds everything needed to construct one adapter.
// It is validated once and never mutated after construction.
type ProviderConfig struct {
	ProviderID  string  `json:"provider_id" validate:"required,oneof=openai anthropic gemini ollama"`
	APIKey      string  `json:"-" validate:"required_unless=ProviderID ollama"`
	ModelID     string  `json:"model_id" validate:"required"`
	BaseURL     string  `json:"base_url,omitempty" validate:"omitempty,url"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config against its declared constraints
func (c ProviderConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid %s provider config: %w", c.ProviderID, err)
	}
	return nil
}
