package message

import (
	"math"
	"strings"
)

// tokensPerWord is the rough words-to-tokens ratio used when a backend
// reports no usage. The estimate is lossy and only good to an order of magnitude.
const tokensPerWord = 1.3

// TokenUsage tracks prompt and completion token counts for one or more calls.
// TotalTokens is always PromptTokens + CompletionTokens.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewTokenUsage builds a usage value, deriving the total
func NewTokenUsage(prompt, completion int) TokenUsage {
	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// Add returns the element-wise sum of two usage values
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return NewTokenUsage(u.PromptTokens+other.PromptTokens, u.CompletionTokens+other.CompletionTokens)
}

// IsZero reports whether no tokens were recorded
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// EstimateTokens approximates the token count of text as words * 1.3,
// rounded half away from zero.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Round(float64(words) * tokensPerWord))
}

// EstimateUsage approximates usage for a prompt and its completion
func EstimateUsage(prompt []Message, completion string) TokenUsage {
	return NewTokenUsage(EstimateTokens(JoinContent(prompt)), EstimateTokens(completion))
}
