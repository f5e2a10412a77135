package anthropic

import "github.com/fpt/go-expert-panel/pkg/pricing"

const (
	DefaultModel        = modelSonnet35
	maxTokensStopReason = "max_tokens"

	modelSonnet35 = "claude-3-5-sonnet-20241022"
	modelOpus3    = "claude-3-opus-20240229"
	modelHaiku3   = "claude-3-haiku-20240307"
	modelSonnet4  = "claude-sonnet-4-20250514"
)

// Pricing holds Anthropic list prices per 1K tokens. Unknown models are
// priced as Claude 3.5 Sonnet.
var Pricing = pricing.NewTable(modelSonnet35, map[string]pricing.Rate{
	modelSonnet35: {InputPer1K: 0.003, OutputPer1K: 0.015},
	modelOpus3:    {InputPer1K: 0.015, OutputPer1K: 0.075},
	modelHaiku3:   {InputPer1K: 0.00025, OutputPer1K: 0.00125},
	modelSonnet4:  {InputPer1K: 0.003, OutputPer1K: 0.015},
})
