package openai

import "github.com/fpt/go-expert-panel/pkg/pricing"

// Model constants
const (
	DefaultModel    = modelGPT4o
	modelGPT4o      = "gpt-4o"
	modelGPT4o0806  = "gpt-4o-2024-08-06"
	modelGPT4oMini  = "gpt-4o-mini"
	modelGPT4Turbo  = "gpt-4-turbo"
	modelGPT35Turbo = "gpt-3.5-turbo"
)

// Pricing holds OpenAI list prices per 1K tokens. Unknown models are
// priced as gpt-4o.
var Pricing = pricing.NewTable(modelGPT4o, map[string]pricing.Rate{
	modelGPT4o:      {InputPer1K: 0.0025, OutputPer1K: 0.010},
	modelGPT4o0806:  {InputPer1K: 0.0025, OutputPer1K: 0.010},
	modelGPT4oMini:  {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	modelGPT4Turbo:  {InputPer1K: 0.010, OutputPer1K: 0.030},
	modelGPT35Turbo: {InputPer1K: 0.0005, OutputPer1K: 0.0015},
})
