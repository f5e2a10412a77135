package gemini

import "github.com/fpt/go-expert-panel/pkg/pricing"

const (
	DefaultModel = modelFlash25

	modelPro25     = "gemini-2.5-pro"
	modelFlash25   = "gemini-2.5-flash"
	modelFlash20   = "gemini-2.0-flash"
	modelFlashLite = "gemini-2.5-flash-lite"
)

// Pricing holds Gemini API list prices per 1K tokens (standard context tier)
var Pricing = pricing.NewTable(modelFlash25, map[string]pricing.Rate{
	modelPro25:     {InputPer1K: 0.00125, OutputPer1K: 0.010},
	modelFlash25:   {InputPer1K: 0.0003, OutputPer1K: 0.0025},
	modelFlash20:   {InputPer1K: 0.0001, OutputPer1K: 0.0004},
	modelFlashLite: {InputPer1K: 0.0001, OutputPer1K: 0.0004},
})
