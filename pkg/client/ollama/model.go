package ollama

import (
	"strings"

	"github.com/fpt/go-expert-panel/pkg/pricing"
)

const (
	DefaultModel = "gpt-oss:latest"
	localModel   = "local"
)

// Pricing prices every local model at zero
var Pricing = pricing.NewTable(localModel, map[string]pricing.Rate{
	localModel: {},
})

type OllamaModel struct {
	Name string `json:"name"`

	// Think indicates whether the model emits thinking tokens
	Think bool `json:"think"`

	// Context indicates the context length of the model
	Context int `json:"context"`
}

// This is from https://ollama.com/search
// List must be kept in sync with the Ollama models by human.
var ollamaModels = []OllamaModel{
	{Name: "gpt-oss:latest", Think: true, Context: 128000},
	{Name: "gpt-oss:120b", Think: true, Context: 128000},
	{Name: "qwen3", Think: true, Context: 40000},
	{Name: "llama3.1", Think: false, Context: 128000},
	{Name: "gemma3", Think: false, Context: 128000},
}

func findModel(model string) (OllamaModel, bool) {
	modelLower := strings.ToLower(model)
	for _, ollamaModel := range ollamaModels {
		if strings.Contains(modelLower, strings.ToLower(ollamaModel.Name)) {
			return ollamaModel, true
		}
	}
	return OllamaModel{}, false
}

// IsThinkingCapableModel checks if a model supports thinking/reasoning
func IsThinkingCapableModel(model string) bool {
	m, ok := findModel(model)
	return ok && m.Think
}

// IsModelInKnownList checks if a model is in our known models list
func IsModelInKnownList(model string) bool {
	_, ok := findModel(model)
	return ok
}
