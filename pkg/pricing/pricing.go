// Package pricing maps model identifiers to per-1K-token USD rates.
package pricing

import (
	"regexp"
	"strings"

	"github.com/fpt/go-expert-panel/pkg/message"
)

// Rate holds USD prices per 1,000 tokens
type Rate struct {
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// Cost prices a usage value at this rate
func (r Rate) Cost(usage message.TokenUsage) float64 {
	input := float64(usage.PromptTokens) / 1000 * r.InputPer1K
	output := float64(usage.CompletionTokens) / 1000 * r.OutputPer1K
	return input + output
}

// Table is a static pricing table with a designated default entry.
// Unknown models are priced at the default rather than failing.
type Table struct {
	rates        map[string]Rate
	defaultModel string
}

// NewTable builds a table. defaultModel must be present in rates.
func NewTable(defaultModel string, rates map[string]Rate) *Table {
	if _, ok := rates[defaultModel]; !ok {
		panic("pricing: default model " + defaultModel + " missing from table")
	}
	copied := make(map[string]Rate, len(rates))
	for model, rate := range rates {
		copied[model] = rate
	}
	return &Table{rates: copied, defaultModel: defaultModel}
}

var dateSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2})$`)

// NormalizeModelName strips a trailing release date, so
// "gpt-4-turbo-2024-04-09" becomes "gpt-4-turbo".
func NormalizeModelName(model string) string {
	return dateSuffix.ReplaceAllString(strings.ToLower(strings.TrimSpace(model)), "")
}

// Lookup returns the rate for model. found is false when the default entry
// was substituted.
func (t *Table) Lookup(model string) (rate Rate, found bool) {
	if r, ok := t.rates[model]; ok {
		return r, true
	}
	if r, ok := t.rates[NormalizeModelName(model)]; ok {
		return r, true
	}
	return t.rates[t.defaultModel], false
}

// Has reports whether model resolves without falling back to the default
func (t *Table) Has(model string) bool {
	_, found := t.Lookup(model)
	return found
}

// DefaultModel returns the model whose rate is used as the fallback
func (t *Table) DefaultModel() string {
	return t.defaultModel
}

// Cost prices usage for model, falling back to the default entry
func (t *Table) Cost(model string, usage message.TokenUsage) float64 {
	rate, _ := t.Lookup(model)
	return rate.Cost(usage)
}
