package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultMinRateWindow is the smallest elapsed time used as the denominator
// of per-minute rates, so very short sessions report finite rates
const DefaultMinRateWindow = time.Minute

// Analytics is the session analytics snapshot written to analytics.json
type Analytics struct {
	SessionInfo SessionInfo               `json:"session_info"`
	TokenUsage  TokenUsageInfo            `json:"token_usage"`
	Costs       CostInfo                  `json:"costs"`
	Performance PerformanceInfo           `json:"performance"`
	Providers   map[string]ProviderTotals `json:"providers"`
	Latency     LatencyInfo               `json:"latency"`
}

type SessionInfo struct {
	DurationMinutes float64  `json:"duration_minutes"`
	TotalCalls      int      `json:"total_calls"`
	ProvidersUsed   []string `json:"providers_used"`
	PrimaryProvider string   `json:"primary_provider"`
}

type TokenUsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CostInfo struct {
	TotalCostUSD             float64 `json:"total_cost_usd"`
	AverageCostPerCall       float64 `json:"average_cost_per_call"`
	EstimatedCostPer1KTokens float64 `json:"estimated_cost_per_1k_tokens"`
}

type PerformanceInfo struct {
	CallsPerMinute  float64 `json:"calls_per_minute"`
	TokensPerMinute float64 `json:"tokens_per_minute"`
}

// LatencyInfo summarises per-call latency in seconds
type LatencyInfo struct {
	MeanSeconds   float64 `json:"mean_seconds"`
	StdDevSeconds float64 `json:"stddev_seconds"`
	P50Seconds    float64 `json:"p50_seconds"`
	P95Seconds    float64 `json:"p95_seconds"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// buildAnalytics derives the snapshot from accumulator state. It is pure.
func buildAnalytics(state AccumulatorState, now time.Time, minWindow time.Duration, providers []string, primary string) Analytics {
	elapsed := now.Sub(state.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := elapsed.Minutes()
	rateMinutes := math.Max(minutes, minWindow.Minutes())

	total := state.TotalUsage.TotalTokens
	cost := state.TotalCostUSD

	used := make([]string, len(providers))
	copy(used, providers)

	return Analytics{
		SessionInfo: SessionInfo{
			DurationMinutes: round(minutes, 2),
			TotalCalls:      state.CallCount,
			ProvidersUsed:   used,
			PrimaryProvider: primary,
		},
		TokenUsage: TokenUsageInfo{
			PromptTokens:     state.TotalUsage.PromptTokens,
			CompletionTokens: state.TotalUsage.CompletionTokens,
			TotalTokens:      total,
		},
		Costs: CostInfo{
			TotalCostUSD:             round(cost, 4),
			AverageCostPerCall:       round(cost/math.Max(float64(state.CallCount), 1), 4),
			EstimatedCostPer1KTokens: round(cost/math.Max(float64(total)/1000, 1), 4),
		},
		Performance: PerformanceInfo{
			CallsPerMinute:  round(float64(state.CallCount)/rateMinutes, 2),
			TokensPerMinute: round(float64(total)/rateMinutes, 0),
		},
		Providers: state.ByProvider,
		Latency:   latencyStats(state.Latencies),
	}
}

func latencyStats(latencies []time.Duration) LatencyInfo {
	if len(latencies) == 0 {
		return LatencyInfo{}
	}

	seconds := make([]float64, len(latencies))
	for i, l := range latencies {
		seconds[i] = l.Seconds()
	}
	sort.Float64s(seconds)

	mean, std := stat.MeanStdDev(seconds, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return LatencyInfo{
		MeanSeconds:   round(mean, 3),
		StdDevSeconds: round(std, 3),
		P50Seconds:    round(stat.Quantile(0.5, stat.Empirical, seconds, nil), 3),
		P95Seconds:    round(stat.Quantile(0.95, stat.Empirical, seconds, nil), 3),
	}
}

// writeJSON writes v as indented JSON, creating parent directories
func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write analytics file: %w", err)
	}
	return nil
}
