package provider

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
)

// Metrics mirrors the accumulator as Prometheus collectors on a private
// registry, for export in the node-exporter textfile format.
type Metrics struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics builds the collectors. constLabels are attached to every series.
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "expertpanel",
			Name:        "llm_calls_total",
			Help:        "Successful generation calls by provider.",
			ConstLabels: constLabels,
		}, []string{"provider", "model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "expertpanel",
			Name:        "llm_call_failures_total",
			Help:        "Failed generation calls by provider.",
			ConstLabels: constLabels,
		}, []string{"provider"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "expertpanel",
			Name:        "llm_tokens_total",
			Help:        "Tokens consumed by provider and direction.",
			ConstLabels: constLabels,
		}, []string{"provider", "direction"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "expertpanel",
			Name:        "llm_cost_usd_total",
			Help:        "Estimated spend in USD by provider.",
			ConstLabels: constLabels,
		}, []string{"provider"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "expertpanel",
			Name:        "llm_call_duration_seconds",
			Help:        "Wall-clock latency of generation calls.",
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			ConstLabels: constLabels,
		}, []string{"provider"}),
	}
	m.registry.MustRegister(m.calls, m.failures, m.tokens, m.cost, m.latency)
	return m
}

// Observe records one successful call
func (m *Metrics) Observe(result *domain.GenerationResult) {
	m.calls.WithLabelValues(result.ProviderID, result.ModelID).Inc()
	m.tokens.WithLabelValues(result.ProviderID, "prompt").Add(float64(result.Usage.PromptTokens))
	m.tokens.WithLabelValues(result.ProviderID, "completion").Add(float64(result.Usage.CompletionTokens))
	m.cost.WithLabelValues(result.ProviderID).Add(result.CostUSD)
	m.latency.WithLabelValues(result.ProviderID).Observe(result.Latency.Seconds())
}

// ObserveFailure records one failed call
func (m *Metrics) ObserveFailure(providerID string) {
	m.failures.WithLabelValues(providerID).Inc()
}

// WriteTextfile writes all series to path in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
