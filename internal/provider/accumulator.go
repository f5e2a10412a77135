package provider

import (
	"sync"
	"time"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// ProviderTotals is the per-backend slice of the session totals
type ProviderTotals struct {
	Calls   int                `json:"calls"`
	Usage   message.TokenUsage `json:"usage"`
	CostUSD float64            `json:"cost_usd"`
}

// AccumulatorState is an immutable copy of the accumulator
type AccumulatorState struct {
	TotalUsage   message.TokenUsage
	TotalCostUSD float64
	CallCount    int
	StartedAt    time.Time
	ByProvider   map[string]ProviderTotals
	Latencies    []time.Duration
}

// Accumulator keeps the running usage, cost and call count of a session.
// Record applies a whole result under one lock, so concurrent sessions
// sharing an accumulator never lose or double-count a call.
type Accumulator struct {
	mu         sync.Mutex
	usage      message.TokenUsage
	cost       float64
	calls      int
	startedAt  time.Time
	byProvider map[string]ProviderTotals
	latencies  []time.Duration
}

// NewAccumulator starts an empty accumulator at startedAt
func NewAccumulator(startedAt time.Time) *Accumulator {
	return &Accumulator{
		startedAt:  startedAt,
		byProvider: make(map[string]ProviderTotals),
	}
}

// Record adds one successful call
func (a *Accumulator) Record(result *domain.GenerationResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.usage = a.usage.Add(result.Usage)
	a.cost += result.CostUSD
	a.calls++
	a.latencies = append(a.latencies, result.Latency)

	totals := a.byProvider[result.ProviderID]
	totals.Calls++
	totals.Usage = totals.Usage.Add(result.Usage)
	totals.CostUSD += result.CostUSD
	a.byProvider[result.ProviderID] = totals
}

// State returns a copy of the current totals
func (a *Accumulator) State() AccumulatorState {
	a.mu.Lock()
	defer a.mu.Unlock()

	byProvider := make(map[string]ProviderTotals, len(a.byProvider))
	for id, totals := range a.byProvider {
		byProvider[id] = totals
	}
	latencies := make([]time.Duration, len(a.latencies))
	copy(latencies, a.latencies)

	return AccumulatorState{
		TotalUsage:   a.usage,
		TotalCostUSD: a.cost,
		CallCount:    a.calls,
		StartedAt:    a.startedAt,
		ByProvider:   byProvider,
		Latencies:    latencies,
	}
}
