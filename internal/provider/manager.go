// Package provider holds the registry of constructed backend adapters and
// the session accounting built on top of it.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// Factory constructs one adapter from its config
type Factory func(ctx context.Context, cfg domain.ProviderConfig) (domain.Provider, error)

// Options tune a Manager. Zero values select defaults.
type Options struct {
	// DefaultProvider is used when a call names no provider
	DefaultProvider string
	// MinRateWindow clamps the denominator of per-minute rates
	MinRateWindow time.Duration
	// Metrics receives per-call observations when set
	Metrics *Metrics
	// Now is the clock, overridable in tests
	Now func() time.Time
	Logger *pkgLogger.Logger
}

// Outcome is a successful generation plus how the provider was resolved
type Outcome struct {
	*domain.GenerationResult
	// Requested is the provider id the caller asked for, if any
	Requested string
	// Fallback is set when the result came from a different provider than requested
	Fallback bool
}

// Manager resolves a provider per call and owns the session accumulator
type Manager struct {
	providers       map[string]domain.Provider
	order           []string
	defaultProvider string
	acc             *Accumulator
	metrics         *Metrics
	minRateWindow   time.Duration
	now             func() time.Time
	logger          *pkgLogger.Logger
}

// NewManager constructs every configured adapter with factory. Failures are
// logged and skipped; if none succeeds it returns NoProviderAvailableError.
func NewManager(ctx context.Context, configs []domain.ProviderConfig, factory Factory, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("provider-manager")
	}

	providers := make([]domain.Provider, 0, len(configs))
	for _, cfg := range configs {
		p, err := factory(ctx, cfg)
		if err != nil {
			if !domain.IsInitError(err) {
				err = domain.NewInitError(cfg.ProviderID, err)
			}
			logger.WarnWithIcon("⚠️", "Provider failed to initialize", "provider", cfg.ProviderID, "error", err)
			continue
		}
		logger.InfoWithIcon("✓", "Provider initialized", "provider", p.ID(), "model", p.ModelID())
		providers = append(providers, p)
	}

	opts.Logger = logger
	return NewManagerFromProviders(opts, providers...)
}

// NewManagerFromProviders registers ready-made providers in order
func NewManagerFromProviders(opts Options, providers ...domain.Provider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, domain.NewUnavailableError("no LLM providers available, check your API keys")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	minWindow := opts.MinRateWindow
	if minWindow <= 0 {
		minWindow = DefaultMinRateWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("provider-manager")
	}

	m := &Manager{
		providers:       make(map[string]domain.Provider, len(providers)),
		defaultProvider: opts.DefaultProvider,
		acc:             NewAccumulator(now()),
		metrics:         opts.Metrics,
		minRateWindow:   minWindow,
		now:             now,
		logger:          logger,
	}
	for _, p := range providers {
		if _, dup := m.providers[p.ID()]; dup {
			return nil, fmt.Errorf("provider %q registered twice", p.ID())
		}
		m.providers[p.ID()] = p
		m.order = append(m.order, p.ID())
	}
	return m, nil
}

// Providers returns registered provider ids in registration order
func (m *Manager) Providers() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// DefaultProvider returns the configured default provider id
func (m *Manager) DefaultProvider() string {
	return m.defaultProvider
}

// Resolve picks the provider for a call: the requested id if registered,
// else the default if registered, else the first registered provider.
// fallback reports whether the choice differs from what was asked for.
func (m *Manager) Resolve(requested string) (p domain.Provider, fallback bool, err error) {
	if len(m.order) == 0 {
		return nil, false, domain.NewUnavailableError("no LLM providers available")
	}

	if requested != "" {
		if p, ok := m.providers[requested]; ok {
			return p, false, nil
		}
	}
	if m.defaultProvider != "" {
		if p, ok := m.providers[m.defaultProvider]; ok {
			return p, requested != "", nil
		}
	}
	return m.providers[m.order[0]], requested != "" || m.defaultProvider != "", nil
}

// Generate resolves a provider, runs the call and records it. A failed call
// leaves the accumulator untouched.
func (m *Manager) Generate(ctx context.Context, messages []message.Message, requested string, opts domain.GenerateOptions) (*Outcome, error) {
	p, fallback, err := m.Resolve(requested)
	if err != nil {
		return nil, err
	}
	if fallback {
		want := requested
		if want == "" {
			want = m.defaultProvider
		}
		m.logger.WarnWithIcon("⚠️", "Requested provider not available, falling back",
			"requested", want, "using", p.ID())
	}

	result, err := p.Generate(ctx, messages, opts)
	if err != nil {
		if !domain.IsCallError(err) {
			err = domain.NewCallError(p.ID(), err)
		}
		if m.metrics != nil {
			m.metrics.ObserveFailure(p.ID())
		}
		return nil, err
	}

	m.acc.Record(result)
	if m.metrics != nil {
		m.metrics.Observe(result)
	}
	m.logger.Debug("Call recorded",
		"provider", result.ProviderID, "model", result.ModelID,
		"tokens", result.Usage.TotalTokens, "cost_usd", result.CostUSD)

	return &Outcome{GenerationResult: result, Requested: requested, Fallback: fallback}, nil
}

// State returns a copy of the raw accumulator totals
func (m *Manager) State() AccumulatorState {
	return m.acc.State()
}

// Analytics returns a snapshot of the session totals and derived metrics.
// It does not mutate the manager.
func (m *Manager) Analytics() Analytics {
	return buildAnalytics(m.acc.State(), m.now(), m.minRateWindow, m.order, m.primaryProvider())
}

func (m *Manager) primaryProvider() string {
	if m.defaultProvider != "" {
		return m.defaultProvider
	}
	return m.order[0]
}

// Export writes the current analytics snapshot to path as JSON.
// It may be called repeatedly.
func (m *Manager) Export(path string) (Analytics, error) {
	analytics := m.Analytics()
	if err := writeJSON(path, analytics); err != nil {
		return analytics, err
	}
	return analytics, nil
}

// WriteMetrics writes the Prometheus metrics to path in text format.
// It is a no-op when the manager has no metrics.
func (m *Manager) WriteMetrics(path string) error {
	if m.metrics == nil {
		return nil
	}
	return m.metrics.WriteTextfile(path)
}
