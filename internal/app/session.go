package app

import (
	"context"
	"path/filepath"
	"time"

	pkgErrors "github.com/pkg/errors"

	"github.com/fpt/go-expert-panel/internal/config"
	"github.com/fpt/go-expert-panel/internal/discussion"
	"github.com/fpt/go-expert-panel/internal/experts"
	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/internal/repository"
	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
)

const sessionIDLayout = "20060102_150405"

// Backend is what a session needs from the provider layer. *provider.Manager
// satisfies it.
type Backend interface {
	discussion.Generator
	repository.AnalyticsExporter
	Analytics() provider.Analytics
	DefaultProvider() string
}

// SessionRequest describes one panel run
type SessionRequest struct {
	Topic string
	// Document is the text under review, read verbatim
	Document     string
	DocumentPath string
	Domain       string
	ExpertKeys   []string
	ExpertCount  int
	// CustomExperts replace catalog experts when set
	CustomExperts []experts.Template
	Sample        string
	Rounds        []string
	// MaxTurns overrides the configured turn ceiling when positive
	MaxTurns   int
	ProviderID string
}

// Summary is returned for a completed session
type Summary struct {
	SessionID   string
	RunID       string
	Topic       string
	Transcript  []state.Entry
	Analytics   provider.Analytics
	Outputs     repository.SessionOutputs
	TotalCost   string
	TotalTokens string
	Duration    string
	Provider    string
}

// SessionController builds the roster, runs the discussion and stores the result
type SessionController struct {
	backend  Backend
	catalog  *experts.Catalog
	prompts  *PromptBuilder
	settings *config.Settings
	store    repository.SessionRepository
	entries  chan<- state.Entry
	now      func() time.Time
	logger   *pkgLogger.Logger
}

// SessionOption customises a SessionController
type SessionOption func(*SessionController)

// WithEntryStream forwards each transcript entry to ch as it lands
func WithEntryStream(ch chan<- state.Entry) SessionOption {
	return func(c *SessionController) { c.entries = ch }
}

// WithSessionClock overrides the clock used for session ids and timestamps
func WithSessionClock(now func() time.Time) SessionOption {
	return func(c *SessionController) { c.now = now }
}

func NewSessionController(backend Backend, catalog *experts.Catalog, prompts experts.Prompts, settings *config.Settings, store repository.SessionRepository, opts ...SessionOption) *SessionController {
	d := settings.Discussion
	c := &SessionController{
		backend: backend,
		catalog: catalog,
		prompts: NewPromptBuilder(prompts, PromptOptions{
			Verbosity:         d.Verbosity,
			ResponseFormat:    d.ResponseFormat,
			MaxResponseLength: d.MaxResponseLength,
			DiscussionStyle:   d.DiscussionStyle,
			EnableInteraction: d.EnableExpertInteraction,
		}),
		settings: settings,
		store:    store,
		now:      time.Now,
		logger:   pkgLogger.NewComponentLogger("session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// plan is a request resolved against the catalog
type plan struct {
	topic  string
	panel  []experts.Template
	rounds []string
}

func (c *SessionController) resolve(req SessionRequest) (*plan, error) {
	domainKey := req.Domain
	keys := req.ExpertKeys
	panelRounds := req.Rounds
	topic := req.Topic

	if req.Sample != "" {
		sample, ok := c.catalog.Sample(req.Sample)
		if !ok {
			return nil, pkgErrors.Errorf("unknown sample %q", req.Sample)
		}
		if domainKey == "" {
			domainKey = sample.Domain
		}
		if len(keys) == 0 && domainKey == sample.Domain {
			keys = sample.Experts
		}
		if len(panelRounds) == 0 {
			panelRounds = sample.Rounds
		}
		if topic == "" {
			topic = sample.Topic()
		}
	}

	if topic == "" && req.DocumentPath != "" {
		topic = "Review of " + filepath.Base(req.DocumentPath)
	}
	if topic == "" && req.Document != "" {
		topic = "Review of provided document"
	}
	if topic == "" {
		return nil, pkgErrors.New("a topic, document or sample is required")
	}

	var panel []experts.Template
	switch {
	case len(req.CustomExperts) > 0:
		panel = req.CustomExperts
	case domainKey != "":
		count := req.ExpertCount
		if count <= 0 {
			count = c.settings.Discussion.DefaultExpertCount
		}
		var err error
		panel, err = c.catalog.Select(domainKey, keys, count)
		if err != nil {
			return nil, pkgErrors.Wrap(err, "failed to select experts")
		}
	default:
		return nil, pkgErrors.New("must specify a domain, a sample or custom experts")
	}
	if len(panel) == 0 {
		return nil, pkgErrors.New("the panel has no experts")
	}

	return &plan{
		topic:  topic,
		panel:  panel,
		rounds: ResolveRounds(c.settings.Discussion.CustomRounds, panelRounds, c.prompts.Verbosity()),
	}, nil
}

// BuildRoster returns coordinator, moderator and experts in speaking order,
// each expert bound to providerID
func (c *SessionController) BuildRoster(topic string, panel []experts.Template, rounds []string, providerID string) []domain.Participant {
	roster := make([]domain.Participant, 0, len(panel)+2)
	roster = append(roster,
		domain.Participant{
			ID:          "coordinator",
			DisplayName: "Coordinator",
			Role:        domain.RoleCoordinator,
		},
		domain.Participant{
			ID:           "moderator",
			DisplayName:  "Moderator",
			SystemPrompt: c.prompts.ModeratorPrompt(topic, rounds),
			Role:         domain.RoleModerator,
			ProviderID:   providerID,
		},
	)
	for _, t := range panel {
		roster = append(roster, domain.Participant{
			ID:           t.Key,
			DisplayName:  t.ShortName(),
			SystemPrompt: c.prompts.ExpertPrompt(t, topic),
			Role:         domain.RoleExpert,
			ProviderID:   providerID,
		})
	}
	return roster
}

// Run executes one session end to end. Any failure comes back as a
// *SessionError and leaves no output files behind.
func (c *SessionController) Run(ctx context.Context, req SessionRequest) (*Summary, error) {
	startedAt := c.now()
	sessionID := startedAt.Format(sessionIDLayout)
	logger := c.logger.WithSession(sessionID)

	fail := func(stage string, transcript []state.Entry, err error) (*Summary, error) {
		logger.ErrorWithIcon("❌", "Session failed", "stage", stage, "error", err)
		return nil, &SessionError{SessionID: sessionID, Stage: stage, Transcript: transcript, Err: err}
	}

	p, err := c.resolve(req)
	if err != nil {
		return fail(StagePanel, nil, err)
	}

	providerID := req.ProviderID
	if providerID == "" {
		providerID = c.settings.Providers.Primary
	}
	roster := c.BuildRoster(p.topic, p.panel, p.rounds, providerID)

	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = c.settings.Discussion.MaxRounds
	}

	expertNames := make([]string, len(p.panel))
	for i, t := range p.panel {
		expertNames[i] = t.ShortName()
	}
	logger.InfoWithIcon("👥", "Panel assembled", "experts", expertNames, "rounds", len(p.rounds), "max_turns", maxTurns)

	scheduler, err := discussion.NewScheduler(c.backend, roster, discussion.Config{
		MaxTurns:    maxTurns,
		SeedMessage: c.prompts.SeedMessage(p.topic, req.Document),
		Entries:     c.entries,
	}, discussion.WithClock(c.now), discussion.WithLogger(pkgLogger.NewComponentLogger("discussion").WithSession(sessionID)))
	if err != nil {
		return fail(StagePanel, nil, pkgErrors.Wrap(err, "failed to build discussion"))
	}

	result, err := scheduler.Run(ctx)
	if err != nil {
		var transcript []state.Entry
		if result != nil {
			transcript = result.Transcript.Entries()
		}
		return fail(StageDiscussion, transcript, pkgErrors.Wrap(err, "discussion did not complete"))
	}

	entries := result.Transcript.Entries()
	outputs, err := c.store.Save(repository.SessionRecord{
		SessionID:        sessionID,
		RunID:            result.RunID,
		Topic:            p.topic,
		StartedAt:        startedAt,
		FinishedAt:       result.FinishedAt,
		ExpertNames:      expertNames,
		DocumentProvided: req.Document != "",
		Transcript:       entries,
		Config:           c.settings.Sanitized(),
	}, c.backend)
	if err != nil {
		return fail(StageOutput, entries, pkgErrors.Wrap(err, "failed to save session outputs"))
	}

	analytics := c.backend.Analytics()
	summary := &Summary{
		SessionID:   sessionID,
		RunID:       result.RunID,
		Topic:       p.topic,
		Transcript:  entries,
		Analytics:   analytics,
		Outputs:     outputs,
		TotalCost:   FormatCost(analytics.Costs.TotalCostUSD),
		TotalTokens: FormatTokens(analytics.TokenUsage.TotalTokens),
		Duration:    FormatDuration(analytics.SessionInfo.DurationMinutes),
		Provider:    analytics.SessionInfo.PrimaryProvider,
	}
	logger.InfoWithIcon("✅", "Session complete", "cost", summary.TotalCost, "tokens", summary.TotalTokens, "dir", outputs.Dir)
	return summary, nil
}
