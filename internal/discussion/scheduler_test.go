package discussion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// scriptedProvider replies "reply N" to the Nth call and fails on failOn
type scriptedProvider struct {
	mu     sync.Mutex
	calls  int
	failOn int
	onCall func(n int)
	seen   [][]message.Message
}

func (p *scriptedProvider) ID() string      { return "mock" }
func (p *scriptedProvider) ModelID() string { return "mock-1" }

func (p *scriptedProvider) EstimateCost(usage message.TokenUsage) float64 { return 0.001 }

func (p *scriptedProvider) Generate(ctx context.Context, msgs []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.seen = append(p.seen, msgs)
	p.mu.Unlock()

	if p.onCall != nil {
		p.onCall(n)
	}
	if n == p.failOn {
		return nil, domain.NewCallError("mock", errors.New("backend unavailable"))
	}
	return &domain.GenerationResult{
		Content:    fmt.Sprintf("reply %d", n),
		ModelID:    "mock-1",
		Usage:      message.NewTokenUsage(10, 5),
		CostUSD:    0.001,
		ProviderID: "mock",
	}, nil
}

func defaultRoster() []domain.Participant {
	return []domain.Participant{
		{ID: "coordinator", DisplayName: "Coordinator", Role: domain.RoleCoordinator},
		{ID: "moderator", DisplayName: "Moderator", Role: domain.RoleModerator, SystemPrompt: "You moderate."},
		{ID: "e1", DisplayName: "Dr. Ada", Role: domain.RoleExpert, SystemPrompt: "You are Ada."},
		{ID: "e2", DisplayName: "Dr. Bo", Role: domain.RoleExpert, SystemPrompt: "You are Bo."},
	}
}

func newManager(t *testing.T, p domain.Provider) *provider.Manager {
	t.Helper()
	m, err := provider.NewManagerFromProviders(provider.Options{DefaultProvider: "mock"}, p)
	require.NoError(t, err)
	return m
}

func speakers(entries []state.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.SpeakerID
	}
	return ids
}

func TestRunRoundRobinOrder(t *testing.T) {
	p := &scriptedProvider{}
	m := newManager(t, p)

	s, err := NewScheduler(m, defaultRoster(), Config{MaxTurns: 6, SeedMessage: "Let's discuss caching."})
	require.NoError(t, err)
	assert.Equal(t, NotStarted, s.State())

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	entries := result.Transcript.Entries()
	require.Len(t, entries, 6)
	assert.Equal(t, []string{"coordinator", "moderator", "e1", "e2", "coordinator", "moderator"}, speakers(entries))
	assert.Equal(t, "Let's discuss caching.", entries[0].Content)
	assert.Equal(t, "reply 1", entries[1].Content)
	assert.Empty(t, entries[4].Content)
	assert.Equal(t, "reply 4", entries[5].Content)

	assert.Equal(t, Completed, result.State)
	assert.Equal(t, Completed, s.State())
	assert.False(t, result.Incomplete)
	assert.Equal(t, 6, result.Turns)
	assert.NotEmpty(t, result.RunID)

	// only the four generating turns reach the provider
	assert.Equal(t, 4, p.calls)
	assert.Equal(t, 4, m.State().CallCount)
}

func TestRunFailureOnTurnThree(t *testing.T) {
	// turn 3 is e1, the second provider call
	p := &scriptedProvider{failOn: 2}
	m := newManager(t, p)

	s, err := NewScheduler(m, defaultRoster(), Config{MaxTurns: 6, SeedMessage: "seed"})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, Failed, result.State)
	assert.Equal(t, Failed, s.State())
	assert.True(t, result.Incomplete)
	assert.Equal(t, 2, result.Transcript.Len())
	assert.Equal(t, []string{"coordinator", "moderator"}, speakers(result.Transcript.Entries()))

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, 3, turnErr.Turn)
	assert.Equal(t, "e1", turnErr.ParticipantID)
	assert.True(t, domain.IsCallError(err))

	totals := m.State()
	assert.Equal(t, 1, totals.CallCount)
	assert.InDelta(t, 0.001, totals.TotalCostUSD, 1e-12)
}

func TestRunCancelledBetweenTurns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &scriptedProvider{onCall: func(n int) { cancel() }}
	m := newManager(t, p)

	s, err := NewScheduler(m, defaultRoster(), Config{MaxTurns: 6, SeedMessage: "seed"})
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, result.State)
	assert.True(t, result.Incomplete)
	// the in-flight call completes and is kept
	assert.Equal(t, 2, result.Transcript.Len())
	assert.Equal(t, 1, p.calls)
}

func TestRunOnlyOnce(t *testing.T) {
	m := newManager(t, &scriptedProvider{})
	s, err := NewScheduler(m, defaultRoster(), Config{MaxTurns: 2, SeedMessage: "seed"})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunStreamsEntries(t *testing.T) {
	m := newManager(t, &scriptedProvider{})
	ch := make(chan state.Entry, 8)

	s, err := NewScheduler(m, defaultRoster(), Config{MaxTurns: 5, SeedMessage: "seed", Entries: ch})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	close(ch)

	var got []string
	for e := range ch {
		got = append(got, e.SpeakerID)
	}
	assert.Equal(t, []string{"coordinator", "moderator", "e1", "e2", "coordinator"}, got)
}

func TestRunCountsFallbacks(t *testing.T) {
	m := newManager(t, &scriptedProvider{})
	roster := defaultRoster()
	roster[2].ProviderID = "anthropic"

	s, err := NewScheduler(m, roster, Config{MaxTurns: 4, SeedMessage: "seed"})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fallbacks)
}

func TestRunPassesOptions(t *testing.T) {
	var got []domain.GenerateOptions
	var mu sync.Mutex
	rec := &recordingGenerator{onGenerate: func(opts domain.GenerateOptions) {
		mu.Lock()
		got = append(got, opts)
		mu.Unlock()
	}}

	opts := domain.GenerateOptions{MaxTokens: 256}.WithTemperature(0.2)
	s, err := NewScheduler(rec, defaultRoster(), Config{MaxTurns: 3, SeedMessage: "seed", Options: opts})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, o := range got {
		assert.Equal(t, 256, o.MaxTokens)
		require.NotNil(t, o.Temperature)
		assert.Equal(t, 0.2, *o.Temperature)
	}
}

type recordingGenerator struct {
	onGenerate func(domain.GenerateOptions)
}

func (g *recordingGenerator) Generate(ctx context.Context, msgs []message.Message, providerID string, opts domain.GenerateOptions) (*provider.Outcome, error) {
	g.onGenerate(opts)
	return &provider.Outcome{GenerationResult: &domain.GenerationResult{Content: "ok", ProviderID: "rec"}}, nil
}

func TestNewSchedulerValidation(t *testing.T) {
	m := newManager(t, &scriptedProvider{})

	tests := []struct {
		name    string
		roster  func() []domain.Participant
		cfg     Config
		wantErr error
	}{
		{
			name:    "zero turns",
			roster:  defaultRoster,
			cfg:     Config{MaxTurns: 0, SeedMessage: "seed"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing seed",
			roster:  defaultRoster,
			cfg:     Config{MaxTurns: 4},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "coordinator not first",
			roster: func() []domain.Participant {
				r := defaultRoster()
				r[0], r[1] = r[1], r[0]
				return r
			},
			cfg:     Config{MaxTurns: 4, SeedMessage: "seed"},
			wantErr: ErrInvalidRoster,
		},
		{
			name: "two coordinators",
			roster: func() []domain.Participant {
				r := defaultRoster()
				r[3].Role = domain.RoleCoordinator
				return r
			},
			cfg:     Config{MaxTurns: 4, SeedMessage: "seed"},
			wantErr: ErrInvalidRoster,
		},
		{
			name: "no moderator",
			roster: func() []domain.Participant {
				r := defaultRoster()
				r[1].Role = domain.RoleExpert
				return r
			},
			cfg:     Config{MaxTurns: 4, SeedMessage: "seed"},
			wantErr: ErrInvalidRoster,
		},
		{
			name: "duplicate id",
			roster: func() []domain.Participant {
				r := defaultRoster()
				r[3].ID = "e1"
				return r
			},
			cfg:     Config{MaxTurns: 4, SeedMessage: "seed"},
			wantErr: ErrInvalidRoster,
		},
		{
			name:    "empty roster",
			roster:  func() []domain.Participant { return nil },
			cfg:     Config{MaxTurns: 4, SeedMessage: "seed"},
			wantErr: ErrInvalidRoster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(m, tt.roster(), tt.cfg)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
