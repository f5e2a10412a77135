package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/go-expert-panel/internal/config"
	"github.com/fpt/go-expert-panel/internal/discussion"
	"github.com/fpt/go-expert-panel/internal/experts"
	"github.com/fpt/go-expert-panel/internal/infra"
	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// mockLLM answers every call with a numbered reply and can fail on one call
type mockLLM struct {
	mu     sync.Mutex
	calls  int
	failOn int
	seen   [][]message.Message
}

func (m *mockLLM) ID() string      { return domain.ProviderAnthropic }
func (m *mockLLM) ModelID() string { return "claude-test" }

func (m *mockLLM) EstimateCost(usage message.TokenUsage) float64 { return 0.002 }

func (m *mockLLM) Generate(ctx context.Context, msgs []message.Message, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seen = append(m.seen, msgs)
	if m.calls == m.failOn {
		return nil, domain.NewCallError(m.ID(), errors.New("overloaded"))
	}
	return &domain.GenerationResult{
		Content:    fmt.Sprintf("mock response %d", m.calls),
		ModelID:    "claude-test",
		Usage:      message.NewTokenUsage(1200, 300),
		CostUSD:    0.002,
		Latency:    time.Second,
		ProviderID: m.ID(),
	}, nil
}

var fixedNow = time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)

type harness struct {
	llm        *mockLLM
	manager    *provider.Manager
	settings   *config.Settings
	outDir     string
	controller *SessionController
}

func newHarness(t *testing.T, failOn int, opts ...SessionOption) *harness {
	t.Helper()

	llm := &mockLLM{failOn: failOn}
	manager, err := provider.NewManagerFromProviders(provider.Options{
		DefaultProvider: domain.ProviderAnthropic,
		Metrics:         provider.NewMetrics(nil),
	}, llm)
	require.NoError(t, err)

	catalog, err := experts.LoadBuiltin()
	require.NoError(t, err)
	prompts, err := experts.LoadPrompts()
	require.NoError(t, err)

	settings := config.GetDefaultSettings()
	settings.Providers.Anthropic.APIKey = "sk-ant-secret"
	outDir := t.TempDir()
	settings.Output.Dir = outDir

	opts = append([]SessionOption{WithSessionClock(func() time.Time { return fixedNow })}, opts...)
	controller := NewSessionController(manager, catalog, prompts, settings, infra.NewOutputWriter(outDir, true), opts...)

	return &harness{llm: llm, manager: manager, settings: settings, outDir: outDir, controller: controller}
}

func TestSessionRunSample(t *testing.T) {
	h := newHarness(t, 0)

	summary, err := h.controller.Run(context.Background(), SessionRequest{
		Sample:   "app_architecture_review",
		MaxTurns: 6,
	})
	require.NoError(t, err)

	assert.Equal(t, "20240301_101500", summary.SessionID)
	assert.Equal(t, "Review of application architecture and design", summary.Topic)
	require.Len(t, summary.Transcript, 6)
	assert.Equal(t, "Coordinator", summary.Transcript[0].Speaker)
	assert.Equal(t, "Moderator", summary.Transcript[1].Speaker)
	assert.Equal(t, "Marcus Thompson", summary.Transcript[2].Speaker)
	assert.Equal(t, "Sarah Chen", summary.Transcript[3].Speaker)

	// moderator plus four experts generate, at 1500 tokens and $0.002 each
	assert.Equal(t, "$0.0100", summary.TotalCost)
	assert.Equal(t, "7,500", summary.TotalTokens)
	assert.Equal(t, domain.ProviderAnthropic, summary.Provider)
	assert.Equal(t, 5, h.llm.calls)

	wantDir := filepath.Join(h.outDir, "session_20240301_101500")
	assert.Equal(t, wantDir, summary.Outputs.Dir)
	for _, path := range []string{summary.Outputs.Transcript, summary.Outputs.Analytics, summary.Outputs.Metadata, summary.Outputs.Metrics} {
		assert.FileExists(t, path)
	}

	transcript, err := os.ReadFile(summary.Outputs.Transcript)
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "Session: 20240301_101500")
	assert.Contains(t, string(transcript), "## Marcus Thompson (10:15:00)")

	var meta infra.Metadata
	data, err := os.ReadFile(summary.Outputs.Metadata)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, summary.RunID, meta.RunID)
	assert.Equal(t, 4, meta.ExpertCount)
	assert.Equal(t, 7500, meta.TotalTokens)
	assert.False(t, meta.DocumentProvided)
	assert.NotContains(t, string(data), "sk-ant-secret")
	assert.Contains(t, string(data), `"api_key": "***"`)
}

func TestSessionSampleRoundsReachModerator(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.controller.Run(context.Background(), SessionRequest{Sample: "startup_idea_validation", MaxTurns: 2})
	require.NoError(t, err)

	require.Len(t, h.llm.seen, 1)
	system := h.llm.seen[0][0]
	assert.Equal(t, message.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "DISCUSSION ROUNDS (6 total)")
	assert.Contains(t, system.Content, "1. Market Opportunity")
}

func TestSessionCustomRoundsOverrideSample(t *testing.T) {
	h := newHarness(t, 0)
	h.settings.Discussion.CustomRounds = []string{"Only Round"}

	_, err := h.controller.Run(context.Background(), SessionRequest{Sample: "startup_idea_validation", MaxTurns: 2})
	require.NoError(t, err)

	system := h.llm.seen[0][0].Content
	assert.Contains(t, system, "DISCUSSION ROUNDS (1 total)")
	assert.Contains(t, system, "1. Only Round")
}

func TestSessionDocumentSeed(t *testing.T) {
	h := newHarness(t, 0)

	summary, err := h.controller.Run(context.Background(), SessionRequest{
		Document:     "Tasks live in inboxes.",
		DocumentPath: "docs/design.md",
		Domain:       "productivity",
		ExpertCount:  2,
		MaxTurns:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, "Review of design.md", summary.Topic)
	assert.Contains(t, summary.Transcript[0].Content, "DOCUMENT:\nTasks live in inboxes.")
}

func TestSessionCustomExperts(t *testing.T) {
	h := newHarness(t, 0)

	summary, err := h.controller.Run(context.Background(), SessionRequest{
		Topic: "Edge caching",
		CustomExperts: []experts.Template{
			{Key: "jo_park", Name: "Jo Park", Expertise: "CDNs"},
		},
		MaxTurns: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "jo_park", summary.Transcript[2].SpeakerID)
	assert.Equal(t, "Jo Park", summary.Transcript[2].Speaker)
}

func TestSessionDiscussionFailure(t *testing.T) {
	// the second call is the first expert, scheduled turn 3
	h := newHarness(t, 2)

	summary, err := h.controller.Run(context.Background(), SessionRequest{Topic: "Caching", Domain: "technology", MaxTurns: 6})
	require.Error(t, err)
	assert.Nil(t, summary)

	var sessErr *SessionError
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "20240301_101500", sessErr.SessionID)
	assert.Equal(t, StageDiscussion, sessErr.Stage)
	assert.True(t, sessErr.Incomplete())
	assert.Len(t, sessErr.Transcript, 2)
	assert.True(t, domain.IsCallError(err))

	var turnErr *discussion.TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, 3, turnErr.Turn)

	assert.Equal(t, 1, h.manager.State().CallCount)
	assert.NoDirExists(t, filepath.Join(h.outDir, "session_20240301_101500"))
}

func TestSessionPanelErrors(t *testing.T) {
	tests := []struct {
		name string
		req  SessionRequest
	}{
		{"no topic", SessionRequest{Domain: "technology"}},
		{"no domain", SessionRequest{Topic: "x"}},
		{"unknown domain", SessionRequest{Topic: "x", Domain: "cooking"}},
		{"unknown sample", SessionRequest{Sample: "nope"}},
		{"unknown expert", SessionRequest{Topic: "x", Domain: "business", ExpertKeys: []string{"gtd_expert"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0)
			_, err := h.controller.Run(context.Background(), tt.req)

			var sessErr *SessionError
			require.ErrorAs(t, err, &sessErr)
			assert.Equal(t, StagePanel, sessErr.Stage)
			assert.False(t, sessErr.Incomplete())
			assert.Equal(t, 0, h.llm.calls)
		})
	}
}

func TestSessionStreamsEntries(t *testing.T) {
	ch := make(chan state.Entry, 16)
	h := newHarness(t, 0, WithEntryStream(ch))

	_, err := h.controller.Run(context.Background(), SessionRequest{Topic: "Caching", Domain: "academic", MaxTurns: 5})
	require.NoError(t, err)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestBuildRoster(t *testing.T) {
	h := newHarness(t, 0)
	catalog, err := experts.LoadBuiltin()
	require.NoError(t, err)
	panel, err := catalog.Select("business", nil, 2)
	require.NoError(t, err)

	roster := h.controller.BuildRoster("Pricing", panel, DefaultRounds(VerbosityNormal), domain.ProviderOpenAI)
	require.NoError(t, discussion.ValidateRoster(roster))
	require.Len(t, roster, 4)

	assert.Equal(t, domain.RoleCoordinator, roster[0].Role)
	assert.Empty(t, roster[0].SystemPrompt)
	assert.Equal(t, domain.RoleModerator, roster[1].Role)
	for _, p := range roster[1:] {
		assert.Equal(t, domain.ProviderOpenAI, p.ProviderID)
	}
	assert.Equal(t, "Emily Johnson", roster[2].DisplayName)
	assert.Contains(t, roster[2].SystemPrompt, "You are Emily Johnson (Product Manager), an expert in Product Strategy and Market Fit.")
}
