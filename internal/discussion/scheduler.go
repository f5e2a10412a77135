// Package discussion runs a bounded round-robin conversation over a fixed
// roster of participants.
package discussion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// Generator produces one reply. *provider.Manager satisfies it.
type Generator interface {
	Generate(ctx context.Context, messages []message.Message, providerID string, opts domain.GenerateOptions) (*provider.Outcome, error)
}

// Config bounds a run
type Config struct {
	// MaxTurns is the total number of scheduled turns, coordinator turns included
	MaxTurns int `validate:"gt=0"`
	// SeedMessage is what the coordinator says on its first turn
	SeedMessage string `validate:"required"`
	// Options are passed to every generation call
	Options domain.GenerateOptions `validate:"-"`
	// Entries, when set, receives every entry as soon as it is appended.
	// The scheduler never closes it.
	Entries chan<- state.Entry `validate:"-"`
}

// Result is what a run produced. On failure it is returned together with
// the error and is marked Incomplete.
type Result struct {
	RunID      string
	State      State
	Transcript *state.Transcript
	Incomplete bool
	// Turns counts the entries appended, coordinator turns included
	Turns      int
	Fallbacks  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Scheduler drives one run over its roster. It is single use.
type Scheduler struct {
	gen    Generator
	roster []domain.Participant
	cfg    Config
	now    func() time.Time
	logger *pkgLogger.Logger

	mu    sync.Mutex
	state State
}

// Option customises a Scheduler
type Option func(*Scheduler)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger overrides the component logger
func WithLogger(l *pkgLogger.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler validates the roster and config. A scheduler that fails
// validation is never handed out.
func NewScheduler(gen Generator, roster []domain.Participant, cfg Config, opts ...Option) (*Scheduler, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator is required", ErrInvalidConfig)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}

	s := &Scheduler{
		gen:    gen,
		roster: append([]domain.Participant(nil), roster...),
		cfg:    cfg,
		now:    time.Now,
		logger: pkgLogger.NewComponentLogger("discussion"),
		state:  NotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run executes the turns in roster order until MaxTurns. The first failed
// generation, or a cancelled ctx seen between turns, ends the run as Failed.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.state != NotStarted {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (state %s)", ErrAlreadyRun, st)
	}
	s.state = Running
	s.mu.Unlock()

	result := &Result{
		RunID:      uuid.NewString(),
		State:      Running,
		Transcript: state.NewTranscript(),
		StartedAt:  s.now(),
	}
	logger := s.logger.With("run_id", result.RunID)
	logger.InfoWithIcon("🎬", "Discussion started",
		"participants", len(s.roster), "max_turns", s.cfg.MaxTurns)

	seeded := false
	for turn := 1; turn <= s.cfg.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return s.fail(result, logger, fmt.Errorf("discussion cancelled before turn %d: %w", turn, err))
		}

		p := s.roster[(turn-1)%len(s.roster)]
		entry := state.Entry{
			Speaker:   p.DisplayName,
			SpeakerID: p.ID,
			Role:      p.Role,
		}

		if !p.Generates() {
			if !seeded {
				entry.Content = s.cfg.SeedMessage
				seeded = true
			}
		} else {
			msgs := BuildMessages(p, result.Transcript.Entries())
			logger.Debug("Requesting turn", "turn", turn, "participant", p.ID, "messages", len(msgs))

			out, err := s.gen.Generate(ctx, msgs, p.ProviderID, s.cfg.Options)
			if err != nil {
				return s.fail(result, logger, &TurnError{Turn: turn, ParticipantID: p.ID, Speaker: p.DisplayName, Err: err})
			}
			if out.Fallback {
				result.Fallbacks++
			}
			entry.Content = out.Content
		}

		entry.Timestamp = s.now()
		result.Transcript.Append(entry)
		result.Turns++
		s.emit(ctx, entry)

		if !entry.IsEmpty() {
			logger.DebugWithIcon("💬", "Turn complete", "turn", turn, "speaker", p.DisplayName, "chars", len(entry.Content))
		}
	}

	s.setState(Completed)
	result.State = Completed
	result.FinishedAt = s.now()
	logger.InfoWithIcon("🏁", "Discussion completed", "turns", result.Turns)
	return result, nil
}

func (s *Scheduler) fail(result *Result, logger *pkgLogger.Logger, err error) (*Result, error) {
	s.setState(Failed)
	result.State = Failed
	result.Incomplete = true
	result.FinishedAt = s.now()
	logger.ErrorWithIcon("❌", "Discussion failed", "turns_completed", result.Turns, "error", err)
	return result, err
}

func (s *Scheduler) emit(ctx context.Context, entry state.Entry) {
	if s.cfg.Entries == nil {
		return
	}
	select {
	case s.cfg.Entries <- entry:
	case <-ctx.Done():
	}
}
