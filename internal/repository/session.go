package repository

import (
	"time"

	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
)

// SessionRecord is everything a finished session persists
type SessionRecord struct {
	SessionID        string
	RunID            string
	Topic            string
	StartedAt        time.Time
	FinishedAt       time.Time
	ExpertNames      []string
	DocumentProvided bool
	Transcript       []state.Entry
	// Config is the sanitized settings snapshot
	Config map[string]any
}

// SessionOutputs are the paths of the files written for a session
type SessionOutputs struct {
	Dir            string `json:"dir"`
	Transcript     string `json:"transcript"`
	TranscriptJSON string `json:"transcript_json"`
	Analytics      string `json:"analytics"`
	Metadata       string `json:"metadata"`
	Metrics        string `json:"metrics,omitempty"`
}

// AnalyticsExporter writes the accounting files of a session
type AnalyticsExporter interface {
	Export(path string) (provider.Analytics, error)
	WriteMetrics(path string) error
}

// SessionRepository persists a finished session
type SessionRepository interface {
	Save(rec SessionRecord, exporter AnalyticsExporter) (SessionOutputs, error)
}
