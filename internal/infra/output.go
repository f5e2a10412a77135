package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpt/go-expert-panel/internal/repository"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
)

const (
	transcriptFile     = "transcript.md"
	transcriptJSONFile = "transcript.json"
	analyticsFile      = "analytics.json"
	metadataFile       = "metadata.json"
	metricsFile        = "metrics.prom"
)

// Metadata is the content of metadata.json
type Metadata struct {
	SessionID        string         `json:"session_id"`
	RunID            string         `json:"run_id"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	Topic            string         `json:"topic"`
	ExpertCount      int            `json:"expert_count"`
	ExpertNames      []string       `json:"expert_names"`
	DocumentProvided bool           `json:"document_provided"`
	TotalCost        float64        `json:"total_cost"`
	TotalTokens      int            `json:"total_tokens"`
	Config           map[string]any `json:"config"`
}

// OutputWriter stores each session under <baseDir>/session_<id>/
type OutputWriter struct {
	baseDir      string
	writeMetrics bool
	now          func() time.Time
}

var _ repository.SessionRepository = (*OutputWriter)(nil)

// NewOutputWriter creates a writer rooted at baseDir
func NewOutputWriter(baseDir string, writeMetrics bool) *OutputWriter {
	return &OutputWriter{baseDir: baseDir, writeMetrics: writeMetrics, now: time.Now}
}

// SessionDir returns the directory used for a session id
func (w *OutputWriter) SessionDir(sessionID string) string {
	return filepath.Join(w.baseDir, "session_"+sessionID)
}

// Save writes transcript.md, transcript.json, analytics.json, metadata.json and optionally
// metrics.prom. On failure the session directory is removed again.
func (w *OutputWriter) Save(rec repository.SessionRecord, exporter repository.AnalyticsExporter) (_ repository.SessionOutputs, err error) {
	dir := w.SessionDir(rec.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return repository.SessionOutputs{}, fmt.Errorf("failed to create session directory: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	out := repository.SessionOutputs{
		Dir:            dir,
		Transcript:     filepath.Join(dir, transcriptFile),
		TranscriptJSON: filepath.Join(dir, transcriptJSONFile),
		Analytics:      filepath.Join(dir, analyticsFile),
		Metadata:       filepath.Join(dir, metadataFile),
	}

	record := state.NewTranscript()
	for _, e := range rec.Transcript {
		record.Append(e)
	}

	transcript := RenderTranscript(rec.SessionID, w.now(), record)
	if err := os.WriteFile(out.Transcript, []byte(transcript), 0644); err != nil {
		return out, fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := record.SaveToFile(out.TranscriptJSON); err != nil {
		return out, err
	}

	analytics, err := exporter.Export(out.Analytics)
	if err != nil {
		return out, err
	}

	meta := Metadata{
		SessionID:        rec.SessionID,
		RunID:            rec.RunID,
		StartTime:        rec.StartedAt,
		EndTime:          rec.FinishedAt,
		Topic:            rec.Topic,
		ExpertCount:      len(rec.ExpertNames),
		ExpertNames:      rec.ExpertNames,
		DocumentProvided: rec.DocumentProvided,
		TotalCost:        analytics.Costs.TotalCostUSD,
		TotalTokens:      analytics.TokenUsage.TotalTokens,
		Config:           rec.Config,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return out, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(out.Metadata, data, 0644); err != nil {
		return out, fmt.Errorf("failed to write metadata: %w", err)
	}

	if w.writeMetrics {
		out.Metrics = filepath.Join(dir, metricsFile)
		if err := exporter.WriteMetrics(out.Metrics); err != nil {
			return out, err
		}
	}

	return out, nil
}

// RenderTranscript formats the spoken entries of t as markdown
func RenderTranscript(sessionID string, generated time.Time, t *state.Transcript) string {
	var sb strings.Builder
	sb.WriteString("# Expert Panel Discussion Transcript\n")
	fmt.Fprintf(&sb, "Session: %s\n", sessionID)
	fmt.Fprintf(&sb, "Generated: %s\n\n", generated.Format(time.RFC3339))

	for _, e := range t.Spoken() {
		fmt.Fprintf(&sb, "## %s (%s)\n", e.Speaker, e.Timestamp.Format("15:04:05"))
		sb.WriteString(strings.TrimSpace(e.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
