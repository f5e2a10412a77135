// Package state holds the append-only record of a discussion run.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
)

// Entry is one turn of the discussion as it was recorded
type Entry struct {
	Speaker   string                 `json:"speaker"`
	SpeakerID string                 `json:"speaker_id"`
	Role      domain.ParticipantRole `json:"role"`
	Timestamp time.Time              `json:"timestamp"`
	Content   string                 `json:"content"`
}

// IsEmpty reports whether the entry carries no content, as later coordinator turns do
func (e Entry) IsEmpty() bool {
	return e.Content == ""
}

// Transcript is the ordered list of entries of a run. Entries are only ever
// appended; readers get copies.
type Transcript struct {
	entries []Entry
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]Entry, 0)}
}

// Append records an entry at the end
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
}

// Entries returns a copy of all entries in order
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded entries
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Spoken returns the entries that carry content
func (t *Transcript) Spoken() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if !e.IsEmpty() {
			out = append(out, e)
		}
	}
	return out
}

// SaveToFile writes the transcript as JSON, creating parent directories
func (t *Transcript) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}
	return nil
}

// LoadFromFile reads a transcript previously written by SaveToFile
func LoadFromFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &Transcript{entries: entries}, nil
}
