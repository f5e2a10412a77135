package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
)

func entry(speaker, content string) Entry {
	return Entry{
		Speaker:   speaker,
		SpeakerID: speaker,
		Role:      domain.RoleExpert,
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Content:   content,
	}
}

func TestNewTranscript(t *testing.T) {
	tr := NewTranscript()
	if tr.Len() != 0 {
		t.Fatalf("Expected empty transcript, got %d entries", tr.Len())
	}
	if len(tr.Spoken()) != 0 {
		t.Fatal("Expected no spoken entries for empty transcript")
	}
}

func TestAppendKeepsOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(entry("alice", "first"))
	tr.Append(entry("bob", "second"))

	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "first" || entries[1].Content != "second" {
		t.Fatalf("Unexpected order: %+v", entries)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(entry("alice", "original"))

	entries := tr.Entries()
	entries[0].Content = "changed"

	if got := tr.Entries()[0].Content; got != "original" {
		t.Fatalf("Transcript was mutated through copy: %q", got)
	}
}

func TestSpokenSkipsEmpty(t *testing.T) {
	tr := NewTranscript()
	tr.Append(entry("coordinator", "seed"))
	tr.Append(entry("moderator", "welcome"))
	tr.Append(entry("coordinator", ""))

	spoken := tr.Spoken()
	if len(spoken) != 2 {
		t.Fatalf("Expected 2 spoken entries, got %d", len(spoken))
	}
	if tr.Len() != 3 {
		t.Fatalf("Expected Len to count empty entries, got %d", tr.Len())
	}
}

func TestSaveAndLoad(t *testing.T) {
	tr := NewTranscript()
	tr.Append(entry("alice", "hello"))
	tr.Append(entry("bob", "hi"))

	path := filepath.Join(t.TempDir(), "session", "transcript.json")
	if err := tr.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Expected 2 entries after load, got %d", loaded.Len())
	}
	got := loaded.Entries()[1]
	want := tr.Entries()[1]
	if got.Speaker != want.Speaker || got.Content != want.Content || !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("Loaded entry mismatch: got %+v, want %+v", got, want)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
