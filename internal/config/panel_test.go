package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePanel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPanel(t *testing.T) {
	path := writePanel(t, `
topic: Offline-first sync
rounds: [Risks, Plan]
max_turns: 9
custom_experts:
  - name: Jo Park
    expertise: Sync protocols
    perspective: Pragmatic
  - key: ml
    name: Ravi (ML)
    expertise: Ranking
`)

	p, err := LoadPanel(path)
	if err != nil {
		t.Fatalf("LoadPanel() error: %v", err)
	}
	if p.Topic != "Offline-first sync" || p.MaxTurns != 9 || len(p.Rounds) != 2 {
		t.Errorf("unexpected panel: %+v", p)
	}
	if len(p.CustomExperts) != 2 {
		t.Fatalf("expected 2 custom experts, got %d", len(p.CustomExperts))
	}
	if p.CustomExperts[0].Key != "jo_park" {
		t.Errorf("derived key = %q, want jo_park", p.CustomExperts[0].Key)
	}
	if p.CustomExperts[1].Key != "ml" {
		t.Errorf("explicit key overwritten: %q", p.CustomExperts[1].Key)
	}
}

func TestLoadPanelErrors(t *testing.T) {
	testCases := map[string]string{
		"unknown field":  "topic: x\ncolour: blue\n",
		"expert no name": "custom_experts:\n  - expertise: x\n",
		"negative turns": "max_turns: -1\n",
		"malformed yaml": "topic: [unclosed\n",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadPanel(writePanel(t, content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadPanelEmptyFile(t *testing.T) {
	p, err := LoadPanel(writePanel(t, ""))
	if err != nil {
		t.Fatalf("empty panel should load, got %v", err)
	}
	if p.Topic != "" || len(p.CustomExperts) != 0 {
		t.Errorf("expected zero panel, got %+v", p)
	}
}

func TestPanelSchema(t *testing.T) {
	data, err := PanelSchema()
	if err != nil {
		t.Fatalf("PanelSchema() error: %v", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	for _, field := range []string{`"custom_experts"`, `"max_turns"`, `"verbosity"`, `"expertise"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("schema is missing %s", field)
		}
	}
}
