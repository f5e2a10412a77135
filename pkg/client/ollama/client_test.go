package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/message"
)

func newTestClient(t *testing.T, model string, chunks []string) (*OllamaClient, *map[string]any) {
	t.Helper()
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk + "\n"))
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewOllamaClient(domain.ProviderConfig{
		ProviderID:  domain.ProviderOllama,
		ModelID:     model,
		BaseURL:     server.URL,
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		t.Fatalf("NewOllamaClient() error: %v", err)
	}
	return client, &body
}

func TestGenerateAccumulatesStreamAndUsesEvalCounts(t *testing.T) {
	client, body := newTestClient(t, "llama3.1", []string{
		`{"model":"llama3.1","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"Keep "},"done":false}`,
		`{"model":"llama3.1","created_at":"2025-01-01T00:00:01Z","message":{"role":"assistant","content":"it simple."},"done":true,"done_reason":"stop","prompt_eval_count":42,"eval_count":4}`,
	})

	result, err := client.Generate(context.Background(), []message.Message{
		message.NewSystemMessage("You are terse."),
		message.NewUserMessage("Advice?"),
	}, domain.GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if result.Content != "Keep it simple." {
		t.Errorf("unexpected content %q", result.Content)
	}
	if result.Usage != message.NewTokenUsage(42, 4) {
		t.Errorf("Expected eval counts as usage, got %+v", result.Usage)
	}
	if result.UsageEstimated {
		t.Error("Reported counts must not be marked as estimated")
	}
	if result.CostUSD != 0 {
		t.Errorf("Expected zero cost for local model, got %v", result.CostUSD)
	}

	msgs, _ := (*body)["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("Expected system message to stay inline, got %d messages", len(msgs))
	}
	opts, _ := (*body)["options"].(map[string]any)
	if opts["num_predict"] != float64(200) || opts["temperature"] != 0.3 {
		t.Errorf("unexpected options %v", opts)
	}
}

func TestGenerateEstimatesWhenCountsMissing(t *testing.T) {
	client, _ := newTestClient(t, "llama3.1", []string{
		`{"model":"llama3.1","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"one two three"},"done":true}`,
	})

	result, err := client.Generate(context.Background(), []message.Message{
		message.NewUserMessage("count to three please"),
	}, domain.GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !result.UsageEstimated {
		t.Fatal("Expected estimated usage")
	}
	if result.Usage.PromptTokens != 5 || result.Usage.CompletionTokens != 4 {
		t.Errorf("Expected 5/4 estimated tokens, got %+v", result.Usage)
	}
}

func TestIsThinkingCapableModel(t *testing.T) {
	testCases := []struct {
		model    string
		expected bool
	}{
		{"gpt-oss:latest", true},
		{"GPT-OSS:120b", true},
		{"llama3.1:8b", false},
		{"mystery-model", false},
	}
	for _, tc := range testCases {
		if got := IsThinkingCapableModel(tc.model); got != tc.expected {
			t.Errorf("IsThinkingCapableModel(%q) = %v, expected %v", tc.model, got, tc.expected)
		}
	}
}
