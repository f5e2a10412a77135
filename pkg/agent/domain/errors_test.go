package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestProviderErrorKinds(t *testing.T) {
	backend := errors.New("rate limited")
	callErr := NewCallError("openai", backend)

	wrapped := fmt.Errorf("turn 3: %w", callErr)
	if !IsCallError(wrapped) {
		t.Fatal("Expected wrapped error to be a call error")
	}
	if IsUnavailable(wrapped) {
		t.Fatal("Call error must not be reported as unavailable")
	}
	if !errors.Is(wrapped, backend) {
		t.Fatal("Expected backend error to be reachable through Unwrap")
	}
	if got := callErr.Error(); got != "provider_call_error (openai): openai API error: rate limited" {
		t.Errorf("unexpected message %q", got)
	}

	if !IsUnavailable(NewUnavailableError("no providers")) {
		t.Error("Expected unavailable error")
	}
	if !IsInitError(NewInitError("gemini", errors.New("missing key"))) {
		t.Error("Expected init error")
	}
}

func TestProviderConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr bool
	}{
		{"valid openai", ProviderConfig{ProviderID: "openai", APIKey: "k", ModelID: "gpt-4o", Temperature: 0.7, MaxTokens: 4000}, false},
		{"ollama without key", ProviderConfig{ProviderID: "ollama", ModelID: "llama3", Temperature: 0, MaxTokens: 100}, false},
		{"missing key", ProviderConfig{ProviderID: "anthropic", ModelID: "claude", Temperature: 1, MaxTokens: 10}, true},
		{"temperature too high", ProviderConfig{ProviderID: "openai", APIKey: "k", ModelID: "gpt-4o", Temperature: 2.5, MaxTokens: 10}, true},
		{"negative temperature", ProviderConfig{ProviderID: "openai", APIKey: "k", ModelID: "gpt-4o", Temperature: -0.1, MaxTokens: 10}, true},
		{"zero max tokens", ProviderConfig{ProviderID: "openai", APIKey: "k", ModelID: "gpt-4o", Temperature: 1, MaxTokens: 0}, true},
		{"unknown provider", ProviderConfig{ProviderID: "cohere", APIKey: "k", ModelID: "x", Temperature: 1, MaxTokens: 10}, true},
		{"bad base url", ProviderConfig{ProviderID: "openai", APIKey: "k", ModelID: "gpt-4o", BaseURL: "not a url", Temperature: 1, MaxTokens: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
