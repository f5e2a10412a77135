package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/client"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
)

// Default discussion limits
const (
	DefaultMaxRounds         = 8
	DefaultExpertCount       = 5
	DefaultMaxResponseLength = 200
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 4000
)

const settingsDirName = ".expertpanel"

// Settings represents the main application settings
type Settings struct {
	Providers  ProviderSettings   `json:"providers"`
	Generation GenerationSettings `json:"generation"`
	Discussion DiscussionSettings `json:"discussion"`
	Output     OutputSettings     `json:"output"`
	// CatalogPaths are extra expert catalog files or directories
	CatalogPaths []string `json:"catalog_paths,omitempty"`
	LogLevel     string   `json:"log_level" validate:"oneof=debug info warn error"`
}

// ProviderSettings selects the primary backend and configures each one
type ProviderSettings struct {
	Primary   string          `json:"primary" validate:"oneof=openai anthropic gemini ollama"`
	OpenAI    BackendSettings `json:"openai"`
	Anthropic BackendSettings `json:"anthropic"`
	Gemini    BackendSettings `json:"gemini"`
	Ollama    BackendSettings `json:"ollama"`
}

// BackendSettings configures one backend. API keys only come from the environment.
type BackendSettings struct {
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`
	APIKey  string `json:"-"`
	// Enabled registers a keyless backend (Ollama) even when it is not the primary
	Enabled bool `json:"enabled,omitempty"`
}

// GenerationSettings are the default per-call parameters
type GenerationSettings struct {
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gt=0"`
}

// DiscussionSettings shape the panel and its prompts
type DiscussionSettings struct {
	// MaxRounds is the scheduler turn ceiling
	MaxRounds               int      `json:"max_rounds" validate:"gt=0"`
	DefaultExpertCount      int      `json:"default_expert_count" validate:"gt=0"`
	Verbosity               string   `json:"verbosity" validate:"oneof=concise normal verbose"`
	ResponseFormat          string   `json:"response_format" validate:"oneof=bullet_points paragraph detailed"`
	MaxResponseLength       int      `json:"max_response_length" validate:"gt=0"`
	DiscussionStyle         string   `json:"discussion_style" validate:"required"`
	EnableExpertInteraction bool     `json:"enable_expert_interaction"`
	CustomRounds            []string `json:"custom_rounds,omitempty"`
}

// OutputSettings control where session files go
type OutputSettings struct {
	Dir          string `json:"dir" validate:"required"`
	WriteMetrics bool   `json:"write_metrics"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadSettings loads application settings from a JSON file.
// With an empty path the usual locations are searched and built-in
// defaults are used when no file exists.
func LoadSettings(configPath string) (*Settings, error) {
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			return GetDefaultSettings(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	// fields missing from the file keep their defaults
	settings := GetDefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	applyDefaults(settings)
	return settings, nil
}

// SaveSettings saves application settings to a JSON file
func SaveSettings(configPath string, settings *Settings) error {
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			configPath = filepath.Join(settingsDirName, "settings.json")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	pkgLogger.NewComponentLogger("settings").InfoWithIcon("📝", "Settings saved", "path", configPath)
	return nil
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Providers: ProviderSettings{
			Primary:   domain.ProviderAnthropic,
			OpenAI:    BackendSettings{Model: client.DefaultModel(domain.ProviderOpenAI)},
			Anthropic: BackendSettings{Model: client.DefaultModel(domain.ProviderAnthropic)},
			Gemini:    BackendSettings{Model: client.DefaultModel(domain.ProviderGemini)},
			Ollama: BackendSettings{
				Model:   client.DefaultModel(domain.ProviderOllama),
				BaseURL: "http://localhost:11434",
			},
		},
		Generation: GenerationSettings{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Discussion: DiscussionSettings{
			MaxRounds:               DefaultMaxRounds,
			DefaultExpertCount:      DefaultExpertCount,
			Verbosity:               "normal",
			ResponseFormat:          "paragraph",
			MaxResponseLength:       DefaultMaxResponseLength,
			DiscussionStyle:         "formal",
			EnableExpertInteraction: true,
		},
		Output: OutputSettings{
			Dir:          "outputs",
			WriteMetrics: true,
		},
		LogLevel: "info",
	}
}

// applyDefaults fills fields that were explicitly emptied in the file
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.Providers.Primary == "" {
		settings.Providers.Primary = defaults.Providers.Primary
	}
	for _, b := range []struct{ got, def *BackendSettings }{
		{&settings.Providers.OpenAI, &defaults.Providers.OpenAI},
		{&settings.Providers.Anthropic, &defaults.Providers.Anthropic},
		{&settings.Providers.Gemini, &defaults.Providers.Gemini},
		{&settings.Providers.Ollama, &defaults.Providers.Ollama},
	} {
		if b.got.Model == "" {
			b.got.Model = b.def.Model
		}
	}
	if settings.Generation.MaxTokens == 0 {
		settings.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if settings.Discussion.MaxRounds == 0 {
		settings.Discussion.MaxRounds = defaults.Discussion.MaxRounds
	}
	if settings.Discussion.DefaultExpertCount == 0 {
		settings.Discussion.DefaultExpertCount = defaults.Discussion.DefaultExpertCount
	}
	if settings.Discussion.Verbosity == "" {
		settings.Discussion.Verbosity = defaults.Discussion.Verbosity
	}
	if settings.Discussion.ResponseFormat == "" {
		settings.Discussion.ResponseFormat = defaults.Discussion.ResponseFormat
	}
	if settings.Discussion.MaxResponseLength == 0 {
		settings.Discussion.MaxResponseLength = defaults.Discussion.MaxResponseLength
	}
	if settings.Discussion.DiscussionStyle == "" {
		settings.Discussion.DiscussionStyle = defaults.Discussion.DiscussionStyle
	}
	if settings.Output.Dir == "" {
		settings.Output.Dir = defaults.Output.Dir
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	// the primary may lack a key; the manager falls back to any usable backend
	if len(settings.ProviderConfigs()) == 0 {
		return domain.NewUnavailableError(fmt.Sprintf(
			"no usable provider: set one of %s, %s or %s, or enable ollama",
			apiKeyEnv[domain.ProviderOpenAI], apiKeyEnv[domain.ProviderAnthropic], apiKeyEnv[domain.ProviderGemini]))
	}

	return nil
}

// Backend returns the settings of the named backend
func (p *ProviderSettings) Backend(id string) *BackendSettings {
	switch id {
	case domain.ProviderOpenAI:
		return &p.OpenAI
	case domain.ProviderAnthropic:
		return &p.Anthropic
	case domain.ProviderGemini:
		return &p.Gemini
	case domain.ProviderOllama:
		return &p.Ollama
	default:
		return &BackendSettings{}
	}
}

// ProviderConfigs returns one config per usable backend, primary first.
// Cloud backends are usable when they have an API key. Ollama is used
// when it is the primary or enabled.
func (s *Settings) ProviderConfigs() []domain.ProviderConfig {
	order := []string{s.Providers.Primary}
	for _, id := range []string{domain.ProviderOpenAI, domain.ProviderAnthropic, domain.ProviderGemini, domain.ProviderOllama} {
		if id != s.Providers.Primary {
			order = append(order, id)
		}
	}

	configs := make([]domain.ProviderConfig, 0, len(order))
	for _, id := range order {
		b := s.Providers.Backend(id)
		switch {
		case id == domain.ProviderOllama:
			if id != s.Providers.Primary && !b.Enabled {
				continue
			}
		case b.APIKey == "":
			continue
		}
		configs = append(configs, domain.ProviderConfig{
			ProviderID:  id,
			APIKey:      b.APIKey,
			ModelID:     b.Model,
			BaseURL:     b.BaseURL,
			Temperature: s.Generation.Temperature,
			MaxTokens:   s.Generation.MaxTokens,
		})
	}
	return configs
}

// Sanitized returns the settings as a generic map with API keys masked
func (s *Settings) Sanitized() map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}

	providers, _ := out["providers"].(map[string]any)
	for _, id := range []string{domain.ProviderOpenAI, domain.ProviderAnthropic, domain.ProviderGemini} {
		backend, ok := providers[id].(map[string]any)
		if !ok {
			continue
		}
		if s.Providers.Backend(id).APIKey != "" {
			backend["api_key"] = "***"
		}
	}
	return out
}

// findSettingsFile searches for settings.json in order of preference:
// 1. .expertpanel/settings.json in current directory
// 2. $HOME/.expertpanel/settings.json
// Returns empty string if none found
func findSettingsFile() string {
	currentDirPath := filepath.Join(settingsDirName, "settings.json")
	if _, err := os.Stat(currentDirPath); err == nil {
		return currentDirPath
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDirPath := filepath.Join(homeDir, settingsDirName, "settings.json")
		if _, err := os.Stat(homeDirPath); err == nil {
			return homeDirPath
		}
	}

	return ""
}

// DefaultSettingsPath is where `init` writes when no path is given
func DefaultSettingsPath() string {
	return filepath.Join(settingsDirName, "settings.json")
}
