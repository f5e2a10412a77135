package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings with environment variables read through getenv
func ApplyEnv(s *Settings, getenv func(string) string) error {
	for id, key := range apiKeyEnv {
		if v := getenv(key); v != "" {
			s.Providers.Backend(id).APIKey = v
		}
	}

	setString(getenv, "PRIMARY_PROVIDER", &s.Providers.Primary)
	setString(getenv, "OPENAI_MODEL", &s.Providers.OpenAI.Model)
	setString(getenv, "OPENAI_BASE_URL", &s.Providers.OpenAI.BaseURL)
	setString(getenv, "ANTHROPIC_MODEL", &s.Providers.Anthropic.Model)
	setString(getenv, "GEMINI_MODEL", &s.Providers.Gemini.Model)
	setString(getenv, "OLLAMA_MODEL", &s.Providers.Ollama.Model)
	if v := getenv("OLLAMA_HOST"); v != "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		s.Providers.Ollama.BaseURL = v
		s.Providers.Ollama.Enabled = true
	}

	if err := setFloat(getenv, "TEMPERATURE", &s.Generation.Temperature); err != nil {
		return err
	}
	for key, dst := range map[string]*int{
		"MAX_TOKENS":           &s.Generation.MaxTokens,
		"MAX_ROUNDS":           &s.Discussion.MaxRounds,
		"DEFAULT_EXPERT_COUNT": &s.Discussion.DefaultExpertCount,
		"MAX_RESPONSE_LENGTH":  &s.Discussion.MaxResponseLength,
	} {
		if err := setInt(getenv, key, dst); err != nil {
			return err
		}
	}
	if err := setBool(getenv, "ENABLE_EXPERT_INTERACTION", &s.Discussion.EnableExpertInteraction); err != nil {
		return err
	}
	if err := setBool(getenv, "WRITE_METRICS", &s.Output.WriteMetrics); err != nil {
		return err
	}

	setString(getenv, "VERBOSITY", &s.Discussion.Verbosity)
	setString(getenv, "RESPONSE_FORMAT", &s.Discussion.ResponseFormat)
	setString(getenv, "DISCUSSION_STYLE", &s.Discussion.DiscussionStyle)
	if v := getenv("CUSTOM_ROUNDS"); v != "" {
		s.Discussion.CustomRounds = SplitList(v)
	}
	setString(getenv, "OUTPUT_DIR", &s.Output.Dir)
	setString(getenv, "LOG_LEVEL", &s.LogLevel)

	return nil
}

// Load reads the settings file and applies the process environment
func Load(settingsPath string) (*Settings, error) {
	s, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(s, os.Getenv); err != nil {
		return nil, err
	}
	return s, nil
}

// SplitList splits a comma-separated list, dropping blanks
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setFloat(getenv func(string) string, key string, dst *float64) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}

func setBool(getenv func(string) string, key string, dst *bool) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
