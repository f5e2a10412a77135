package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/fpt/go-expert-panel/internal/experts"
)

// Panel is the YAML file passed with --config. Every field is optional and
// command-line flags take precedence.
type Panel struct {
	Topic         string             `yaml:"topic,omitempty" jsonschema:"description=Discussion topic"`
	Document      string             `yaml:"document,omitempty" jsonschema:"description=Path of a text document the panel reviews"`
	Domain        string             `yaml:"domain,omitempty" jsonschema:"description=Expert domain key, e.g. technology"`
	Experts       []string           `yaml:"experts,omitempty" jsonschema:"description=Expert keys picked from the domain, in speaking order"`
	CustomExperts []experts.Template `yaml:"custom_experts,omitempty" jsonschema:"description=Experts defined inline; they replace domain experts"`
	Rounds        []string           `yaml:"rounds,omitempty" jsonschema:"description=Round titles for the moderator agenda"`
	MaxTurns      int                `yaml:"max_turns,omitempty" jsonschema:"minimum=1,description=Total scheduled turns"`
	Provider      string             `yaml:"provider,omitempty" jsonschema:"enum=openai,enum=anthropic,enum=gemini,enum=ollama"`
	Verbosity     string             `yaml:"verbosity,omitempty" jsonschema:"enum=concise,enum=normal,enum=verbose"`
}

// LoadPanel reads and normalises a panel file. Custom experts without a key
// get one derived from their name.
func LoadPanel(path string) (*Panel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panel file: %w", err)
	}

	var p Panel
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse panel file %s: %w", path, err)
	}

	for i := range p.CustomExperts {
		e := &p.CustomExperts[i]
		if e.Key == "" {
			e.Key = ExpertKey(e.Name)
		}
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("custom expert %d in %s: %w", i+1, path, err)
		}
	}
	if p.MaxTurns < 0 {
		return nil, fmt.Errorf("max_turns must be positive, got %d", p.MaxTurns)
	}
	return &p, nil
}

// ExpertKey derives a key from a display name: "Jo Park" becomes "jo_park"
func ExpertKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// PanelSchema returns the JSON Schema of the panel file
func PanelSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:              "yaml",
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
	}
	schema := r.Reflect(&Panel{})
	schema.Title = "Expert panel configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
