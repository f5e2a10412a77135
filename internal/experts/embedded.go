package experts

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var embeddedFiles embed.FS

const (
	catalogFile = "catalog.yaml"
	promptsFile = "prompts.yaml"
)

// LoadBuiltin parses the catalog compiled into the binary
func LoadBuiltin() (*Catalog, error) {
	data, err := embeddedFiles.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalog: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}

	c := newCatalog()
	c.merge(file)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("embedded catalog is invalid: %w", err)
	}
	return c, nil
}

// LoadPrompts parses the prompt templates compiled into the binary
func LoadPrompts() (Prompts, error) {
	data, err := embeddedFiles.ReadFile(promptsFile)
	if err != nil {
		return Prompts{}, fmt.Errorf("failed to read embedded prompts: %w", err)
	}

	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return Prompts{}, fmt.Errorf("embedded prompts are incomplete: %w", err)
	}
	return p, nil
}
