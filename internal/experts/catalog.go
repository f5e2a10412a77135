// Package experts holds the expert templates, sample panels and prompt
// templates used to build a discussion roster.
package experts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Template describes one expert persona
type Template struct {
	Key         string `yaml:"key,omitempty" json:"key" validate:"required"`
	Name        string `yaml:"name" json:"name" validate:"required"`
	Expertise   string `yaml:"expertise" json:"expertise" validate:"required"`
	Perspective string `yaml:"perspective,omitempty" json:"perspective,omitempty"`
	Background  string `yaml:"background,omitempty" json:"background,omitempty"`
}

// ShortName drops a parenthesised role suffix: "Sarah Chen (UX Designer)" becomes "Sarah Chen"
func (t Template) ShortName() string {
	if i := strings.Index(t.Name, "("); i > 0 {
		return strings.TrimSpace(t.Name[:i])
	}
	return strings.TrimSpace(t.Name)
}

// Domain is an ordered set of experts
type Domain struct {
	Key         string     `yaml:"key" validate:"required"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Experts     []Template `yaml:"experts" validate:"dive"`
}

// Sample is a ready-made panel with its own agenda
type Sample struct {
	Key     string   `yaml:"key" validate:"required"`
	Domain  string   `yaml:"domain" validate:"required"`
	Experts []string `yaml:"experts" validate:"min=1"`
	Focus   string   `yaml:"focus" validate:"required"`
	Rounds  []string `yaml:"rounds" validate:"min=1"`
}

// Topic is the default discussion topic of the sample
func (s Sample) Topic() string {
	return "Review of " + s.Focus
}

// File is the on-disk shape of a catalog file
type File struct {
	Domains []Domain `yaml:"domains"`
	Samples []Sample `yaml:"samples"`
}

// Catalog keeps domains and samples in the order they were first seen
type Catalog struct {
	domains []Domain
	samples []Sample
}

func newCatalog() *Catalog {
	return &Catalog{}
}

// merge adds the file's domains and samples. Entries with a known key
// replace the existing one in place.
func (c *Catalog) merge(f File) {
	for _, d := range f.Domains {
		if i := c.domainIndex(d.Key); i >= 0 {
			c.domains[i] = d
		} else {
			c.domains = append(c.domains, d)
		}
	}
	for _, s := range f.Samples {
		if i := c.sampleIndex(s.Key); i >= 0 {
			c.samples[i] = s
		} else {
			c.samples = append(c.samples, s)
		}
	}
}

func (c *Catalog) domainIndex(key string) int {
	for i, d := range c.domains {
		if d.Key == key {
			return i
		}
	}
	return -1
}

func (c *Catalog) sampleIndex(key string) int {
	for i, s := range c.samples {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// Validate checks field constraints and that every sample refers to a
// known domain and to experts of that domain
func (c *Catalog) Validate() error {
	for _, d := range c.domains {
		if err := validate.Struct(d); err != nil {
			return fmt.Errorf("domain %q: %w", d.Key, err)
		}
	}
	for _, s := range c.samples {
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("sample %q: %w", s.Key, err)
		}
		d, ok := c.Domain(s.Domain)
		if !ok {
			return fmt.Errorf("sample %q: unknown domain %q", s.Key, s.Domain)
		}
		for _, key := range s.Experts {
			if _, ok := d.Expert(key); !ok {
				return fmt.Errorf("sample %q: expert %q is not in domain %q", s.Key, key, s.Domain)
			}
		}
	}
	return nil
}

// Domains returns all domains in catalog order
func (c *Catalog) Domains() []Domain {
	out := make([]Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// DomainKeys returns the domain keys in catalog order
func (c *Catalog) DomainKeys() []string {
	keys := make([]string, len(c.domains))
	for i, d := range c.domains {
		keys[i] = d.Key
	}
	return keys
}

func (c *Catalog) Domain(key string) (Domain, bool) {
	if i := c.domainIndex(key); i >= 0 {
		return c.domains[i], true
	}
	return Domain{}, false
}

// Expert finds a template by key in any domain
func (c *Catalog) Expert(key string) (Template, bool) {
	for _, d := range c.domains {
		if t, ok := d.Expert(key); ok {
			return t, true
		}
	}
	return Template{}, false
}

func (c *Catalog) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

func (c *Catalog) SampleKeys() []string {
	keys := make([]string, len(c.samples))
	for i, s := range c.samples {
		keys[i] = s.Key
	}
	return keys
}

func (c *Catalog) Sample(key string) (Sample, bool) {
	if i := c.sampleIndex(key); i >= 0 {
		return c.samples[i], true
	}
	return Sample{}, false
}

// Expert finds a template by key within the domain
func (d Domain) Expert(key string) (Template, bool) {
	for _, t := range d.Experts {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

// Select picks the panel from a domain: the named experts in the given
// order when keys is non-empty, otherwise the first count experts.
// A count of zero or less takes the whole domain.
func (c *Catalog) Select(domainKey string, keys []string, count int) ([]Template, error) {
	d, ok := c.Domain(domainKey)
	if !ok {
		return nil, fmt.Errorf("unknown domain %q (available: %s)", domainKey, strings.Join(c.DomainKeys(), ", "))
	}

	if len(keys) > 0 {
		panel := make([]Template, 0, len(keys))
		for _, key := range keys {
			t, ok := d.Expert(key)
			if !ok {
				return nil, fmt.Errorf("expert %q is not in domain %q", key, domainKey)
			}
			panel = append(panel, t)
		}
		return panel, nil
	}

	if count <= 0 || count > len(d.Experts) {
		count = len(d.Experts)
	}
	panel := make([]Template, count)
	copy(panel, d.Experts[:count])
	return panel, nil
}

// Load returns the built-in catalog merged with any extra catalog files or
// directories. Later paths override earlier ones.
func Load(extraPaths ...string) (*Catalog, error) {
	c, err := LoadBuiltin()
	if err != nil {
		return nil, err
	}

	for _, path := range extraPaths {
		if path == "" {
			continue
		}
		files, err := loadFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog from %s: %w", path, err)
		}
		for _, f := range files {
			c.merge(f)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFromPath(path string) ([]File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path %s: %w", path, err)
	}

	if !info.IsDir() {
		f, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []File{f}, nil
	}

	var files []File
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(d.Name()) {
			return nil
		}
		f, err := loadFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func loadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return f, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
