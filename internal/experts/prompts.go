package experts

import (
	"sort"
	"strings"
)

// Prompts are the text templates for participants and the seed message.
// Placeholders take the form {{name}}.
type Prompts struct {
	Expert       string `yaml:"expert" validate:"required"`
	Moderator    string `yaml:"moderator" validate:"required"`
	SeedTopic    string `yaml:"seed_topic" validate:"required"`
	SeedDocument string `yaml:"seed_document" validate:"required"`
}

// Render replaces every {{key}} in tmpl with vars[key]. Unknown
// placeholders are left as they are.
func Render(tmpl string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
