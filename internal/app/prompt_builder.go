package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fpt/go-expert-panel/internal/experts"
)

// Verbosity levels
const (
	VerbosityConcise = "concise"
	VerbosityNormal  = "normal"
	VerbosityVerbose = "verbose"
)

var lengthInstructions = map[string]string{
	VerbosityConcise: "Keep responses VERY brief (50-100 words max). Get straight to the point.",
	VerbosityNormal:  "Keep responses focused (100-%d words). Be clear but thorough.",
	VerbosityVerbose: "Provide detailed analysis (%d-400 words). Include examples and nuance.",
}

var formatInstructions = map[string]string{
	"bullet_points": "Use bullet points for key insights. No long paragraphs.",
	"paragraph":     "Use 1-2 clear paragraphs.",
	"detailed":      "Provide comprehensive analysis with sections and examples.",
}

var moderatorStyles = map[string]string{
	VerbosityConcise: "Keep introductions VERY brief (1-2 sentences). Move quickly between rounds.",
	VerbosityNormal:  "Provide clear but concise round introductions. Keep the pace moving.",
	VerbosityVerbose: "Thoroughly introduce each round and synthesize discussions in detail.",
}

var defaultRounds = map[string][]string{
	VerbosityConcise: {
		"Quick Assessment",
		"Key Issues",
		"Recommendations",
	},
	VerbosityNormal: {
		"Initial Analysis",
		"Key Considerations",
		"Potential Issues",
		"Recommendations",
		"Implementation Strategy",
		"Final Thoughts",
	},
	VerbosityVerbose: {
		"Comprehensive Analysis",
		"Detailed Examination",
		"Strengths and Opportunities",
		"Challenges and Risks",
		"Strategic Recommendations",
		"Implementation Roadmap",
		"Long-term Considerations",
		"Final Synthesis",
	},
}

// PromptOptions shape the participant prompts
type PromptOptions struct {
	Verbosity         string
	ResponseFormat    string
	MaxResponseLength int
	DiscussionStyle   string
	EnableInteraction bool
}

// PromptBuilder renders participant system prompts and the seed message
type PromptBuilder struct {
	prompts experts.Prompts
	opts    PromptOptions
}

// NewPromptBuilder creates a builder. Unknown verbosity falls back to normal.
func NewPromptBuilder(prompts experts.Prompts, opts PromptOptions) *PromptBuilder {
	if _, ok := lengthInstructions[opts.Verbosity]; !ok {
		opts.Verbosity = VerbosityNormal
	}
	if _, ok := formatInstructions[opts.ResponseFormat]; !ok {
		opts.ResponseFormat = "paragraph"
	}
	return &PromptBuilder{prompts: prompts, opts: opts}
}

// Verbosity returns the effective verbosity
func (b *PromptBuilder) Verbosity() string {
	return b.opts.Verbosity
}

// ExpertPrompt renders the system prompt of one expert
func (b *PromptBuilder) ExpertPrompt(t experts.Template, topic string) string {
	length := lengthInstructions[b.opts.Verbosity]
	if strings.Contains(length, "%d") {
		length = fmt.Sprintf(length, b.opts.MaxResponseLength)
	}

	interaction := "Focus on your own expert analysis"
	if b.opts.EnableInteraction {
		interaction = "Build on or respectfully disagree with other experts"
	}

	return experts.Render(b.prompts.Expert, map[string]string{
		"name":                    t.Name,
		"expertise":               t.Expertise,
		"background":              t.Background,
		"perspective":             t.Perspective,
		"topic":                   topic,
		"verbosity":               b.opts.Verbosity,
		"verbosity_upper":         strings.ToUpper(b.opts.Verbosity),
		"length_instruction":      length,
		"format_instruction":      formatInstructions[b.opts.ResponseFormat],
		"interaction_instruction": interaction,
		"discussion_style":        b.opts.DiscussionStyle,
		"max_length":              strconv.Itoa(b.opts.MaxResponseLength),
	})
}

// ModeratorPrompt renders the moderator prompt with the numbered agenda
func (b *PromptBuilder) ModeratorPrompt(topic string, rounds []string) string {
	lines := make([]string, len(rounds))
	for i, r := range rounds {
		lines[i] = fmt.Sprintf("%d. %s", i+1, r)
	}

	concise := b.opts.Verbosity == VerbosityConcise
	clarify := "Ask clarifying questions when needed"
	synthesis := "Synthesize key points and identify areas of agreement/disagreement"
	if concise {
		clarify = "Keep discussion moving quickly"
		synthesis = "Quick summaries only"
	}
	participation := "Ensure quick responses"
	if len(rounds) > 3 {
		participation = "Draw out quiet participants"
	}

	return experts.Render(b.prompts.Moderator, map[string]string{
		"topic":                     topic,
		"round_count":               strconv.Itoa(len(rounds)),
		"rounds":                    strings.Join(lines, "\n"),
		"verbosity":                 b.opts.Verbosity,
		"verbosity_upper":           strings.ToUpper(b.opts.Verbosity),
		"moderator_style":           moderatorStyles[b.opts.Verbosity],
		"clarify_instruction":       clarify,
		"synthesis_instruction":     synthesis,
		"participation_instruction": participation,
	})
}

// SeedMessage is what the coordinator opens the discussion with
func (b *PromptBuilder) SeedMessage(topic, document string) string {
	if document != "" {
		return experts.Render(b.prompts.SeedDocument, map[string]string{
			"topic":    topic,
			"document": document,
		})
	}
	return experts.Render(b.prompts.SeedTopic, map[string]string{"topic": topic})
}

// DefaultRounds returns the agenda used when nothing else is configured
func DefaultRounds(verbosity string) []string {
	rounds, ok := defaultRounds[verbosity]
	if !ok {
		rounds = defaultRounds[VerbosityNormal]
	}
	return append([]string(nil), rounds...)
}

// ResolveRounds picks the agenda: configured custom rounds first, then the
// rounds of the panel or sample, then the verbosity default
func ResolveRounds(custom, panel []string, verbosity string) []string {
	switch {
	case len(custom) > 0:
		return append([]string(nil), custom...)
	case len(panel) > 0:
		return append([]string(nil), panel...)
	default:
		return DefaultRounds(verbosity)
	}
}
