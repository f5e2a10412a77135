package message

import "strings"

// Role identifies the author of a message in the canonical format shared by all backends
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is the backend-neutral chat message handed to providers
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name optionally carries the display name of the speaker
	Name string `json:"name,omitempty"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SplitSystem separates system messages from the rest of the conversation.
// Multiple system messages are joined with a blank line, in order.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

// MergeConsecutive joins adjacent messages that share a role.
// Backends that require alternating turns accept the result as-is.
func MergeConsecutive(messages []Message) []Message {
	merged := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if n := len(merged); n > 0 && merged[n-1].Role == msg.Role {
			merged[n-1].Content += "\n\n" + msg.Content
			merged[n-1].Name = ""
			continue
		}
		merged = append(merged, msg)
	}
	return merged
}

// JoinContent concatenates the content of every message, used for usage estimates
func JoinContent(messages []Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}
