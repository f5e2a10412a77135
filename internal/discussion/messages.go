package discussion

import (
	"fmt"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
	"github.com/fpt/go-expert-panel/pkg/message"
)

// ContinuePrompt closes a history that would otherwise end on the
// participant's own turn
const ContinuePrompt = "Please continue the discussion."

// BuildMessages renders the transcript from p's point of view. p's own
// entries become assistant turns and everyone else's become user turns
// prefixed with the speaker name. Empty entries are dropped and adjacent
// turns of the same role are merged. The result always ends on a user turn.
func BuildMessages(p domain.Participant, entries []state.Entry) []message.Message {
	history := make([]message.Message, 0, len(entries)+1)
	for _, e := range entries {
		if e.IsEmpty() {
			continue
		}
		if e.SpeakerID == p.ID {
			history = append(history, message.NewAssistantMessage(e.Content))
			continue
		}
		msg := message.NewUserMessage(fmt.Sprintf("%s: %s", e.Speaker, e.Content))
		msg.Name = e.Speaker
		history = append(history, msg)
	}

	history = message.MergeConsecutive(history)
	if n := len(history); n == 0 || history[n-1].Role != message.RoleUser {
		history = append(history, message.NewUserMessage(ContinuePrompt))
	}

	msgs := make([]message.Message, 0, len(history)+1)
	if p.SystemPrompt != "" {
		msgs = append(msgs, message.NewSystemMessage(p.SystemPrompt))
	}
	return append(msgs, history...)
}
