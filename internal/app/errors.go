package app

import (
	"fmt"

	"github.com/fpt/go-expert-panel/pkg/agent/state"
)

// Stage names where a session can fail
const (
	StagePanel      = "panel"
	StageDiscussion = "discussion"
	StageOutput     = "output"
)

// SessionError is the single structured failure of a session. Transcript
// holds whatever the discussion produced before the failure.
type SessionError struct {
	SessionID  string
	Stage      string
	Transcript []state.Entry
	Err        error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s failed during %s: %v", e.SessionID, e.Stage, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Incomplete reports whether a partial transcript is attached
func (e *SessionError) Incomplete() bool {
	return len(e.Transcript) > 0
}
