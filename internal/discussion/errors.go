package discussion

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRoster = errors.New("invalid roster")
	ErrInvalidConfig = errors.New("invalid scheduler config")
	ErrAlreadyRun    = errors.New("scheduler has already run")
)

// TurnError reports the turn on which a run failed
type TurnError struct {
	Turn          int
	ParticipantID string
	Speaker       string
	Err           error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d (%s) failed: %v", e.Turn, e.Speaker, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
