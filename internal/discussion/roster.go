package discussion

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateRoster checks that the coordinator comes first and is unique,
// that there is a moderator, and that ids are unique.
func ValidateRoster(roster []domain.Participant) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: roster is empty", ErrInvalidRoster)
	}
	if roster[0].Role != domain.RoleCoordinator {
		return fmt.Errorf("%w: first participant must be the coordinator, got %s", ErrInvalidRoster, roster[0].Role)
	}

	seen := make(map[string]bool, len(roster))
	coordinators, moderators := 0, 0
	for i, p := range roster {
		if p.ID == "" {
			return fmt.Errorf("%w: participant %d has no id", ErrInvalidRoster, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate participant id %q", ErrInvalidRoster, p.ID)
		}
		seen[p.ID] = true

		switch p.Role {
		case domain.RoleCoordinator:
			coordinators++
		case domain.RoleModerator:
			moderators++
		case domain.RoleExpert:
		default:
			return fmt.Errorf("%w: participant %q has unknown role %q", ErrInvalidRoster, p.ID, p.Role)
		}
	}

	if coordinators != 1 {
		return fmt.Errorf("%w: expected exactly one coordinator, got %d", ErrInvalidRoster, coordinators)
	}
	if moderators == 0 {
		return fmt.Errorf("%w: at least one moderator is required", ErrInvalidRoster)
	}
	return nil
}
