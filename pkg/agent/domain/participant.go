package domain

// ParticipantRole decides how the scheduler treats a roster member
type ParticipantRole string

const (
	RoleExpert    ParticipantRole = "expert"
	RoleModerator ParticipantRole = "moderator"
	// RoleCoordinator never calls a provider. Its first turn carries the seed
	// message and every later turn is empty.
	RoleCoordinator ParticipantRole = "coordinator"
)

// Participant is one roster member, built once per session
type Participant struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	SystemPrompt string          `json:"-"`
	Role         ParticipantRole `json:"role"`
	// ProviderID binds the participant to a backend. Empty means the manager default.
	ProviderID string `json:"provider_id,omitempty"`
}

// Generates reports whether the participant's turns call a provider
func (p Participant) Generates() bool {
	return p.Role != RoleCoordinator
}
