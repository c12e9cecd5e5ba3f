package model

import "time"

// Role controls what a user may do through the shared surfaces.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// CanWrite reports whether the role may mutate sprints and stories.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleMember
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleViewer:
		return true
	}
	return false
}

// UserSettings holds per-user profile data.
type UserSettings struct {
	UserID      string    `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	StoryPrefix string    `json:"story_prefix" db:"story_prefix" validate:"omitempty,max=16,storyprefix"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AISettings are the user's story generation preferences. API keys are kept
// in the credential store, never here.
type AISettings struct {
	Provider     string `json:"provider" validate:"required,oneof=anthropic openai"`
	Model        string `json:"model" validate:"required"`
	SystemPrompt string `json:"system_prompt,omitempty" validate:"max=4000"`
}
