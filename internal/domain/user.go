package domain

import "time"

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleClient  Role = "CLIENT"
	RoleAgent   Role = "AGENT"
	RoleManager Role = "MANAGER"
)

// ParseRole validates a role value crossing the HTTP boundary. Internal
// code only ever sees one of the three constants.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleClient, RoleAgent, RoleManager:
		return Role(value), true
	default:
		return "", false
	}
}

// User is a locally provisioned account backed by an external identity.
type User struct {
	ID                 string
	ExternalIdentityID string
	Email              string
	DisplayName        *string
	Role               Role
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
