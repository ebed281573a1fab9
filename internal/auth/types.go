package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer may watch the dashboard but not change anything.
	RoleViewer Role = "viewer"

	// RoleOperator may manage topics, publish commands and connect the session.
	RoleOperator Role = "operator"
)

// ValidRoles lists every accepted role.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors for authorisation failures.
var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrSecretEmpty  = errors.New("auth: signing secret is empty")
	ErrRoleInvalid  = errors.New("auth: unknown role")
)
