package auth

import "github.com/golang-jwt/jwt/v5"

// Claims carried by API access tokens. Every token is scoped to one
// workspace; calls, numbers and messages are only visible within it.
type Claims struct {
	jwt.RegisteredClaims

	WorkspaceID string `json:"workspace_id"`
	Role        Role   `json:"role"`
}

// Role names. They are part of the token contract.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleOperator   Role = "operator"
	RoleOwner      Role = "owner"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleOperator, RoleOwner, RoleSuperAdmin:
		return true
	}
	return false
}

// rank orders roles; each role can do everything the ones below it can.
func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleOwner:
		return 3
	case RoleSuperAdmin:
		return 4
	}
	return 0
}

// Allows reports whether r meets min.
func (r Role) Allows(min Role) bool {
	return r.Valid() && r.rank() >= min.rank()
}
