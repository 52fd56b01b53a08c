package retrieval

import "fmt"

// Role is the closed set of requester privilege levels controlling passage
// visibility. Unknown roles are rejected, never defaulted.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleCEO      Role = "ceo"
	RoleAdmin    Role = "admin"
)

// Roles lists every valid role, in stable order.
var Roles = []Role{RoleEmployee, RoleHR, RoleCEO, RoleAdmin}

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleCEO, RoleAdmin:
		return true
	}
	return false
}

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a wire string into a Role. An unrecognized value
// returns ErrInvalidRole; callers must not fall back to a default role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidRole)
	}
	return role, nil
}
