package domain

import "strings"

// Role is the closed set of authorities a user may hold.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRoles normalises a client-supplied role list: case-insensitive,
// deduplicated, and every entry must name a known role. Validation happens
// before any store lookup, so garbage input never costs a round-trip.
func ParseRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return nil, E(KindInvalidRoles, "invalid roles provided, allowed roles are ADMIN and USER")
	}
	seen := make(map[Role]bool, 2)
	roles := make([]Role, 0, 2)
	for _, r := range raw {
		role := Role(strings.ToUpper(strings.TrimSpace(r)))
		if role != RoleAdmin && role != RoleUser {
			return nil, E(KindInvalidRoles, "invalid roles provided, allowed roles are ADMIN and USER")
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	return roles, nil
}

// RoleNames converts roles back to their wire representation.
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// User is the authoritative identity record. The auth store never hard
// deletes users; the lifecycle flags gate authentication instead.
type User struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone"`
	Roles        []Role `json:"roles"`

	AccountNonExpired     bool `json:"-"`
	AccountNonLocked      bool `json:"-"`
	CredentialsNonExpired bool `json:"-"`
	Enabled               bool `json:"-"`
}

// CanAuthenticate reports whether all lifecycle flags permit this account to
// sign in or present tokens.
func (u *User) CanAuthenticate() bool {
	return u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired && u.Enabled
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
