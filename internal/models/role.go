package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of authorization roles a principal can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleStudent Role = "student"
)

// ErrUnknownRole is returned when a value outside the closed role set is parsed.
var ErrUnknownRole = errors.New("unknown role")

// AllRoles lists every valid role.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleParent, RoleStudent}

// ParseRole converts raw into a Role, rejecting anything outside the closed set.
// Matching is exact: "Admin" or " admin" are rejected.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleParent, RoleStudent:
		return true
	}
	return false
}

// HomePath is where a logged-in principal lands after visiting an auth page.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleParent:
		return "/parent"
	case RoleStudent:
		return "/student"
	}
	return "/"
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// UnmarshalText rejects unknown roles when decoding JSON or form input.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan rejects unknown roles read from the database.
func (r *Role) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported type %T for Role", src)
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
	return string(r), nil
}

// RoleSet is an immutable set of permitted roles.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a set from roles. Unknown roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if r.Valid() {
			set.roles[r] = struct{}{}
		}
	}
	return set
}

// Contains reports whether r is permitted.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// String renders the set for logs.
func (s RoleSet) String() string {
	parts := make([]string, 0, len(s.roles))
	for _, r := range AllRoles {
		if s.Contains(r) {
			parts = append(parts, string(r))
		}
	}
	return strings.Join(parts, ",")
}
