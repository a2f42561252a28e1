package session

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles known to the platform.
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Roles returns every valid role in display order.
func Roles() []Role {
	return []Role{RoleStudent, RoleOrganizer, RoleAdmin}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a server or user supplied role tag into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected one of: student, organizer, admin)", s)
	}
	return r, nil
}
