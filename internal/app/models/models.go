// Package models holds the persistent records of the tutoring center.
package models

import (
	"fmt"
	"strings"
)

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin     RoleType = "ADMIN"
	RoleTeacher   RoleType = "TEACHER"
	RoleModerator RoleType = "MODERATOR"
	RoleStudent   RoleType = "STUDENT"
)

// AllRoles lists every role known to the system
var AllRoles = []RoleType{RoleAdmin, RoleTeacher, RoleModerator, RoleStudent}

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (r RoleType) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}
