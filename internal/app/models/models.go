package models

import "strings"

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin RoleType = "ADMIN"
	RoleUser  RoleType = "USER"
)

// ParseRole maps a role name case-insensitively; anything unknown or blank
// becomes RoleUser.
func ParseRole(s string) RoleType {
	switch RoleType(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (r RoleType) String() string { return string(r) }
