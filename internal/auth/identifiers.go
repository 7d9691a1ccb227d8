package auth

import (
	"fmt"
	"strings"
)

// PrefixRole marks Casbin subjects that name a role.
const PrefixRole = "role:"

// RoleSubject creates a Casbin role subject with the standard prefix
// Example: RoleSubject(RoleStaff) → "role:staff"
func RoleSubject(role Role) string {
	return PrefixRole + string(role)
}

// ExtractRole parses a Casbin role subject back into a Role.
func ExtractRole(subject string) (Role, error) {
	if !strings.HasPrefix(subject, PrefixRole) {
		return "", fmt.Errorf("invalid role subject: %s (expected prefix %s)", subject, PrefixRole)
	}
	return ParseRole(strings.TrimPrefix(subject, PrefixRole)), nil
}
