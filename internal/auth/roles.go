package auth

import "strings"

// Role is the application role stored on a profile.
type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// AllRoles lists the known roles from least to most privileged.
var AllRoles = []Role{RoleGuest, RoleStaff, RoleAdmin}

// Role sets used by page guards.
var (
	// AnyRole admits every authenticated identity.
	AnyRole = []Role{RoleGuest, RoleStaff, RoleAdmin}
	// RoomManagers may read and mutate rooms.
	RoomManagers = []Role{RoleAdmin, RoleStaff}
	// AdminsOnly admits admins.
	AdminsOnly = []Role{RoleAdmin}
)

// ParseRole maps a stored role value to a Role. Unknown or empty values
// resolve to RoleGuest, the least privileged role.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	default:
		return RoleGuest
	}
}

// IsValidRole reports whether value names a known role exactly.
func IsValidRole(value string) bool {
	for _, r := range AllRoles {
		if string(r) == value {
			return true
		}
	}
	return false
}

// RoleIn reports whether role is a member of allowed.
func RoleIn(role Role, allowed []Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
