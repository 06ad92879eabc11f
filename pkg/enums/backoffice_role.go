package enums

import "fmt"

// BackofficeRole represents a backoffice permission tier.
type BackofficeRole string

const (
	RoleSuperadmin BackofficeRole = "superadmin"
	RoleAdmin      BackofficeRole = "admin"
	RoleStaff      BackofficeRole = "staff"
)

var validBackofficeRoles = []BackofficeRole{
	RoleSuperadmin,
	RoleAdmin,
	RoleStaff,
}

// roleRank is the total order superadmin > admin > staff.
var roleRank = map[BackofficeRole]int{
	RoleSuperadmin: 3,
	RoleAdmin:      2,
	RoleStaff:      1,
}

// String implements fmt.Stringer.
func (r BackofficeRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known BackofficeRole.
func (r BackofficeRole) IsValid() bool {
	for _, candidate := range validBackofficeRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// AtLeast reports whether r outranks or equals required.
func (r BackofficeRole) AtLeast(required BackofficeRole) bool {
	return roleRank[r] >= roleRank[required] && roleRank[r] > 0
}

// ParseBackofficeRole converts raw input into a BackofficeRole.
func ParseBackofficeRole(value string) (BackofficeRole, error) {
	for _, candidate := range validBackofficeRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid backoffice role %q", value)
}

// InvitableRoles lists the roles an invite may carry. Superadmin is
// bootstrap-only and never granted through an invite.
func InvitableRoles() []BackofficeRole {
	return []BackofficeRole{RoleAdmin, RoleStaff}
}
