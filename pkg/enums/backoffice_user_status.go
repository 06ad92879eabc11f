package enums

import "fmt"

// BackofficeUserStatus marks whether a backoffice user may sign in.
type BackofficeUserStatus string

const (
	BackofficeUserActive    BackofficeUserStatus = "active"
	BackofficeUserSuspended BackofficeUserStatus = "suspended"
)

var validBackofficeUserStatuses = []BackofficeUserStatus{
	BackofficeUserActive,
	BackofficeUserSuspended,
}

// String implements fmt.Stringer.
func (s BackofficeUserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BackofficeUserStatus.
func (s BackofficeUserStatus) IsValid() bool {
	for _, candidate := range validBackofficeUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBackofficeUserStatus converts raw input into a BackofficeUserStatus.
func ParseBackofficeUserStatus(value string) (BackofficeUserStatus, error) {
	for _, candidate := range validBackofficeUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid backoffice user status %q", value)
}
