package enums

import "fmt"

// InviteStatus tracks the lifecycle of a backoffice invite.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"
)

var validInviteStatuses = []InviteStatus{
	InviteStatusPending,
	InviteStatusAccepted,
	InviteStatusRevoked,
	InviteStatusExpired,
}

// String implements fmt.Stringer.
func (i InviteStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InviteStatus.
func (i InviteStatus) IsValid() bool {
	for _, candidate := range validInviteStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the invite can no longer change state.
func (i InviteStatus) IsTerminal() bool {
	return i != InviteStatusPending
}

// ParseInviteStatus converts raw input into an InviteStatus.
func ParseInviteStatus(value string) (InviteStatus, error) {
	for _, candidate := range validInviteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invite status %q", value)
}
