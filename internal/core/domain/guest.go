package domain

import (
	"fmt"
	"strings"
	"time"
)

// GuestStatus enumerates the RSVP states a guest can be in.
type GuestStatus string

const (
	// GuestStatusPending means the guest has not answered the invitation yet.
	GuestStatusPending GuestStatus = "pending"
	// GuestStatusConfirmed means the guest confirmed attendance.
	GuestStatusConfirmed GuestStatus = "confirmed"
	// GuestStatusAbsent means the guest declined the invitation.
	GuestStatusAbsent GuestStatus = "absent"
)

// ParseGuestStatus validates a raw status value at the boundary. Empty input
// resolves to the pending default.
func ParseGuestStatus(raw string) (GuestStatus, error) {
	switch GuestStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return GuestStatusPending, nil
	case GuestStatusPending:
		return GuestStatusPending, nil
	case GuestStatusConfirmed:
		return GuestStatusConfirmed, nil
	case GuestStatusAbsent:
		return GuestStatusAbsent, nil
	default:
		return "", fmt.Errorf("invalid guest status %q", raw)
	}
}

// IsValid reports whether the status is one of the known enumeration values.
func (s GuestStatus) IsValid() bool {
	switch s {
	case GuestStatusPending, GuestStatusConfirmed, GuestStatusAbsent:
		return true
	}
	return false
}

func (s GuestStatus) String() string {
	return string(s)
}

// Guest represents an invited wedding guest. Phone is the natural key used by
// the import pipeline and by RSVP lookups; the platform never exposes a
// surrogate identifier to clients.
type Guest struct {
	Phone     string
	Name      string
	Group     string
	Status    GuestStatus
	PlusOnes  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultGuestGroup is assigned when an imported row carries no group.
const DefaultGuestGroup = "general"
