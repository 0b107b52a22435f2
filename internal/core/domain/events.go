package domain

import "time"

// GuestRSVPUpdatedEvent represents the payload for wedding.guest.rsvp.updated messages.
type GuestRSVPUpdatedEvent struct {
	EventID        string
	Phone          string
	Name           string
	PreviousStatus GuestStatus
	Status         GuestStatus
	PlusOnes       int
	UpdatedAt      time.Time
	Metadata       map[string]any
}

// GuestImportCompletedEvent represents the payload for wedding.guest.import.completed messages.
type GuestImportCompletedEvent struct {
	EventID     string
	Source      string
	Total       int
	Inserted    int
	Updated     int
	Skipped     int
	ErrorCount  int
	StartedAt   time.Time
	CompletedAt time.Time
	Metadata    map[string]any
}
