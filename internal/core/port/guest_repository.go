package port

import (
	"context"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
)

// UpsertOutcome distinguishes whether an upsert created a new row or modified
// an existing one.
type UpsertOutcome int

const (
	UpsertInserted UpsertOutcome = iota
	UpsertUpdated
)

// GuestFilter narrows guest listings.
type GuestFilter struct {
	Group  string
	Status domain.GuestStatus
	Limit  int
	Offset int
}

// GuestRepository persists wedding guests keyed by phone number. The store does
// not enforce phone uniqueness beyond the upsert filter; deduplication is
// cooperative and owned by the import pipeline.
type GuestRepository interface {
	// Upsert writes the guest using phone as the match filter and reports
	// whether the write inserted or updated.
	Upsert(ctx context.Context, guest domain.Guest) (UpsertOutcome, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Guest, error)
	List(ctx context.Context, filter GuestFilter) ([]domain.Guest, error)
	// UpdateRSVP transitions the guest's status and plus-ones count and
	// returns the updated record.
	UpdateRSVP(ctx context.Context, phone string, status domain.GuestStatus, plusOnes int) (*domain.Guest, error)
	// DeleteAll empties the guest table. Operator-triggered only.
	DeleteAll(ctx context.Context) (int64, error)
}
