package port

import "context"

// DedupeStore tracks which natural keys the import pipeline has already
// processed. Membership survives across runs; it is cleared only by an
// explicit operator reset.
type DedupeStore interface {
	// Seen reports whether the member was processed by a prior (or the
	// current) import run.
	Seen(ctx context.Context, member string) (bool, error)
	// MarkSeen records the member. The add must be atomic at the store level;
	// added is false when the member was already present.
	MarkSeen(ctx context.Context, member string) (added bool, err error)
	// Clear removes every member, allowing a full re-import.
	Clear(ctx context.Context) error
}
