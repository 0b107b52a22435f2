package port

import (
	"context"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishGuestRSVPUpdated(ctx context.Context, event domain.GuestRSVPUpdatedEvent) error
	PublishGuestImportCompleted(ctx context.Context, event domain.GuestImportCompletedEvent) error
}
