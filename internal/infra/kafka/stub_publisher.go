package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishGuestRSVPUpdated logs guest.rsvp.updated events.
func (p *StubPublisher) PublishGuestRSVPUpdated(_ context.Context, event domain.GuestRSVPUpdatedEvent) error {
	payload := map[string]any{
		"phone":           logger.MaskPhone(event.Phone),
		"name":            event.Name,
		"previous_status": string(event.PreviousStatus),
		"status":          string(event.Status),
		"plus_ones":       event.PlusOnes,
		"updated_at":      event.UpdatedAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("guest.rsvp.updated", event.UpdatedAt, payload)
	return nil
}

// PublishGuestImportCompleted logs guest.import.completed events.
func (p *StubPublisher) PublishGuestImportCompleted(_ context.Context, event domain.GuestImportCompletedEvent) error {
	payload := map[string]any{
		"source":       event.Source,
		"total":        event.Total,
		"inserted":     event.Inserted,
		"updated":      event.Updated,
		"skipped":      event.Skipped,
		"error_count":  event.ErrorCount,
		"started_at":   event.StartedAt,
		"completed_at": event.CompletedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("guest.import.completed", event.CompletedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
