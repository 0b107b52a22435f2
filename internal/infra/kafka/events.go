package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/config"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Subject   string           `json:"subject,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subject string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Subject:   subject,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishGuestRSVPUpdated publishes guest.rsvp.updated events.
// Phone numbers are masked in the payload; downstream consumers key on the
// masked value plus event metadata, never the raw number.
func (p *EventPublisher) PublishGuestRSVPUpdated(ctx context.Context, event domain.GuestRSVPUpdatedEvent) error {
	maskedPhone := logger.MaskPhone(event.Phone)

	payload := struct {
		Phone          string         `json:"phone"`
		Name           string         `json:"name"`
		PreviousStatus string         `json:"previous_status"`
		Status         string         `json:"status"`
		PlusOnes       int            `json:"plus_ones"`
		UpdatedAt      time.Time      `json:"updated_at"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		Phone:          maskedPhone,
		Name:           event.Name,
		PreviousStatus: string(event.PreviousStatus),
		Status:         string(event.Status),
		PlusOnes:       event.PlusOnes,
		UpdatedAt:      event.UpdatedAt.UTC(),
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "guest.rsvp.updated", maskedPhone, event.UpdatedAt, payload)
}

// PublishGuestImportCompleted publishes guest.import.completed events.
func (p *EventPublisher) PublishGuestImportCompleted(ctx context.Context, event domain.GuestImportCompletedEvent) error {
	payload := struct {
		Source      string         `json:"source,omitempty"`
		Total       int            `json:"total"`
		Inserted    int            `json:"inserted"`
		Updated     int            `json:"updated"`
		Skipped     int            `json:"skipped"`
		ErrorCount  int            `json:"error_count"`
		StartedAt   time.Time      `json:"started_at"`
		CompletedAt time.Time      `json:"completed_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		Source:      event.Source,
		Total:       event.Total,
		Inserted:    event.Inserted,
		Updated:     event.Updated,
		Skipped:     event.Skipped,
		ErrorCount:  event.ErrorCount,
		StartedAt:   event.StartedAt.UTC(),
		CompletedAt: event.CompletedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "guest.import.completed", event.Source, event.CompletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
