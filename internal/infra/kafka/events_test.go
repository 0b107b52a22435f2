package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "wedding",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "wedding-platform-api",
		Env:  "test",
	}, zaptest.NewLogger(t))

	return publisher, asyncProducer
}

func TestPublishGuestRSVPUpdated(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	updatedAt := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	event := domain.GuestRSVPUpdatedEvent{
		EventID:        "event-123",
		Phone:          "+5511999990000",
		Name:           "Ana Souza",
		PreviousStatus: domain.GuestStatusPending,
		Status:         domain.GuestStatusConfirmed,
		PlusOnes:       2,
		UpdatedAt:      updatedAt,
		Metadata:       map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishGuestRSVPUpdated(context.Background(), event); err != nil {
		t.Fatalf("PublishGuestRSVPUpdated returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "wedding.guest.rsvp.updated" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "guest.rsvp.updated" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}
		if timestamp != updatedAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		phone, _ := payload["phone"].(string)
		if phone == event.Phone {
			t.Fatalf("raw phone leaked into event payload: %s", phone)
		}
		if phone != "+55***0000" {
			t.Fatalf("unexpected masked phone: %s", phone)
		}

		if got := payload["previous_status"]; got != "pending" {
			t.Fatalf("unexpected previous_status: %v", got)
		}
		if got := payload["status"]; got != "confirmed" {
			t.Fatalf("unexpected status: %v", got)
		}

		plusOnes, ok := payload["plus_ones"].(float64)
		if !ok || int(plusOnes) != 2 {
			t.Fatalf("unexpected plus_ones: %v", payload["plus_ones"])
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}
		if envelopeMetadata["service"] != "wedding-platform-api" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}
		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishGuestImportCompleted(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	completedAt := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	event := domain.GuestImportCompletedEvent{
		EventID:     "evt-001",
		Source:      "guests.csv",
		Total:       3,
		Inserted:    1,
		Updated:     0,
		Skipped:     2,
		ErrorCount:  1,
		StartedAt:   completedAt.Add(-2 * time.Second),
		CompletedAt: completedAt,
	}

	if err := publisher.PublishGuestImportCompleted(context.Background(), event); err != nil {
		t.Fatalf("PublishGuestImportCompleted returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "wedding.guest.import.completed" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		total, _ := payload["total"].(float64)
		inserted, _ := payload["inserted"].(float64)
		skipped, _ := payload["skipped"].(float64)
		errorCount, _ := payload["error_count"].(float64)

		if int(total) != 3 || int(inserted) != 1 || int(skipped) != 2 || int(errorCount) != 1 {
			t.Fatalf("unexpected tallies in payload: %v", payload)
		}

		if got := payload["source"]; got != "guests.csv" {
			t.Fatalf("unexpected source: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishCancelledContext(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	// Fill the input channel so the publish blocks, then cancel.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishGuestImportCompleted(ctx, domain.GuestImportCompletedEvent{})
	if err == nil {
		t.Fatal("expected context error when producer input is full")
	}
}
