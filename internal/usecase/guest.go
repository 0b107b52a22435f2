package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/repository"
)

var (
	// ErrGuestNotFound indicates no guest exists for the given phone.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrInvalidRSVPAnswer indicates the submitted answer is not a valid RSVP state.
	ErrInvalidRSVPAnswer = errors.New("rsvp answer must be confirmed or absent")
)

// RSVPInput captures a guest's answer to the invitation.
type RSVPInput struct {
	Phone    string
	Status   domain.GuestStatus
	PlusOnes int
}

// GuestService handles guest lookups and RSVP mutations for the site.
type GuestService struct {
	guests port.GuestRepository
	events port.EventPublisher
	logger *zap.Logger
}

// NewGuestService constructs GuestService.
func NewGuestService(guests port.GuestRepository, events port.EventPublisher, log *zap.Logger) *GuestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuestService{guests: guests, events: events, logger: log}
}

// GetGuest looks up a guest by phone.
func (s *GuestService) GetGuest(ctx context.Context, phone string) (*domain.Guest, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrGuestNotFound
	}

	guest, err := s.guests.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("lookup guest: %w", err)
	}

	return guest, nil
}

// ListGuests returns guests matching the filter.
func (s *GuestService) ListGuests(ctx context.Context, filter port.GuestFilter) ([]domain.Guest, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("invalid status filter %q", filter.Status)
	}

	guests, err := s.guests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}

	return guests, nil
}

// AnswerRSVP records the guest's attendance answer and publishes the change.
// Pending is not a valid answer; it is only ever the imported default.
func (s *GuestService) AnswerRSVP(ctx context.Context, input RSVPInput) (*domain.Guest, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, ErrGuestNotFound
	}

	if input.Status != domain.GuestStatusConfirmed && input.Status != domain.GuestStatusAbsent {
		return nil, ErrInvalidRSVPAnswer
	}

	plusOnes := input.PlusOnes
	if plusOnes < 0 {
		plusOnes = 0
	}

	previous, err := s.guests.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("lookup guest: %w", err)
	}

	updated, err := s.guests.UpdateRSVP(ctx, phone, input.Status, plusOnes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("update rsvp: %w", err)
	}

	if s.events != nil {
		event := domain.GuestRSVPUpdatedEvent{
			EventID:        uuid.NewString(),
			Phone:          updated.Phone,
			Name:           updated.Name,
			PreviousStatus: previous.Status,
			Status:         updated.Status,
			PlusOnes:       updated.PlusOnes,
			UpdatedAt:      time.Now().UTC(),
		}
		if err := s.events.PublishGuestRSVPUpdated(ctx, event); err != nil {
			// The mutation already committed; event delivery is best effort.
			s.logger.Warn("failed to publish rsvp event", zap.Error(err))
		}
	}

	return updated, nil
}
