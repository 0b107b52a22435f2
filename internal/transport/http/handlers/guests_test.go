package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/repository"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

type fakeGuestStore struct {
	guests map[string]domain.Guest
}

func newFakeGuestStore() *fakeGuestStore {
	return &fakeGuestStore{guests: make(map[string]domain.Guest)}
}

func (f *fakeGuestStore) Upsert(ctx context.Context, guest domain.Guest) (port.UpsertOutcome, error) {
	_, exists := f.guests[guest.Phone]
	f.guests[guest.Phone] = guest
	if exists {
		return port.UpsertUpdated, nil
	}
	return port.UpsertInserted, nil
}

func (f *fakeGuestStore) GetByPhone(ctx context.Context, phone string) (*domain.Guest, error) {
	guest, ok := f.guests[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &guest, nil
}

func (f *fakeGuestStore) List(ctx context.Context, filter port.GuestFilter) ([]domain.Guest, error) {
	out := make([]domain.Guest, 0, len(f.guests))
	for _, guest := range f.guests {
		if filter.Group != "" && guest.Group != filter.Group {
			continue
		}
		if filter.Status != "" && guest.Status != filter.Status {
			continue
		}
		out = append(out, guest)
	}
	return out, nil
}

func (f *fakeGuestStore) UpdateRSVP(ctx context.Context, phone string, status domain.GuestStatus, plusOnes int) (*domain.Guest, error) {
	guest, ok := f.guests[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	guest.Status = status
	guest.PlusOnes = plusOnes
	f.guests[phone] = guest
	return &guest, nil
}

func (f *fakeGuestStore) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(f.guests))
	f.guests = make(map[string]domain.Guest)
	return n, nil
}

func newGuestRouter(t *testing.T) (*gin.Engine, *fakeGuestStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := newFakeGuestStore()
	service := usecase.NewGuestService(store, nil, zaptest.NewLogger(t))
	handler := NewGuestHandler(service, zaptest.NewLogger(t))

	router := gin.New()
	router.GET("/guests", handler.List)
	router.GET("/guests/:phone", handler.Get)
	router.POST("/guests/:phone/rsvp", handler.AnswerRSVP)

	return router, store
}

func TestGuestHandlerGet(t *testing.T) {
	router, store := newGuestRouter(t)

	store.guests["111"] = domain.Guest{
		Phone:  "111",
		Name:   "Ana",
		Group:  "family",
		Status: domain.GuestStatusPending,
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/guests/111", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var guest GuestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &guest); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if guest.Name != "Ana" || guest.Status != "pending" {
		t.Fatalf("unexpected guest payload: %+v", guest)
	}
}

func TestGuestHandlerGetNotFound(t *testing.T) {
	router, _ := newGuestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/guests/404", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGuestHandlerListFiltersByStatus(t *testing.T) {
	router, store := newGuestRouter(t)

	store.guests["111"] = domain.Guest{Phone: "111", Status: domain.GuestStatusConfirmed}
	store.guests["222"] = domain.Guest{Phone: "222", Status: domain.GuestStatusPending}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/guests?status=confirmed", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var list GuestListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if list.Count != 1 || list.Guests[0].Phone != "111" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGuestHandlerListRejectsInvalidStatus(t *testing.T) {
	router, _ := newGuestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/guests?status=maybe", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGuestHandlerAnswerRSVP(t *testing.T) {
	router, store := newGuestRouter(t)

	store.guests["111"] = domain.Guest{Phone: "111", Name: "Ana", Status: domain.GuestStatusPending}

	body, _ := json.Marshal(RSVPRequest{Status: "confirmed", PlusOnes: 2})
	req := httptest.NewRequest(http.MethodPost, "/guests/111/rsvp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var guest GuestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &guest); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if guest.Status != "confirmed" || guest.PlusOnes != 2 {
		t.Fatalf("unexpected guest payload: %+v", guest)
	}
}

func TestGuestHandlerAnswerRSVPRejectsPending(t *testing.T) {
	router, store := newGuestRouter(t)

	store.guests["111"] = domain.Guest{Phone: "111", Status: domain.GuestStatusConfirmed}

	body, _ := json.Marshal(RSVPRequest{Status: "pending"})
	req := httptest.NewRequest(http.MethodPost, "/guests/111/rsvp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGuestHandlerAnswerRSVPUnknownGuest(t *testing.T) {
	router, _ := newGuestRouter(t)

	body, _ := json.Marshal(RSVPRequest{Status: "absent"})
	req := httptest.NewRequest(http.MethodPost, "/guests/999/rsvp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
