package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GuestResponse is the API view of a guest.
type GuestResponse struct {
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	Status    string    `json:"status"`
	PlusOnes  int       `json:"plus_ones"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toGuestResponse(g domain.Guest) GuestResponse {
	return GuestResponse{
		Phone:     g.Phone,
		Name:      g.Name,
		Group:     g.Group,
		Status:    string(g.Status),
		PlusOnes:  g.PlusOnes,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// GuestListResponse wraps a page of guests.
type GuestListResponse struct {
	Guests []GuestResponse `json:"guests"`
	Count  int             `json:"count"`
}

// RSVPRequest is the payload for a guest's attendance answer.
type RSVPRequest struct {
	Status   string `json:"status" binding:"required"`
	PlusOnes int    `json:"plus_ones"`
}

// ChatRequest carries a guest's chatbot message.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the chatbot's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
