package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

const (
	defaultGuestPageSize = 50
	maxGuestPageSize     = 200
)

// GuestHandler serves guest lookups and RSVP answers.
type GuestHandler struct {
	guests *usecase.GuestService
	logger *zap.Logger
}

// NewGuestHandler builds the guest handler.
func NewGuestHandler(guests *usecase.GuestService, log *zap.Logger) *GuestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuestHandler{guests: guests, logger: log}
}

var guestErrorCases = []ErrorCase{
	{Err: usecase.ErrGuestNotFound, Status: http.StatusNotFound, Message: "guest not found"},
	{Err: usecase.ErrInvalidRSVPAnswer, Status: http.StatusBadRequest, Message: "rsvp answer must be confirmed or absent"},
}

// List returns guests filtered by group and status.
func (h *GuestHandler) List(c *gin.Context) {
	filter := port.GuestFilter{
		Group:  c.Query("group"),
		Limit:  defaultGuestPageSize,
		Offset: 0,
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseGuestStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status filter"))
			return
		}
		filter.Status = status
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return
		}
		if limit > maxGuestPageSize {
			limit = maxGuestPageSize
		}
		filter.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid offset"))
			return
		}
		filter.Offset = offset
	}

	guests, err := h.guests.ListGuests(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list guests failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list guests"))
		return
	}

	out := make([]GuestResponse, 0, len(guests))
	for _, guest := range guests {
		out = append(out, toGuestResponse(guest))
	}

	c.JSON(http.StatusOK, GuestListResponse{Guests: out, Count: len(out)})
}

// Get returns one guest by phone.
func (h *GuestHandler) Get(c *gin.Context) {
	guest, err := h.guests.GetGuest(c.Request.Context(), c.Param("phone"))
	if err != nil {
		RespondWithMappedError(c, err, guestErrorCases, http.StatusInternalServerError, "failed to fetch guest")
		return
	}

	c.JSON(http.StatusOK, toGuestResponse(*guest))
}

// AnswerRSVP records the guest's attendance answer.
func (h *GuestHandler) AnswerRSVP(c *gin.Context) {
	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	status, err := domain.ParseGuestStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "rsvp answer must be confirmed or absent"))
		return
	}

	guest, err := h.guests.AnswerRSVP(c.Request.Context(), usecase.RSVPInput{
		Phone:    c.Param("phone"),
		Status:   status,
		PlusOnes: req.PlusOnes,
	})
	if err != nil {
		RespondWithMappedError(c, err, guestErrorCases, http.StatusInternalServerError, "failed to record rsvp")
		return
	}

	c.JSON(http.StatusOK, toGuestResponse(*guest))
}
