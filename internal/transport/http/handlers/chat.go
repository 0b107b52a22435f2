package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/transport/http/middleware"
)

const maxChatMessageLength = 2000

// ChatHandler forwards guest messages to the chatbot backend. Throttling
// happens in the route's rate-limit middleware; by the time a request lands
// here it has already consumed quota.
type ChatHandler struct {
	responder port.ChatResponder
	logger    *zap.Logger
}

// NewChatHandler builds the chat handler.
func NewChatHandler(responder port.ChatResponder, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{responder: responder, logger: log}
}

// Ask submits a message to the chatbot on behalf of the authenticated guest.
func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "message must not be empty"))
		return
	}
	if len(message) > maxChatMessageLength {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "message too long"))
		return
	}

	reply, err := h.responder.Respond(c.Request.Context(), userID, message)
	if err != nil {
		h.logger.Error("chat responder failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, NewErrorResponse(c, "chat backend unavailable"))
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
