package handlers

import (
	"context"
	"errors"
	"net/http"

	"ragdesk/models"
	"ragdesk/services/booking"
	"ragdesk/services/chat"
	"ragdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatService is what the chat endpoints need from the orchestrator.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID, message string, progress booking.ProgressReporter) (*models.ChatReply, error)
	History(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, sessionID string) error
	Booking(ctx context.Context, sessionID string) (models.BookingStatus, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	reply, err := h.svc.HandleMessage(c.Request.Context(), req.SessionID, req.Message, nil)
	if err != nil {
		respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func respondChatError(c *gin.Context, err error) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	var collab *booking.CollaboratorError
	if errors.As(err, &collab) {
		utils.JSONCodedError(c, http.StatusBadGateway, "Failed to process message", err)
		return
	}
	getLogger(c).Error("chat: message failed", zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, "Failed to process message", "")
}

// History handles GET /api/chat/:sessionID/history.
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("sessionID")
	ctx := c.Request.Context()
	messages, err := h.svc.History(ctx, sessionID)
	if err != nil {
		getLogger(c).Error("chat: history failed", zap.String("session", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load history", "")
		return
	}
	status, err := h.svc.Booking(ctx, sessionID)
	if err != nil {
		getLogger(c).Warn("chat: booking status failed", zap.String("session", sessionID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": messages, "booking": status})
}

// Clear handles DELETE /api/chat/:sessionID.
func (h *ChatHandler) Clear(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.svc.ClearHistory(c.Request.Context(), sessionID); err != nil {
		getLogger(c).Error("chat: clear failed", zap.String("session", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to clear history", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared!"})
}
