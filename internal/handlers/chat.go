package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"webforge/internal/logging"
	"webforge/internal/middleware"
	"webforge/pkg/models"
)

// ChatWS upgrades the connection and attaches it to a session. Requests
// typed into the chat trigger builds; progress events stream back.
func (h *Handler) ChatWS(c *gin.Context) {
	sessionID := c.Param("session")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	h.Hub.ServeWS(c, middleware.UserID(c), sessionID)
}

// HandleChat is the hub's inbound message callback: persist the message
// and run a build for it.
func (h *Handler) HandleChat(userID uint, sessionID, content string) {
	msg := &models.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      "user",
		Content:   content,
		Type:      "text",
	}
	if err := h.DB.Create(msg).Error; err != nil {
		logging.S().Warnw("failed to persist chat message", "session", sessionID, "error", err)
	}

	result, err := h.Builder.Build(context.Background(), userID, sessionID, content)

	reply := &models.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      "assistant",
		Type:      "completed",
	}
	if err != nil {
		reply.Type = "error"
		reply.Content = err.Error()
	} else {
		reply.Content = result.Message
		reply.ProjectID = &result.Project.ID
	}
	if err := h.DB.Create(reply).Error; err != nil {
		logging.S().Warnw("failed to persist chat reply", "session", sessionID, "error", err)
	}
}

// ChatHistory returns the stored messages of one session.
func (h *Handler) ChatHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	var messages []models.ChatMessage
	if err := h.DB.Where("session_id = ? AND user_id = ?", c.Param("session"), userID).
		Order("created_at asc").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to fetch messages", Code: "DATABASE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: messages})
}
