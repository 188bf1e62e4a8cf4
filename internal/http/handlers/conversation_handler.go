// Conversation endpoints.
//
//   - POST  /conversations (open an active conversation for a user/chat pair)
//   - GET   /conversations (list the pair's active conversations)
//   - PATCH /conversations (change status, e.g. stop or cancel)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-store/internal/domain"
)

// StartConversationBody opens a conversation.
type StartConversationBody struct {
	UserID  int64  `json:"user_id" binding:"required"`
	ChatID  int64  `json:"chat_id" binding:"required"`
	Command string `json:"command" binding:"required"`
}

// UpdateConversationBody changes the status of the pair's conversations.
type UpdateConversationBody struct {
	UserID int64  `json:"user_id" binding:"required"`
	ChatID int64  `json:"chat_id" binding:"required"`
	Status string `json:"status" binding:"required,oneof=active cancelled stopped"`
}

// ListConversationsResponse wraps the active conversations of a pair.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

// StartConversation handles POST /conversations.
func (h *Handlers) StartConversation(c *gin.Context) {
	var body StartConversationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id, chat_id and command required")
		return
	}

	if err := h.svc.InsertConversation(c.Request.Context(), body.UserID, body.ChatID, body.Command); err != nil {
		failStore(c, err, ErrCodePersistFailed)
		return
	}
	c.Status(http.StatusCreated)
}

// ListConversations handles GET /conversations with required ?user_id= and
// ?chat_id=, plus optional ?limit=.
func (h *Handlers) ListConversations(c *gin.Context) {
	userID, err1 := strconv.ParseInt(c.Query("user_id"), 10, 64)
	chatID, err2 := strconv.ParseInt(c.Query("chat_id"), 10, 64)
	if err1 != nil || err2 != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and chat_id must be integers")
		return
	}

	out, err := h.svc.SelectConversation(c.Request.Context(), userID, chatID, limitQuery(c, 0, 1000))
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	if out == nil {
		out = []domain.Conversation{}
	}
	ok(c, http.StatusOK, ListConversationsResponse{Conversations: out})
}

// UpdateConversation handles PATCH /conversations.
func (h *Handlers) UpdateConversation(c *gin.Context) {
	var body UpdateConversationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id, chat_id and a valid status required")
		return
	}

	err := h.svc.UpdateConversation(c.Request.Context(),
		map[string]any{"status": body.Status},
		map[string]any{"user_id": body.UserID, "chat_id": body.ChatID})
	if err != nil {
		failStore(c, err, ErrCodePersistFailed)
		return
	}
	noContent(c)
}
