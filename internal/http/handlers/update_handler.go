// Update ingestion and ledger endpoints.
//
// This file exposes the write entry point of the service and the ledger
// reads:
//   - POST /updates       (ingest one Bot API update)
//   - GET  /updates       (list processed-update ledger rows)
//   - GET  /messages      (list stored messages)
//
// Handlers are transport-thin: they validate input, call the persistence
// orchestrator, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/http/middleware"
	"github.com/tbourn/go-telegram-store/internal/store"
	"github.com/tbourn/go-telegram-store/internal/telegram"
)

// StoreService is the persistence contract consumed by the HTTP handlers,
// implemented by store.Orchestrator. Implementations must be safe for
// concurrent use and honor the provided context.
type StoreService interface {
	// InsertRequest persists one inbound update and its ledger row.
	InsertRequest(ctx context.Context, u *telegram.Update) error
	// SelectTelegramUpdates lists ledger rows, newest first.
	SelectTelegramUpdates(ctx context.Context, limit int, id *int64) ([]domain.TelegramUpdate, error)
	// SelectMessages lists stored messages, newest first.
	SelectMessages(ctx context.Context, limit int) ([]domain.Message, error)
	// SelectChats lists chats matching the filter.
	SelectChats(ctx context.Context, filter store.ChatsFilter) ([]store.ChatRecord, error)
	// GetTelegramRequestCount computes the request-rate counters.
	GetTelegramRequestCount(ctx context.Context, chatID, inlineMessageID string) (store.RequestCount, error)
	// InsertTelegramRequest records one outbound API call.
	InsertTelegramRequest(ctx context.Context, method string, data map[string]any) error
	// InsertShortURL caches one URL-shortener result for a user.
	InsertShortURL(ctx context.Context, userID int64, url, shortURL string) error
	// SelectShortURL returns the newest cached short form, or "".
	SelectShortURL(ctx context.Context, url string, userID int64) (string, error)
	// InsertConversation opens an active conversation.
	InsertConversation(ctx context.Context, userID, chatID int64, command string) error
	// SelectConversation lists active conversations for the pair.
	SelectConversation(ctx context.Context, userID, chatID int64, limit int) ([]domain.Conversation, error)
	// UpdateConversation applies fields to matching conversations.
	UpdateConversation(ctx context.Context, fields, where map[string]any) error
}

// Handlers groups the HTTP endpoints over the persistence orchestrator.
type Handlers struct {
	svc StoreService
}

// New constructs a Handlers instance bound to the given service.
func New(svc StoreService) *Handlers {
	return &Handlers{svc: svc}
}

// failStore translates a storage-pipeline error into the HTTP error
// envelope. fallback names the code used for unrecognized errors.
func failStore(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotConnected):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "storage backend unavailable")
	case errors.Is(err, store.ErrUnsupportedUpdate):
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnsupportedUpdate, "update carries no recognized payload")
	case errors.Is(err, store.ErrNoUpdateReference):
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnsupportedUpdate, "update references no entity")
	case errors.Is(err, store.ErrEmptyChatScope):
		fail(c, http.StatusBadRequest, ErrCodeEmptyChatScope, "at least one chat type scope is required")
	case errors.Is(err, store.ErrUnknownTable):
		fail(c, http.StatusBadRequest, ErrCodeUnknownTable, "unknown table")
	default:
		fail(c, http.StatusInternalServerError, fallback, err.Error())
	}
}

// limitQuery parses the "limit" query parameter with a default and cap.
func limitQuery(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// IngestUpdateResponse acknowledges a persisted update.
type IngestUpdateResponse struct {
	UpdateID int64  `json:"update_id"`
	Type     string `json:"type"`
}

// IngestUpdate handles POST /updates. The body is one Bot API update
// object; it is normalized and persisted together with its ledger row.
func (h *Handlers) IngestUpdate(c *gin.Context) {
	var u telegram.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.InsertRequest(c.Request.Context(), &u); err != nil {
		failStore(c, err, ErrCodePersistFailed)
		return
	}

	middleware.CountUpdatePersisted(u.Type())
	middleware.LoggerFrom(c).Info().
		Int64("update_id", u.UpdateID).
		Str("type", u.Type()).
		Msg("update ingested")
	ok(c, http.StatusCreated, IngestUpdateResponse{UpdateID: u.UpdateID, Type: u.Type()})
}

// ListUpdatesResponse wraps a page of ledger rows.
type ListUpdatesResponse struct {
	Updates []domain.TelegramUpdate `json:"updates"`
}

// ListUpdates handles GET /updates. Supports ?limit= (default 100, max
// 1000) and ?id= to fetch one specific ledger row.
func (h *Handlers) ListUpdates(c *gin.Context) {
	var id *int64
	if raw := c.Query("id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be an integer")
			return
		}
		id = &v
	}

	out, err := h.svc.SelectTelegramUpdates(c.Request.Context(), limitQuery(c, 100, 1000), id)
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	if out == nil {
		out = []domain.TelegramUpdate{}
	}
	ok(c, http.StatusOK, ListUpdatesResponse{Updates: out})
}

// ListMessagesResponse wraps a page of stored messages.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// ListMessages handles GET /messages. Supports ?limit= (default 100, max
// 1000).
func (h *Handlers) ListMessages(c *gin.Context) {
	out, err := h.svc.SelectMessages(c.Request.Context(), limitQuery(c, 100, 1000))
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	if out == nil {
		out = []domain.Message{}
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: out})
}
