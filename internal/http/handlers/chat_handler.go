// Chat listing endpoint.
//
//   - GET /chats (filtered by type scope, activity window, id, and text)
//
// Query parameters:
//   - groups, supergroups, channels, users: scope toggles, default true
//   - date_from, date_to: RFC 3339 bounds on last activity
//   - chat_id: restrict to one chat
//   - text: case-insensitive substring match on titles (and user names when
//     the users scope is enabled)
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-store/internal/store"
)

// ListChatsResponse wraps the chat listing.
type ListChatsResponse struct {
	Chats []store.ChatRecord `json:"chats"`
	Count int                `json:"count"`
}

// boolQuery parses a scope toggle, defaulting to def when absent or
// unparseable.
func boolQuery(c *gin.Context, key string, def bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// ListChats handles GET /chats.
func (h *Handlers) ListChats(c *gin.Context) {
	filter := store.ChatsFilter{
		Groups:      boolQuery(c, "groups", true),
		Supergroups: boolQuery(c, "supergroups", true),
		Channels:    boolQuery(c, "channels", true),
		Users:       boolQuery(c, "users", true),
		Text:        c.Query("text"),
	}

	if raw := c.Query("date_from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date_from must be RFC 3339")
			return
		}
		filter.DateFrom = &ts
	}
	if raw := c.Query("date_to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date_to must be RFC 3339")
			return
		}
		filter.DateTo = &ts
	}
	if raw := c.Query("chat_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id must be an integer")
			return
		}
		filter.ChatID = &id
	}

	out, err := h.svc.SelectChats(c.Request.Context(), filter)
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	if out == nil {
		out = []store.ChatRecord{}
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: out, Count: len(out)})
}
