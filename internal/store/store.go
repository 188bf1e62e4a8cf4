// Package store defines the storage contract for the Telegram persistence
// layer and the backend-independent orchestrator that drives it.
//
// The Store interface is the narrow contract both backends implement:
// per-entity keyed upserts and insert-or-ignore writes, a generic filtered
// update, fixed read queries, and the request-rate counters. Everything that
// decides *what* to write and in *which order* lives in Orchestrator, not in
// the backends, so the write pipeline exists exactly once.
package store

import (
	"context"
	"time"

	"github.com/tbourn/go-telegram-store/internal/domain"
)

// Logical table/collection names. Backends resolve them to physical names
// through Tables; callers of the generic Update pass these, never physical
// names.
const (
	TableCallbackQuery      = "callback_query"
	TableChat               = "chat"
	TableChosenInlineResult = "chosen_inline_result"
	TableConversation       = "conversation"
	TableEditedMessage      = "edited_message"
	TableInlineQuery        = "inline_query"
	TableMessage            = "message"
	TableRequestLimiter     = "request_limiter"
	TableShortURL           = "short_url"
	TableTelegramUpdate     = "telegram_update"
	TableUser               = "user"
	TableUserChat           = "user_chat"
)

// logicalTables is the closed set accepted by the generic Update.
var logicalTables = map[string]struct{}{
	TableCallbackQuery:      {},
	TableChat:               {},
	TableChosenInlineResult: {},
	TableConversation:       {},
	TableEditedMessage:      {},
	TableInlineQuery:        {},
	TableMessage:            {},
	TableRequestLimiter:     {},
	TableShortURL:           {},
	TableTelegramUpdate:     {},
	TableUser:               {},
	TableUserChat:           {},
}

// KnownTable reports whether name is one of the logical table names.
func KnownTable(name string) bool {
	_, ok := logicalTables[name]
	return ok
}

// Tables maps logical entity names to physical table/collection names. The
// prefix is resolved once at store construction; there is no runtime global
// name registry.
type Tables struct {
	Prefix string
}

// Name returns the physical name for a logical table name.
func (t Tables) Name(logical string) string {
	return t.Prefix + logical
}

// ChatsFilter is the typed option set recognized by SelectChats. The zero
// value selects nothing; use DefaultChatsFilter for the conventional
// "everything" scope and narrow from there.
type ChatsFilter struct {
	Groups      bool
	Supergroups bool
	Channels    bool
	Users       bool

	// DateFrom/DateTo bound updated_at inclusively when non-nil.
	DateFrom *time.Time
	DateTo   *time.Time

	// ChatID restricts to one chat when non-nil.
	ChatID *int64

	// Text is a case-insensitive substring match against the chat title
	// and, when Users is set, against user first/last name and username.
	Text string
}

// DefaultChatsFilter returns the filter with all four type scopes enabled
// and no further restrictions.
func DefaultChatsFilter() ChatsFilter {
	return ChatsFilter{Groups: true, Supergroups: true, Channels: true, Users: true}
}

// Types returns the chat type values selected by the filter scopes.
func (f ChatsFilter) Types() []string {
	out := make([]string, 0, 4)
	if f.Groups {
		out = append(out, "group")
	}
	if f.Supergroups {
		out = append(out, "supergroup")
	}
	if f.Channels {
		out = append(out, "channel")
	}
	if f.Users {
		out = append(out, "private")
	}
	return out
}

// ChatRecord is a chat row remapped to the stable public alias set, identical
// for both backends. UserID and the name fields are populated only when the
// Users scope joined in user data (relational) or the document carried the
// denormalized profile (document).
type ChatRecord struct {
	ChatID                      int64     `json:"chat_id"`
	Type                        string    `json:"type"`
	Title                       *string   `json:"title,omitempty"`
	ChatUsername                *string   `json:"chat_username,omitempty"`
	AllMembersAreAdministrators bool      `json:"all_members_are_administrators"`
	OldID                       *int64    `json:"old_id,omitempty"`
	ChatCreatedAt               time.Time `json:"chat_created_at"`
	ChatUpdatedAt               time.Time `json:"chat_updated_at"`
	UserID                      *int64    `json:"user_id,omitempty"`
	FirstName                   *string   `json:"first_name,omitempty"`
	LastName                    *string   `json:"last_name,omitempty"`
}

// RequestCount is the three sliding-window counters computed over the
// request_limiter ledger. For consistent ledger data LimitPerSecAll >=
// LimitPerSec always holds.
type RequestCount struct {
	// LimitPerSecAll is the number of distinct chats with any entry in
	// the current accounting second (global admission-control signal).
	LimitPerSecAll int64 `json:"limit_per_sec_all"`
	// LimitPerSec is the number of entries in the current accounting
	// second for this chat or inline message.
	LimitPerSec int64 `json:"limit_per_sec"`
	// LimitPerMinute is the number of entries in the last minute for
	// this chat.
	LimitPerMinute int64 `json:"limit_per_minute"`
}

// Store is the full storage contract implemented once per backend.
//
// Write semantics:
//   - InsertChat / InsertUser are upserts: insert, or update the declared
//     mutable field subset on key conflict. The update path never touches
//     id, created_at, or (for chats) old_id.
//   - InsertUserChat, InsertMessage, InsertInlineQuery, InsertCallbackQuery
//     and InsertTelegramUpdate are insert-or-ignore by their keys: a
//     duplicate delivery is a silent no-op.
//   - InsertEditedMessage and InsertChosenInlineResult return the generated
//     row id from the insert itself; there is no separate "last insert id"
//     round trip.
//
// Implementations must be safe for concurrent use; conflicting writers to
// the same identity are serialized by the underlying database.
type Store interface {
	// Connected reports whether the backend handle is usable. Operations
	// on a disconnected store fail with ErrNotConnected.
	Connected() bool
	// Tables exposes the logical-to-physical name mapping.
	Tables() Tables

	InsertChat(ctx context.Context, chat *domain.Chat, profile *domain.User) error
	InsertUser(ctx context.Context, user *domain.User) error
	InsertUserChat(ctx context.Context, userID, chatID int64) error
	InsertMessage(ctx context.Context, msg *domain.Message) error
	HasMessage(ctx context.Context, chatID, messageID int64) (bool, error)
	InsertEditedMessage(ctx context.Context, em *domain.EditedMessage) (string, error)
	InsertInlineQuery(ctx context.Context, iq *domain.InlineQuery) error
	InsertChosenInlineResult(ctx context.Context, r *domain.ChosenInlineResult) (string, error)
	InsertCallbackQuery(ctx context.Context, cq *domain.CallbackQuery) error
	InsertTelegramUpdate(ctx context.Context, u *domain.TelegramUpdate) error

	SelectTelegramUpdates(ctx context.Context, limit int, id *int64) ([]domain.TelegramUpdate, error)
	SelectMessages(ctx context.Context, limit int) ([]domain.Message, error)
	SelectChats(ctx context.Context, filter ChatsFilter) ([]ChatRecord, error)

	RequestCount(ctx context.Context, chatID, inlineMessageID string, now time.Time) (RequestCount, error)
	InsertRequestLimiter(ctx context.Context, entry *domain.RequestLimiter) error

	InsertShortURL(ctx context.Context, su *domain.ShortURL) error
	// SelectShortURL returns the newest cached short form for the user
	// and url, or the empty string when the pair was never shortened.
	SelectShortURL(ctx context.Context, url string, userID int64) (string, error)

	Update(ctx context.Context, table string, fields, where map[string]any) error

	InsertConversation(ctx context.Context, c *domain.Conversation) error
	SelectConversations(ctx context.Context, userID, chatID int64, limit int) ([]domain.Conversation, error)
}
