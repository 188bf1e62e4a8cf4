// Package domain defines the persistence models for normalized Telegram
// entities: chats, users, messages, edited messages, inline queries, chosen
// inline results, callback queries, the update ledger, conversations, the
// short-URL cache, and the request-rate ledger. The types are mapped with GORM for the relational
// backend and carry bson tags for the document backend, so a single model set
// serves both.
//
// Physical table/collection names are the logical names singularized by the
// GORM naming strategy and optionally prefixed at store construction; the
// document backend applies the same prefix. The naming contract is fixed for
// interoperability with existing deployments.
package domain

import "time"

// Chat is a Telegram chat of any type (private, group, supergroup, channel).
//
// ID is the current canonical identity. When a group migrates to a
// supergroup the record is re-keyed to the new id and OldID preserves the
// previous one for traceability; OldID is never used as a lookup key for new
// writes. CreatedAt is set on first sight only; Type, Title, Username,
// AllMembersAreAdministrators and UpdatedAt are the mutable subset touched
// by upserts.
type Chat struct {
	ID                          int64     `json:"id" gorm:"primaryKey;autoIncrement:false" bson:"id"`
	Type                        string    `json:"type" gorm:"type:varchar(16);not null;index" bson:"type"`
	Title                       *string   `json:"title,omitempty" gorm:"type:varchar(255)" bson:"title"`
	Username                    *string   `json:"username,omitempty" gorm:"type:varchar(255)" bson:"username"`
	AllMembersAreAdministrators bool      `json:"all_members_are_administrators" gorm:"not null;default:false" bson:"all_members_are_administrators"`
	OldID                       *int64    `json:"old_id,omitempty" gorm:"index" bson:"old_id"`
	CreatedAt                   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at" gorm:"index" bson:"updated_at"`
}

// User is a Telegram user or bot account seen by the bot. CreatedAt is set on
// first insert and never overwritten; the remaining profile fields plus
// UpdatedAt are the mutable upsert subset.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement:false" bson:"id"`
	IsBot        bool      `json:"is_bot" gorm:"not null;default:false" bson:"is_bot"`
	Username     *string   `json:"username,omitempty" gorm:"type:varchar(191);index" bson:"username"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(255);not null" bson:"first_name"`
	LastName     *string   `json:"last_name,omitempty" gorm:"type:varchar(255)" bson:"last_name"`
	LanguageCode *string   `json:"language_code,omitempty" gorm:"type:varchar(10)" bson:"language_code"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// UserChat records that a user was seen in a chat. Inserts are idempotent:
// a duplicate (user_id, chat_id) attempt is a no-op, not an error.
type UserChat struct {
	UserID int64 `json:"user_id" gorm:"primaryKey;autoIncrement:false" bson:"user_id"`
	ChatID int64 `json:"chat_id" gorm:"primaryKey;autoIncrement:false" bson:"chat_id"`
}

// Message is one message or channel post, keyed by (chat_id, id). Rows are
// immutable after insert; an edit produces an EditedMessage row instead.
// ForwardFrom/ForwardFromChat/LeftChatMember hold ids of User/Chat rows that
// are upserted before the message itself. Entity-list columns (Entities,
// Photo, NewChatPhoto) and media columns hold serialized JSON.
type Message struct {
	ChatID                int64      `json:"chat_id" gorm:"primaryKey;autoIncrement:false" bson:"chat_id"`
	ID                    int64      `json:"id" gorm:"primaryKey;autoIncrement:false" bson:"id"`
	UserID                *int64     `json:"user_id,omitempty" gorm:"index" bson:"user_id"`
	Date                  time.Time  `json:"date" gorm:"index" bson:"date"`
	ForwardFrom           *int64     `json:"forward_from,omitempty" bson:"forward_from"`
	ForwardFromChat       *int64     `json:"forward_from_chat,omitempty" bson:"forward_from_chat"`
	ForwardFromMessageID  *int64     `json:"forward_from_message_id,omitempty" bson:"forward_from_message_id"`
	ForwardDate           *time.Time `json:"forward_date,omitempty" bson:"forward_date"`
	ReplyToChat           *int64     `json:"reply_to_chat,omitempty" bson:"reply_to_chat"`
	ReplyToMessage        *int64     `json:"reply_to_message,omitempty" bson:"reply_to_message"`
	MediaGroupID          *string    `json:"media_group_id,omitempty" gorm:"type:varchar(64)" bson:"media_group_id"`
	Text                  *string    `json:"text,omitempty" gorm:"type:text" bson:"text"`
	Entities              *string    `json:"entities,omitempty" gorm:"type:text" bson:"entities"`
	Audio                 *string    `json:"audio,omitempty" gorm:"type:text" bson:"audio"`
	Document              *string    `json:"document,omitempty" gorm:"type:text" bson:"document"`
	Animation             *string    `json:"animation,omitempty" gorm:"type:text" bson:"animation"`
	Game                  *string    `json:"game,omitempty" gorm:"type:text" bson:"game"`
	Photo                 *string    `json:"photo,omitempty" gorm:"type:text" bson:"photo"`
	Sticker               *string    `json:"sticker,omitempty" gorm:"type:text" bson:"sticker"`
	Video                 *string    `json:"video,omitempty" gorm:"type:text" bson:"video"`
	Voice                 *string    `json:"voice,omitempty" gorm:"type:text" bson:"voice"`
	VideoNote             *string    `json:"video_note,omitempty" gorm:"type:text" bson:"video_note"`
	Caption               *string    `json:"caption,omitempty" gorm:"type:text" bson:"caption"`
	Contact               *string    `json:"contact,omitempty" gorm:"type:text" bson:"contact"`
	Location              *string    `json:"location,omitempty" gorm:"type:text" bson:"location"`
	Venue                 *string    `json:"venue,omitempty" gorm:"type:text" bson:"venue"`
	NewChatMembers        *string    `json:"new_chat_members,omitempty" gorm:"type:text" bson:"new_chat_members"`
	LeftChatMember        *int64     `json:"left_chat_member,omitempty" bson:"left_chat_member"`
	NewChatTitle          *string    `json:"new_chat_title,omitempty" gorm:"type:varchar(255)" bson:"new_chat_title"`
	NewChatPhoto          *string    `json:"new_chat_photo,omitempty" gorm:"type:text" bson:"new_chat_photo"`
	DeleteChatPhoto       bool       `json:"delete_chat_photo" gorm:"not null;default:false" bson:"delete_chat_photo"`
	GroupChatCreated      bool       `json:"group_chat_created" gorm:"not null;default:false" bson:"group_chat_created"`
	SupergroupChatCreated bool       `json:"supergroup_chat_created" gorm:"not null;default:false" bson:"supergroup_chat_created"`
	ChannelChatCreated    bool       `json:"channel_chat_created" gorm:"not null;default:false" bson:"channel_chat_created"`
	MigrateFromChatID     *int64     `json:"migrate_from_chat_id,omitempty" bson:"migrate_from_chat_id"`
	MigrateToChatID       *int64     `json:"migrate_to_chat_id,omitempty" bson:"migrate_to_chat_id"`
	PinnedMessage         *string    `json:"pinned_message,omitempty" gorm:"type:text" bson:"pinned_message"`
	ConnectedWebsite      *string    `json:"connected_website,omitempty" gorm:"type:text" bson:"connected_website"`
	PassportData          *string    `json:"passport_data,omitempty" gorm:"type:text" bson:"passport_data"`
}

// EditedMessage is a narrow projection of a Message capturing one edit event.
// ID is generated by the store on insert (auto-increment / ObjectID) and is
// what the update ledger references.
type EditedMessage struct {
	ID        uint64    `json:"id" gorm:"primaryKey" bson:"-"`
	ChatID    int64     `json:"chat_id" gorm:"index:idx_edited_chat_msg;not null" bson:"chat_id"`
	MessageID int64     `json:"message_id" gorm:"index:idx_edited_chat_msg;not null" bson:"message_id"`
	UserID    *int64    `json:"user_id,omitempty" bson:"user_id"`
	EditDate  time.Time `json:"edit_date" bson:"edit_date"`
	Text      *string   `json:"text,omitempty" gorm:"type:text" bson:"text"`
	Entities  *string   `json:"entities,omitempty" gorm:"type:text" bson:"entities"`
	Caption   *string   `json:"caption,omitempty" gorm:"type:text" bson:"caption"`
}

// InlineQuery is keyed by the platform-issued query id.
type InlineQuery struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey" bson:"id"`
	UserID    *int64    `json:"user_id,omitempty" gorm:"index" bson:"user_id"`
	Location  *string   `json:"location,omitempty" gorm:"type:text" bson:"location"`
	Query     string    `json:"query" gorm:"type:text;not null" bson:"query"`
	Offset    *string   `json:"offset,omitempty" gorm:"type:varchar(255)" bson:"offset"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ChosenInlineResult records the inline result a user picked. The platform
// ResultID is only unique within its originating query, so the store assigns
// ID on insert and the ledger references that.
type ChosenInlineResult struct {
	ID              uint64    `json:"id" gorm:"primaryKey" bson:"-"`
	ResultID        string    `json:"result_id" gorm:"type:varchar(255);not null" bson:"result_id"`
	UserID          *int64    `json:"user_id,omitempty" gorm:"index" bson:"user_id"`
	Location        *string   `json:"location,omitempty" gorm:"type:text" bson:"location"`
	InlineMessageID *string   `json:"inline_message_id,omitempty" gorm:"type:varchar(255)" bson:"inline_message_id"`
	Query           string    `json:"query" gorm:"type:text;not null" bson:"query"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// CallbackQuery is keyed by the platform-issued callback id. ChatID/MessageID
// reference the message the inline keyboard was attached to, when present.
type CallbackQuery struct {
	ID              string    `json:"id" gorm:"type:varchar(64);primaryKey" bson:"id"`
	UserID          *int64    `json:"user_id,omitempty" gorm:"index" bson:"user_id"`
	ChatID          *int64    `json:"chat_id,omitempty" bson:"chat_id"`
	MessageID       *int64    `json:"message_id,omitempty" bson:"message_id"`
	InlineMessageID *string   `json:"inline_message_id,omitempty" gorm:"type:varchar(255)" bson:"inline_message_id"`
	Data            *string   `json:"data,omitempty" gorm:"type:text" bson:"data"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// TelegramUpdate is the deduplicated, append-only ledger of processed
// updates, keyed by the platform update id. Exactly one of the five
// reference fields (MessageID, InlineQueryID, ChosenInlineResultID,
// CallbackQueryID, EditedMessageID) is non-nil per row; the store validates
// this before any write. Rows are never updated.
type TelegramUpdate struct {
	ID                   int64   `json:"id" gorm:"primaryKey;autoIncrement:false" bson:"id"`
	ChatID               *int64  `json:"chat_id,omitempty" bson:"chat_id"`
	MessageID            *int64  `json:"message_id,omitempty" bson:"message_id"`
	InlineQueryID        *string `json:"inline_query_id,omitempty" gorm:"type:varchar(64)" bson:"inline_query_id"`
	ChosenInlineResultID *string `json:"chosen_inline_result_id,omitempty" gorm:"type:varchar(64)" bson:"chosen_inline_result_id"`
	CallbackQueryID      *string `json:"callback_query_id,omitempty" gorm:"type:varchar(64)" bson:"callback_query_id"`
	EditedMessageID      *string `json:"edited_message_id,omitempty" gorm:"type:varchar(64)" bson:"edited_message_id"`
}

// Conversation statuses. At most one row per (user_id, chat_id) is active at
// a time; the business layer enforces that, not a DB constraint.
const (
	ConversationActive    = "active"
	ConversationCancelled = "cancelled"
	ConversationStopped   = "stopped"
)

// Conversation tracks a multi-step interaction between a user and the bot in
// a chat. Notes is a JSON-encoded scratchpad owned by the business layer.
type Conversation struct {
	ID        uint64    `json:"id" gorm:"primaryKey" bson:"-"`
	UserID    int64     `json:"user_id" gorm:"index:idx_conversation_pair;not null" bson:"user_id"`
	ChatID    int64     `json:"chat_id" gorm:"index:idx_conversation_pair;not null" bson:"chat_id"`
	Status    string    `json:"status" gorm:"type:varchar(16);not null;index" bson:"status"`
	Command   string    `json:"command" gorm:"type:varchar(191);not null" bson:"command"`
	Notes     string    `json:"notes" gorm:"type:text;not null" bson:"notes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ShortURL caches one URL-shortener result per user so the same link is not
// shortened twice. Rows are insert-only; lookups take the newest entry for
// the (user_id, url) pair.
type ShortURL struct {
	ID        uint64    `json:"id" gorm:"primaryKey" bson:"-"`
	UserID    int64     `json:"user_id" gorm:"index;not null" bson:"user_id"`
	URL       string    `json:"url" gorm:"type:text;not null" bson:"url"`
	ShortURL  string    `json:"short_url" gorm:"type:text;not null" bson:"short_url"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// RequestLimiter is one outbound Bot API call, recorded for rate accounting.
// Rows are insert-only, never updated, and pruned externally. ChatID is a
// string because API calls may target "@channelusername" rather than a
// numeric id.
type RequestLimiter struct {
	ID              uint64    `json:"id" gorm:"primaryKey" bson:"-"`
	ChatID          *string   `json:"chat_id,omitempty" gorm:"type:varchar(255);index" bson:"chat_id"`
	InlineMessageID *string   `json:"inline_message_id,omitempty" gorm:"type:varchar(255)" bson:"inline_message_id"`
	Method          string    `json:"method" gorm:"type:varchar(64);not null" bson:"method"`
	CreatedAt       time.Time `json:"created_at" gorm:"index" bson:"created_at"`
}
