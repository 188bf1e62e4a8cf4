// Package telegram declares the typed inbound event model received from the
// Telegram Bot API webhook/long-poll transport. The types here are read-only
// inputs to the persistence layer: the store never mutates them, and parsing
// raw JSON into them happens upstream (encoding/json is sufficient, the Bot
// API is plain snake_case JSON).
//
// Only the fields the persistence layer records are declared; the JSON
// decoder drops everything else.
package telegram

import "encoding/json"

// Update kinds as reported by Update.Type. The values match the Bot API
// field names so they can double as log/metric labels.
const (
	UpdateMessage            = "message"
	UpdateEditedMessage      = "edited_message"
	UpdateChannelPost        = "channel_post"
	UpdateEditedChannelPost  = "edited_channel_post"
	UpdateInlineQuery        = "inline_query"
	UpdateChosenInlineResult = "chosen_inline_result"
	UpdateCallbackQuery      = "callback_query"
)

// Update is one inbound event. Exactly one of the pointer fields is set.
type Update struct {
	UpdateID           int64               `json:"update_id"`
	Message            *Message            `json:"message,omitempty"`
	EditedMessage      *Message            `json:"edited_message,omitempty"`
	ChannelPost        *Message            `json:"channel_post,omitempty"`
	EditedChannelPost  *Message            `json:"edited_channel_post,omitempty"`
	InlineQuery        *InlineQuery        `json:"inline_query,omitempty"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result,omitempty"`
	CallbackQuery      *CallbackQuery      `json:"callback_query,omitempty"`
}

// Type returns the update kind, or "" when no payload field is set.
func (u *Update) Type() string {
	switch {
	case u.Message != nil:
		return UpdateMessage
	case u.EditedMessage != nil:
		return UpdateEditedMessage
	case u.ChannelPost != nil:
		return UpdateChannelPost
	case u.EditedChannelPost != nil:
		return UpdateEditedChannelPost
	case u.InlineQuery != nil:
		return UpdateInlineQuery
	case u.ChosenInlineResult != nil:
		return UpdateChosenInlineResult
	case u.CallbackQuery != nil:
		return UpdateCallbackQuery
	}
	return ""
}

// User is a Telegram user or bot account.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat is a private, group, supergroup or channel chat. Private chats carry
// the user profile fields (FirstName/LastName) instead of a title.
type Chat struct {
	ID                          int64  `json:"id"`
	Type                        string `json:"type"`
	Title                       string `json:"title,omitempty"`
	Username                    string `json:"username,omitempty"`
	FirstName                   string `json:"first_name,omitempty"`
	LastName                    string `json:"last_name,omitempty"`
	AllMembersAreAdministrators bool   `json:"all_members_are_administrators,omitempty"`
}

// MessageEntity is one formatting entity inside a message text or caption.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	User   *User  `json:"user,omitempty"`
}

// PhotoSize is one resolution of a photo or thumbnail.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Location is a point on the map attached to a message or query.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Message mirrors the Bot API message object, restricted to the fields the
// store persists. Media payloads the store only archives verbatim (audio,
// stickers, venues, ...) stay as raw JSON; fields the store derives values
// from (entities, photo sizes, members) are typed.
//
// A ReplyToMessage never carries a further ReplyToMessage per the Bot API;
// the store still bounds the recursion when it walks the chain.
type Message struct {
	MessageID             int64           `json:"message_id"`
	From                  *User           `json:"from,omitempty"`
	Date                  int64           `json:"date"`
	Chat                  Chat            `json:"chat"`
	ForwardFrom           *User           `json:"forward_from,omitempty"`
	ForwardFromChat       *Chat           `json:"forward_from_chat,omitempty"`
	ForwardFromMessageID  int64           `json:"forward_from_message_id,omitempty"`
	ForwardDate           int64           `json:"forward_date,omitempty"`
	ReplyToMessage        *Message        `json:"reply_to_message,omitempty"`
	EditDate              int64           `json:"edit_date,omitempty"`
	MediaGroupID          string          `json:"media_group_id,omitempty"`
	Text                  string          `json:"text,omitempty"`
	Entities              []MessageEntity `json:"entities,omitempty"`
	Audio                 json.RawMessage `json:"audio,omitempty"`
	Document              json.RawMessage `json:"document,omitempty"`
	Animation             json.RawMessage `json:"animation,omitempty"`
	Game                  json.RawMessage `json:"game,omitempty"`
	Photo                 []PhotoSize     `json:"photo,omitempty"`
	Sticker               json.RawMessage `json:"sticker,omitempty"`
	Video                 json.RawMessage `json:"video,omitempty"`
	Voice                 json.RawMessage `json:"voice,omitempty"`
	VideoNote             json.RawMessage `json:"video_note,omitempty"`
	Caption               string          `json:"caption,omitempty"`
	Contact               json.RawMessage `json:"contact,omitempty"`
	Location              *Location       `json:"location,omitempty"`
	Venue                 json.RawMessage `json:"venue,omitempty"`
	NewChatMembers        []User          `json:"new_chat_members,omitempty"`
	LeftChatMember        *User           `json:"left_chat_member,omitempty"`
	NewChatTitle          string          `json:"new_chat_title,omitempty"`
	NewChatPhoto          []PhotoSize     `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto       bool            `json:"delete_chat_photo,omitempty"`
	GroupChatCreated      bool            `json:"group_chat_created,omitempty"`
	SupergroupChatCreated bool            `json:"supergroup_chat_created,omitempty"`
	ChannelChatCreated    bool            `json:"channel_chat_created,omitempty"`
	MigrateToChatID       int64           `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID     int64           `json:"migrate_from_chat_id,omitempty"`
	PinnedMessage         json.RawMessage `json:"pinned_message,omitempty"`
	ConnectedWebsite      string          `json:"connected_website,omitempty"`
	PassportData          json.RawMessage `json:"passport_data,omitempty"`
}

// InlineQuery is an incoming inline query.
type InlineQuery struct {
	ID       string    `json:"id"`
	From     *User     `json:"from"`
	Location *Location `json:"location,omitempty"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
}

// ChosenInlineResult reports the inline result a user picked. ResultID is
// only unique within the originating query, so the store assigns its own id.
type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            *User     `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
}

// CallbackQuery is an incoming callback from an inline keyboard. Message is
// the message the keyboard was attached to, when it originated from a chat.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            *User    `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance,omitempty"`
	Data            string   `json:"data,omitempty"`
}
