package telegram

import (
	"encoding/json"
	"testing"
)

func TestUpdateType_OnePerPayload(t *testing.T) {
	cases := []struct {
		name string
		u    Update
		want string
	}{
		{"message", Update{Message: &Message{}}, UpdateMessage},
		{"edited_message", Update{EditedMessage: &Message{}}, UpdateEditedMessage},
		{"channel_post", Update{ChannelPost: &Message{}}, UpdateChannelPost},
		{"edited_channel_post", Update{EditedChannelPost: &Message{}}, UpdateEditedChannelPost},
		{"inline_query", Update{InlineQuery: &InlineQuery{}}, UpdateInlineQuery},
		{"chosen_inline_result", Update{ChosenInlineResult: &ChosenInlineResult{}}, UpdateChosenInlineResult},
		{"callback_query", Update{CallbackQuery: &CallbackQuery{}}, UpdateCallbackQuery},
		{"empty", Update{}, ""},
	}
	for _, tc := range cases {
		if got := tc.u.Type(); got != tc.want {
			t.Fatalf("%s: Type() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestUpdate_DecodeRealPayload(t *testing.T) {
	raw := `{
		"update_id": 10000,
		"message": {
			"message_id": 1365,
			"from": {"id": 1111, "is_bot": false, "first_name": "John", "username": "jdoe", "language_code": "en"},
			"chat": {"id": -349, "type": "group", "title": "test group"},
			"date": 1441645532,
			"reply_to_message": {
				"message_id": 1334,
				"chat": {"id": -349, "type": "group", "title": "test group"},
				"date": 1441645000,
				"text": "original"
			},
			"text": "reply text",
			"entities": [{"type": "bold", "offset": 0, "length": 5}]
		}
	}`
	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Type() != UpdateMessage {
		t.Fatalf("Type() = %q", u.Type())
	}
	m := u.Message
	if m.MessageID != 1365 || m.Chat.ID != -349 || m.From.Username != "jdoe" {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.ReplyToMessage == nil || m.ReplyToMessage.MessageID != 1334 {
		t.Fatalf("reply not decoded: %+v", m.ReplyToMessage)
	}
	if m.ReplyToMessage.ReplyToMessage != nil {
		t.Fatalf("reply of a reply should be absent")
	}
	if len(m.Entities) != 1 || m.Entities[0].Type != "bold" {
		t.Fatalf("entities not decoded: %+v", m.Entities)
	}
}
