// Package normalize holds the pure, backend-agnostic derivation helpers that
// turn typed Telegram events into persistence-ready values: timestamp
// derivation, entity-list serialization, chat migration re-keying, and text
// folding for chat search. Nothing here touches storage and nothing here can
// fail; malformed or missing optional input resolves to a nil value.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-telegram-store/internal/telegram"
)

// Timestamp converts a Bot API unix timestamp into the stored representation:
// UTC, second precision (the Bot API itself has no sub-second resolution).
// A zero input means "now".
func Timestamp(unix int64) time.Time {
	if unix == 0 {
		return time.Now().UTC().Truncate(time.Second)
	}
	return time.Unix(unix, 0).UTC()
}

// EntityListJSON serializes a list of sub-entities (message entities, photo
// sizes, ...) into a JSON blob for storage. A nil or empty list yields nil,
// mirroring the nullable columns it feeds.
func EntityListJSON[T any](list []T) *string {
	if len(list) == 0 {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		// Only reachable with unsupported element types; the telegram
		// event model contains none.
		return nil
	}
	s := string(b)
	return &s
}

// RawJSON stores a raw media payload verbatim, nil when absent.
func RawJSON(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

// ResolveChatMigration resolves the canonical identity of a chat in the
// presence of a group-to-supergroup migration. When migrateTo is non-zero the
// effective id becomes the migration target, the type becomes "supergroup"
// and the chat's original id is preserved as oldID for traceability.
// Otherwise identity and type pass through unchanged and oldID is nil.
func ResolveChatMigration(chat *telegram.Chat, migrateTo int64) (id int64, oldID *int64, chatType string) {
	id = chat.ID
	chatType = chat.Type
	if migrateTo != 0 {
		prev := chat.ID
		id = migrateTo
		oldID = &prev
		chatType = "supergroup"
	}
	return id, oldID, chatType
}

// JoinMemberIDs flattens a new-chat-members list into the comma-joined id
// string the message row stores. Nil when the list is empty.
func JoinMemberIDs(users []telegram.User) *string {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = strconv.FormatInt(u.ID, 10)
	}
	s := strings.Join(ids, ",")
	return &s
}

// caseFolder is safe for concurrent use.
var caseFolder = cases.Fold()

// FoldText lowercases a chat search term using Unicode case folding, so
// title/name matching behaves the same for non-ASCII chat titles on every
// backend.
func FoldText(s string) string {
	return caseFolder.String(s)
}
