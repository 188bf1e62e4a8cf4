// Read-side queries and the generic field-level update.
//
// SelectChats composes the cross-backend chat listing: chat columns remapped
// to the stable alias set, optionally LEFT JOINed with the user table so
// private chats carry the peer's profile. RequestCount computes the three
// sliding-window counters over the request_limiter ledger in three COUNTs.
package sqlstore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/store"
)

// quote renders name as a dialect-quoted SQL identifier. Raw strings passed
// to Table or Joins bypass GORM's quoting, and the unprefixed user table is
// the reserved word "user" on PostgreSQL.
func (s *SQLStore) quote(name string) string {
	var b strings.Builder
	s.db.Dialector.QuoteTo(&b, name)
	return b.String()
}

// SelectChats returns chats matching the filter, oldest activity first.
// The user table is joined only when the Users scope is enabled; a private
// chat shares its id with the peer user, which is what the join keys on.
func (s *SQLStore) SelectChats(ctx context.Context, filter store.ChatsFilter) ([]store.ChatRecord, error) {
	chatTbl := s.quote(s.tables.Name(store.TableChat))
	userTbl := s.quote(s.tables.Name(store.TableUser))

	cols := []string{
		"c.id AS chat_id",
		"c.type",
		"c.title",
		"c.username AS chat_username",
		"c.all_members_are_administrators",
		"c.old_id",
		"c.created_at AS chat_created_at",
		"c.updated_at AS chat_updated_at",
	}

	q := s.db.WithContext(ctx).Table(chatTbl + " AS c")
	if filter.Users {
		cols = append(cols, "u.id AS user_id", "u.first_name", "u.last_name")
		q = q.Joins("LEFT JOIN " + userTbl + " AS u ON c.id = u.id")
	}
	q = q.Select(strings.Join(cols, ", ")).
		Where("c.type IN ?", filter.Types())

	if filter.DateFrom != nil {
		q = q.Where("c.updated_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("c.updated_at <= ?", *filter.DateTo)
	}
	if filter.ChatID != nil {
		q = q.Where("c.id = ?", *filter.ChatID)
	}
	if filter.Text != "" {
		like := "%" + filter.Text + "%"
		if filter.Users {
			q = q.Where(
				"LOWER(c.title) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ? OR LOWER(u.username) LIKE ?",
				like, like, like, like)
		} else {
			q = q.Where("LOWER(c.title) LIKE ?", like)
		}
	}

	var out []store.ChatRecord
	err := q.Order("c.updated_at ASC").Scan(&out).Error
	return out, err
}

// SelectTelegramUpdates returns ledger rows, newest first, capped at limit
// when limit > 0. A non-nil id restricts the result to that single update.
func (s *SQLStore) SelectTelegramUpdates(ctx context.Context, limit int, id *int64) ([]domain.TelegramUpdate, error) {
	q := s.db.WithContext(ctx).Model(&domain.TelegramUpdate{})
	if id != nil {
		q = q.Where("id = ?", *id)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.TelegramUpdate
	err := q.Order("id DESC").Find(&out).Error
	return out, err
}

// SelectMessages returns stored messages, newest first, capped at limit
// when limit > 0.
func (s *SQLStore) SelectMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	q := s.db.WithContext(ctx).Model(&domain.Message{})
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Message
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, err
}

// RequestCount computes the three request-rate counters at the instant now:
// distinct chats any request targeted in the current second, requests to
// this chat or inline message in the current second, and requests to this
// chat in the last minute. Ledger timestamps carry second precision, so the
// per-second window starts at the floor of now, not one second before it.
func (s *SQLStore) RequestCount(ctx context.Context, chatID, inlineMessageID string, now time.Time) (store.RequestCount, error) {
	tbl := s.tables.Name(store.TableRequestLimiter)
	secStart := now.UTC().Truncate(time.Second)
	minStart := secStart.Add(-time.Minute)

	var rc store.RequestCount

	err := s.db.WithContext(ctx).Table(tbl).
		Select("COUNT(DISTINCT chat_id)").
		Where("created_at >= ?", secStart).
		Scan(&rc.LimitPerSecAll).Error
	if err != nil {
		return store.RequestCount{}, err
	}

	err = s.db.WithContext(ctx).Table(tbl).
		Where("((chat_id = ? AND inline_message_id IS NULL) OR (inline_message_id = ? AND chat_id IS NULL)) AND created_at >= ?",
			chatID, inlineMessageID, secStart).
		Count(&rc.LimitPerSec).Error
	if err != nil {
		return store.RequestCount{}, err
	}

	err = s.db.WithContext(ctx).Table(tbl).
		Where("chat_id = ? AND created_at >= ?", chatID, minStart).
		Count(&rc.LimitPerMinute).Error
	if err != nil {
		return store.RequestCount{}, err
	}

	return rc, nil
}

// Update applies fields to the rows of the logical table matching where.
// An empty where means every row; zero matched rows is not an error.
func (s *SQLStore) Update(ctx context.Context, table string, fields, where map[string]any) error {
	q := s.db.WithContext(ctx).Table(s.tables.Name(table))
	if len(where) > 0 {
		q = q.Where(where)
	} else {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return q.Updates(fields).Error
}

// SelectShortURL returns the newest cached short form for the user and url,
// or the empty string when the pair was never shortened.
func (s *SQLStore) SelectShortURL(ctx context.Context, url string, userID int64) (string, error) {
	var short string
	err := s.db.WithContext(ctx).Model(&domain.ShortURL{}).
		Select("short_url").
		Where("user_id = ? AND url = ?", userID, url).
		Order("id DESC").
		Limit(1).
		Scan(&short).Error
	return short, err
}

// SelectConversations returns the active conversations for the user/chat
// pair, newest first, capped at limit when limit > 0.
func (s *SQLStore) SelectConversations(ctx context.Context, userID, chatID int64, limit int) ([]domain.Conversation, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND chat_id = ? AND status = ?", userID, chatID, domain.ConversationActive)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Conversation
	err := q.Order("id DESC").Find(&out).Error
	return out, err
}
