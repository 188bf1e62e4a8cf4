// Write-side operations. All keyed inserts resolve conflicts in the
// database itself (ON CONFLICT), never with a read-modify-write cycle, so
// concurrent deliveries of the same entity converge without races.
//
// Error semantics:
//   - Upserts and insert-or-ignore writes never fail on duplicates; any
//     returned error is a real DB failure and is propagated raw.
//   - Generated-id inserts return the id assigned by the insert itself.
package sqlstore

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-telegram-store/internal/domain"
)

// chatUpdateColumns is the mutable subset touched when a chat already
// exists. id, created_at and old_id are set on first insert only.
var chatUpdateColumns = []string{
	"type", "title", "username", "all_members_are_administrators", "updated_at",
}

// userUpdateColumns is the mutable subset for existing users.
var userUpdateColumns = []string{
	"is_bot", "username", "first_name", "last_name", "language_code", "updated_at",
}

// InsertChat upserts a chat by id. The profile argument is only meaningful
// for the document backend (denormalized private-chat names); relationally
// the user table row with the same id carries the profile, so it is ignored
// here.
func (s *SQLStore) InsertChat(ctx context.Context, chat *domain.Chat, _ *domain.User) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(chatUpdateColumns),
		}).
		Create(chat).Error
}

// InsertUser upserts a user by id, preserving created_at for existing rows.
func (s *SQLStore) InsertUser(ctx context.Context, user *domain.User) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(userUpdateColumns),
		}).
		Create(user).Error
}

// InsertUserChat records the user/chat relation; duplicates are a no-op.
func (s *SQLStore) InsertUserChat(ctx context.Context, userID, chatID int64) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UserChat{UserID: userID, ChatID: chatID}).Error
}

// InsertMessage inserts a message keyed by (chat_id, id); a redelivery of
// the same message is a no-op and never overwrites the stored row.
func (s *SQLStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(msg).Error
}

// HasMessage reports whether the message identified by (chatID, messageID)
// is already stored.
func (s *SQLStore) HasMessage(ctx context.Context, chatID, messageID int64) (bool, error) {
	var one int
	err := s.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("1").
		Where("chat_id = ? AND id = ?", chatID, messageID).
		Take(&one).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertEditedMessage appends one edit event and returns the generated row
// id as a string.
func (s *SQLStore) InsertEditedMessage(ctx context.Context, em *domain.EditedMessage) (string, error) {
	if err := s.db.WithContext(ctx).Create(em).Error; err != nil {
		return "", err
	}
	return strconv.FormatUint(em.ID, 10), nil
}

// InsertInlineQuery inserts an inline query keyed by the platform id;
// duplicates are a no-op.
func (s *SQLStore) InsertInlineQuery(ctx context.Context, iq *domain.InlineQuery) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(iq).Error
}

// InsertChosenInlineResult appends a chosen inline result and returns the
// generated row id as a string.
func (s *SQLStore) InsertChosenInlineResult(ctx context.Context, r *domain.ChosenInlineResult) (string, error) {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return "", err
	}
	return strconv.FormatUint(r.ID, 10), nil
}

// InsertCallbackQuery inserts a callback query keyed by the platform id;
// duplicates are a no-op.
func (s *SQLStore) InsertCallbackQuery(ctx context.Context, cq *domain.CallbackQuery) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cq).Error
}

// InsertTelegramUpdate appends one ledger row keyed by the platform update
// id; a redelivered update is a no-op.
func (s *SQLStore) InsertTelegramUpdate(ctx context.Context, u *domain.TelegramUpdate) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error
}

// InsertRequestLimiter appends one outbound-request ledger entry.
func (s *SQLStore) InsertRequestLimiter(ctx context.Context, entry *domain.RequestLimiter) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// InsertShortURL appends one shortener cache entry.
func (s *SQLStore) InsertShortURL(ctx context.Context, su *domain.ShortURL) error {
	return s.db.WithContext(ctx).Create(su).Error
}

// InsertConversation appends a conversation row.
func (s *SQLStore) InsertConversation(ctx context.Context, c *domain.Conversation) error {
	return s.db.WithContext(ctx).Create(c).Error
}
