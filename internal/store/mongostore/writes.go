// Write-side operations. Keyed upserts are one atomic UpdateOne each: the
// mutable field subset under $set, the first-sight-only fields under
// $setOnInsert. Insert-or-ignore writes are plain InsertOne calls that treat
// a duplicate-key error from the unique index as success.
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/store"
)

var upsert = options.Update().SetUpsert(true)

// chatUpsertDoc builds the update document for a chat. Private chats
// denormalize the peer's profile names into the document, since there is no
// join to recover them at query time.
func chatUpsertDoc(chat *domain.Chat, profile *domain.User) bson.M {
	set := bson.M{
		"type":                           chat.Type,
		"title":                          chat.Title,
		"username":                       chat.Username,
		"all_members_are_administrators": chat.AllMembersAreAdministrators,
		"updated_at":                     chat.UpdatedAt,
	}
	if chat.Type == "private" && profile != nil {
		set["first_name"] = profile.FirstName
		set["last_name"] = profile.LastName
	}
	return bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"id":         chat.ID,
			"old_id":     chat.OldID,
			"created_at": chat.CreatedAt,
		},
	}
}

// userUpsertDoc builds the update document for a user.
func userUpsertDoc(user *domain.User) bson.M {
	return bson.M{
		"$set": bson.M{
			"is_bot":        user.IsBot,
			"username":      user.Username,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"language_code": user.LanguageCode,
			"updated_at":    user.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"id":         user.ID,
			"created_at": user.CreatedAt,
		},
	}
}

// insertIgnore swallows the duplicate-key error a redelivery raises.
func insertIgnore(ctx context.Context, c *mongo.Collection, doc any) error {
	_, err := c.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// insertGenerated inserts doc and returns the generated ObjectID hex.
func insertGenerated(ctx context.Context, c *mongo.Collection, doc any) (string, error) {
	res, err := c.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", mongo.ErrNilDocument
	}
	return oid.Hex(), nil
}

// InsertChat upserts a chat by id.
func (s *MongoStore) InsertChat(ctx context.Context, chat *domain.Chat, profile *domain.User) error {
	_, err := s.coll(store.TableChat).
		UpdateOne(ctx, bson.M{"id": chat.ID}, chatUpsertDoc(chat, profile), upsert)
	return err
}

// InsertUser upserts a user by id.
func (s *MongoStore) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.coll(store.TableUser).
		UpdateOne(ctx, bson.M{"id": user.ID}, userUpsertDoc(user), upsert)
	return err
}

// InsertUserChat records the user/chat relation; duplicates are a no-op.
func (s *MongoStore) InsertUserChat(ctx context.Context, userID, chatID int64) error {
	filter := bson.M{"user_id": userID, "chat_id": chatID}
	_, err := s.coll(store.TableUserChat).
		UpdateOne(ctx, filter, bson.M{"$setOnInsert": filter}, upsert)
	return err
}

// InsertMessage inserts a message keyed by (chat_id, id); a redelivery is a
// no-op.
func (s *MongoStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	return insertIgnore(ctx, s.coll(store.TableMessage), msg)
}

// HasMessage reports whether the message identified by (chatID, messageID)
// is already stored.
func (s *MongoStore) HasMessage(ctx context.Context, chatID, messageID int64) (bool, error) {
	n, err := s.coll(store.TableMessage).CountDocuments(ctx,
		bson.M{"chat_id": chatID, "id": messageID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertEditedMessage appends one edit event and returns the generated
// document id.
func (s *MongoStore) InsertEditedMessage(ctx context.Context, em *domain.EditedMessage) (string, error) {
	return insertGenerated(ctx, s.coll(store.TableEditedMessage), em)
}

// InsertInlineQuery inserts an inline query keyed by the platform id;
// duplicates are a no-op.
func (s *MongoStore) InsertInlineQuery(ctx context.Context, iq *domain.InlineQuery) error {
	return insertIgnore(ctx, s.coll(store.TableInlineQuery), iq)
}

// InsertChosenInlineResult appends a chosen inline result and returns the
// generated document id.
func (s *MongoStore) InsertChosenInlineResult(ctx context.Context, r *domain.ChosenInlineResult) (string, error) {
	return insertGenerated(ctx, s.coll(store.TableChosenInlineResult), r)
}

// InsertCallbackQuery inserts a callback query keyed by the platform id;
// duplicates are a no-op.
func (s *MongoStore) InsertCallbackQuery(ctx context.Context, cq *domain.CallbackQuery) error {
	return insertIgnore(ctx, s.coll(store.TableCallbackQuery), cq)
}

// InsertTelegramUpdate appends one ledger row keyed by the platform update
// id; a redelivered update is a no-op.
func (s *MongoStore) InsertTelegramUpdate(ctx context.Context, u *domain.TelegramUpdate) error {
	return insertIgnore(ctx, s.coll(store.TableTelegramUpdate), u)
}

// InsertRequestLimiter appends one outbound-request ledger entry.
func (s *MongoStore) InsertRequestLimiter(ctx context.Context, entry *domain.RequestLimiter) error {
	_, err := s.coll(store.TableRequestLimiter).InsertOne(ctx, entry)
	return err
}

// InsertShortURL appends one shortener cache document.
func (s *MongoStore) InsertShortURL(ctx context.Context, su *domain.ShortURL) error {
	_, err := s.coll(store.TableShortURL).InsertOne(ctx, su)
	return err
}

// InsertConversation appends a conversation document.
func (s *MongoStore) InsertConversation(ctx context.Context, c *domain.Conversation) error {
	_, err := s.coll(store.TableConversation).InsertOne(ctx, c)
	return err
}
