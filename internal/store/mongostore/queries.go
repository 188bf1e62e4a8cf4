// Read-side queries. The chat listing builds one filter document from the
// typed filter; private-chat profile fields come from the denormalized
// document written at upsert time, not from a join.
package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/store"
)

// chatsQueryDoc builds the find filter for SelectChats. The text term is
// already case-folded; the regex still matches case-insensitively so folded
// input meets unfolded stored titles.
func chatsQueryDoc(filter store.ChatsFilter) bson.M {
	doc := bson.M{"type": bson.M{"$in": filter.Types()}}

	if filter.DateFrom != nil || filter.DateTo != nil {
		rng := bson.M{}
		if filter.DateFrom != nil {
			rng["$gte"] = *filter.DateFrom
		}
		if filter.DateTo != nil {
			rng["$lte"] = *filter.DateTo
		}
		doc["updated_at"] = rng
	}
	if filter.ChatID != nil {
		doc["id"] = *filter.ChatID
	}
	if filter.Text != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Text), Options: "i"}
		or := []bson.M{{"title": re}}
		if filter.Users {
			or = append(or,
				bson.M{"first_name": re},
				bson.M{"last_name": re},
				bson.M{"username": re},
			)
		}
		doc["$or"] = or
	}
	return doc
}

// chatDoc is a chat document together with the denormalized private-chat
// profile fields.
type chatDoc struct {
	domain.Chat `bson:",inline"`
	FirstName   *string `bson:"first_name"`
	LastName    *string `bson:"last_name"`
}

// SelectChats returns chats matching the filter, oldest activity first.
func (s *MongoStore) SelectChats(ctx context.Context, filter store.ChatsFilter) ([]store.ChatRecord, error) {
	cursor, err := s.coll(store.TableChat).Find(ctx, chatsQueryDoc(filter),
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []chatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]store.ChatRecord, 0, len(docs))
	for _, d := range docs {
		rec := store.ChatRecord{
			ChatID:                      d.ID,
			Type:                        d.Type,
			Title:                       d.Title,
			ChatUsername:                d.Username,
			AllMembersAreAdministrators: d.AllMembersAreAdministrators,
			OldID:                       d.OldID,
			ChatCreatedAt:               d.CreatedAt,
			ChatUpdatedAt:               d.UpdatedAt,
		}
		if filter.Users && d.Type == "private" {
			// A private chat shares its id with the peer user.
			id := d.ID
			rec.UserID = &id
			rec.FirstName = d.FirstName
			rec.LastName = d.LastName
		}
		out = append(out, rec)
	}
	return out, nil
}

// SelectTelegramUpdates returns ledger rows, newest first, capped at limit
// when limit > 0. A non-nil id restricts the result to that single update.
func (s *MongoStore) SelectTelegramUpdates(ctx context.Context, limit int, id *int64) ([]domain.TelegramUpdate, error) {
	filter := bson.M{}
	if id != nil {
		filter["id"] = *id
	}
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll(store.TableTelegramUpdate).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.TelegramUpdate
	err = cursor.All(ctx, &out)
	return out, err
}

// SelectMessages returns stored messages, newest first, capped at limit when
// limit > 0.
func (s *MongoStore) SelectMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll(store.TableMessage).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.Message
	err = cursor.All(ctx, &out)
	return out, err
}

// countWindows returns the lower bounds of the two counting windows at the
// instant now. Ledger timestamps carry second precision, so the per-second
// window starts at the floor of now, not one second before it.
func countWindows(now time.Time) (secStart, minStart time.Time) {
	secStart = now.UTC().Truncate(time.Second)
	return secStart, secStart.Add(-time.Minute)
}

// RequestCount computes the three request-rate counters at the instant now.
func (s *MongoStore) RequestCount(ctx context.Context, chatID, inlineMessageID string, now time.Time) (store.RequestCount, error) {
	c := s.coll(store.TableRequestLimiter)
	secStart, minStart := countWindows(now)

	var rc store.RequestCount

	// Distinct chats any request targeted in the current second.
	chats, err := c.Distinct(ctx, "chat_id", bson.M{
		"created_at": bson.M{"$gte": secStart},
		"chat_id":    bson.M{"$ne": nil},
	})
	if err != nil {
		return store.RequestCount{}, err
	}
	rc.LimitPerSecAll = int64(len(chats))

	rc.LimitPerSec, err = c.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": secStart},
		"$or": []bson.M{
			{"chat_id": chatID, "inline_message_id": nil},
			{"inline_message_id": inlineMessageID, "chat_id": nil},
		},
	})
	if err != nil {
		return store.RequestCount{}, err
	}

	rc.LimitPerMinute, err = c.CountDocuments(ctx, bson.M{
		"chat_id":    chatID,
		"created_at": bson.M{"$gte": minStart},
	})
	if err != nil {
		return store.RequestCount{}, err
	}

	return rc, nil
}

// Update applies fields to the documents of the logical table matching
// where. An empty where means every document.
func (s *MongoStore) Update(ctx context.Context, table string, fields, where map[string]any) error {
	_, err := s.coll(table).UpdateMany(ctx, bson.M(normalizeWhere(where)), bson.M{"$set": bson.M(fields)})
	return err
}

func normalizeWhere(where map[string]any) map[string]any {
	if where == nil {
		return map[string]any{}
	}
	return where
}

// SelectShortURL returns the newest cached short form for the user and url,
// or the empty string when the pair was never shortened.
func (s *MongoStore) SelectShortURL(ctx context.Context, url string, userID int64) (string, error) {
	var doc struct {
		ShortURL string `bson:"short_url"`
	}
	err := s.coll(store.TableShortURL).FindOne(ctx,
		bson.M{"user_id": userID, "url": url},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	return doc.ShortURL, err
}

// SelectConversations returns the active conversations for the user/chat
// pair, newest first, capped at limit when limit > 0.
func (s *MongoStore) SelectConversations(ctx context.Context, userID, chatID int64, limit int) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll(store.TableConversation).Find(ctx, bson.M{
		"user_id": userID,
		"chat_id": chatID,
		"status":  domain.ConversationActive,
	}, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.Conversation
	err = cursor.All(ctx, &out)
	return out, err
}
