// Package mongostore implements the document storage backend on the official
// MongoDB driver. Entities live in one collection per logical table; keyed
// upserts use a single atomic UpdateOne with $set/$setOnInsert and
// insert-or-ignore writes rely on unique indexes plus duplicate-key error
// swallowing, so concurrent deliveries never race through a read-modify-write
// cycle.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-telegram-store/internal/store"
)

// Options configures Connect.
type Options struct {
	// URI is the mongodb:// connection string.
	URI string
	// Database is the database name holding all collections.
	Database string
	// CollectionPrefix is prepended to every collection name.
	CollectionPrefix string
}

// MongoStore is the document store.Store implementation.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	tables store.Tables
}

// Connect dials the server, verifies the connection with a ping and returns
// the store. It does not create indexes; call EnsureIndexes separately.
func Connect(ctx context.Context, opts Options) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetMaxPoolSize(50))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		db:     client.Database(opts.Database),
		tables: store.Tables{Prefix: opts.CollectionPrefix},
	}, nil
}

// coll resolves a logical table name to its collection.
func (s *MongoStore) coll(logical string) *mongo.Collection {
	return s.db.Collection(s.tables.Name(logical))
}

// EnsureIndexes creates the unique indexes the insert-or-ignore writes
// depend on, plus the query indexes. Index creation is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		store.TableChat: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "updated_at", Value: 1}}},
		},
		store.TableUser: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		store.TableUserChat: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "chat_id", Value: 1}}, Options: unique},
		},
		store.TableMessage: {
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		store.TableInlineQuery: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		store.TableCallbackQuery: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		store.TableTelegramUpdate: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		store.TableRequestLimiter: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		store.TableConversation: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "chat_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		store.TableShortURL: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "url", Value: 1}}},
		},
	}

	for logical, models := range specs {
		if _, err := s.coll(logical).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", logical, err)
		}
	}
	return nil
}

// Connected reports whether the server still answers a ping.
func (s *MongoStore) Connected() bool {
	if s == nil || s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary()) == nil
}

// Tables exposes the logical-to-physical name mapping.
func (s *MongoStore) Tables() store.Tables { return s.tables }

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
