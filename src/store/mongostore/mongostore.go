// Package mongostore implements store.Store on the official MongoDB driver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

const (
	usersCollection         = "users"
	requestsCollection      = "connectionrequests"
	notificationsCollection = "notifications"
)

type Config struct {
	URI      string
	Database string

	// Transactions runs accept inside a multi-document transaction. Requires
	// a replica set or mongos; standalone servers fall back to ordered writes.
	Transactions bool

	ConnectTimeout time.Duration
}

type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	users         *mongo.Collection
	requests      *mongo.Collection
	notifications *mongo.Collection
	transactions  bool
}

var _ store.Store = (*Store)(nil)

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logging.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")
	return New(client, cfg.Database, cfg.Transactions), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string, transactions bool) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		db:            db,
		users:         db.Collection(usersCollection),
		requests:      db.Collection(requestsCollection),
		notifications: db.Collection(notificationsCollection),
		transactions:  transactions,
	}
}

// Migrate creates the indexes. The partial unique index on (sender, receiver)
// restricted to pending requests is what enforces one pending request per pair.
func (s *Store) Migrate(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.requests: {
			{
				Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}},
				Options: options.Index().
					SetName("pending_pair_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(models.ConnectionStatusPending)}),
			},
			{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.notifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}

	logging.Info().Msg("MongoDB indexes ensured")
	return nil
}

// Drop removes the whole database.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}

// oid parses a hex id. Malformed ids cannot match any document.
func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return o, nil
}

func oids(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if o, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, o)
		}
	}
	return out
}

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func pageOptions(page store.Page) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Skip())).
		SetLimit(int64(page.Limit))
}
