package challenge

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the Mongo collection challenges are stored in.
const DefaultCollection = "webauthn_challenges"

// MongoStore persists challenges in MongoDB so stateless deployments can
// resume a ceremony on any replica. A TTL index on expires_at handles
// eviction server-side.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a Mongo-backed challenge store and ensures the TTL
// index exists.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	coll := db.Collection(DefaultCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, ch *Challenge) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": ch.ID},
		ch,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Challenge, error) {
	var ch Challenge
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	// The TTL monitor runs about once a minute, so expiry is still checked
	// locally.
	if time.Now().After(ch.ExpiresAt) {
		return nil, ErrNotFound
	}

	return &ch, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
