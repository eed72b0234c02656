package jwtverify

import (
	"context"
	"encoding/json"
	"errors"

	jose "github.com/go-jose/go-jose/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// KeySource resolves public key material by JWT key id.
type KeySource interface {
	// Key returns the public JWK for the given kid, or ErrUnknownKey.
	Key(ctx context.Context, kid string) (*jose.JSONWebKey, error)
}

// DefaultKeysCollection is where the provider persists its signing keys.
const DefaultKeysCollection = "jwks"

// jwksRecord mirrors the provider's key document. The public key is stored
// as serialized JWK JSON.
type jwksRecord struct {
	ID        string `bson:"id"`
	PublicKey string `bson:"publicKey"`
}

// MongoKeySource reads provider-issued signing keys from the jwks collection.
type MongoKeySource struct {
	coll *mongo.Collection
}

// NewMongoKeySource creates a key source over the provider's jwks collection.
func NewMongoKeySource(db *mongo.Database) *MongoKeySource {
	return &MongoKeySource{coll: db.Collection(DefaultKeysCollection)}
}

func (s *MongoKeySource) Key(ctx context.Context, kid string) (*jose.JSONWebKey, error) {
	var rec jwksRecord
	err := s.coll.FindOne(ctx, bson.M{"id": kid}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUnknownKey
		}
		return nil, err
	}

	var key jose.JSONWebKey
	if err := json.Unmarshal([]byte(rec.PublicKey), &key); err != nil {
		return nil, errors.Join(ErrUnknownKey, err)
	}
	if !key.Valid() || !key.IsPublic() {
		return nil, ErrUnknownKey
	}

	return &key, nil
}

// StaticKeySource serves keys from a fixed map, mainly for tests.
type StaticKeySource map[string]*jose.JSONWebKey

func (s StaticKeySource) Key(ctx context.Context, kid string) (*jose.JSONWebKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}
