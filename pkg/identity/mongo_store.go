package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/authbridge/pkg/principal"
)

// DefaultCollection is the legacy users collection name.
const DefaultCollection = "users"

// MongoStore implements UserStore over the legacy users collection. Records
// in that collection were written by several generations of the application,
// so decoding is defensive: roles may be missing or malformed, ids may be
// ObjectIDs or strings.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the given database's users collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(DefaultCollection)}
}

func (s *MongoStore) FindByEmailOrIAMID(ctx context.Context, email, iamID string) (*User, error) {
	filter := orKeyFilter(email, iamID)
	if filter == nil {
		return nil, ErrNotFound
	}

	var doc bson.M
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return decodeUser(doc), nil
}

func (s *MongoStore) UpsertUser(ctx context.Context, up Upsert) (*User, error) {
	if up.Email == "" {
		return nil, ErrEmailRequired
	}

	now := time.Now()
	set := bson.M{
		"email":      up.Email,
		"updated_at": now,
	}
	if up.IAMID != "" {
		set["iam_id"] = up.IAMID
	}
	if up.Name != nil {
		first, last := SplitName(*up.Name)
		if first != "" {
			set["first_name"] = first
		}
		if last != "" {
			set["last_name"] = last
		}
	}
	if up.Verified != nil {
		set["verified"] = *up.Verified
	}
	if up.Avatar != nil {
		set["avatar"] = *up.Avatar
	}
	if up.Password != nil {
		set["password"] = *up.Password
	}
	for k, v := range up.Extra {
		set[k] = v
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at": now,
			"roles":      bson.A{principal.RoleUser},
		},
	}

	var doc bson.M
	err := s.coll.FindOneAndUpdate(ctx,
		orKeyFilter(up.Email, up.IAMID),
		update,
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return decodeUser(doc), nil
}

// orKeyFilter builds the logical find-or-create key spanning email and
// iam_id. Returns nil when both are empty.
func orKeyFilter(email, iamID string) bson.M {
	var clauses bson.A
	if email != "" {
		clauses = append(clauses, bson.M{"email": email})
	}
	if iamID != "" {
		clauses = append(clauses, bson.M{"iam_id": iamID})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0].(bson.M)
	default:
		return bson.M{"$or": clauses}
	}
}

// decodeUser maps a raw legacy document onto the User type, tolerating the
// field shapes older application versions left behind.
func decodeUser(doc bson.M) *User {
	u := &User{
		ID:        stringID(doc["_id"]),
		Email:     asString(doc["email"]),
		IAMID:     asString(doc["iam_id"]),
		FirstName: asString(doc["first_name"]),
		LastName:  asString(doc["last_name"]),
		Password:  asString(doc["password"]),
		Avatar:    asString(doc["avatar"]),
		Roles:     normalizeRoles(doc["roles"]),
	}

	if v, ok := doc["verified"].(bool); ok {
		u.Verified = v
	}
	if t, ok := doc["created_at"].(bson.DateTime); ok {
		u.CreatedAt = t.Time()
	}
	if t, ok := doc["updated_at"].(bson.DateTime); ok {
		u.UpdatedAt = t.Time()
	}

	return u
}

// normalizeRoles coerces whatever the roles field holds into a string
// slice. Anything malformed collapses to an empty slice, never an error.
func normalizeRoles(v any) []string {
	arr, ok := v.(bson.A)
	if !ok {
		return []string{}
	}

	roles := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			roles = append(roles, s)
		}
	}
	return roles
}

// stringID renders a document id that may be an ObjectID or a plain string.
func stringID(v any) string {
	switch id := v.(type) {
	case bson.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
