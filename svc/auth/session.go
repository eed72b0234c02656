package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/authbridge/pkg/jwtverify"
	"github.com/dmitrymomot/authbridge/pkg/providerhttp"
	"github.com/dmitrymomot/authbridge/provider"
)

// GetSession resolves the current session through the provider using adapted
// request headers. Any failure, including a disabled module, yields an empty
// result — callers treat that as unauthenticated.
func (s *Service) GetSession(ctx context.Context, r *http.Request) *provider.SessionResult {
	if !s.Enabled() {
		return &provider.SessionResult{}
	}

	headers, err := s.AdaptedHeaders(r, s.ExtractToken(r))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to adapt session request", "error", err)
		return &provider.SessionResult{}
	}

	res, err := s.client.GetSession(ctx, headers)
	if err != nil {
		s.logger.DebugContext(ctx, "provider session lookup failed", "error", err)
		return &provider.SessionResult{}
	}
	if res == nil {
		return &provider.SessionResult{}
	}
	return res
}

// GetSessionByToken resolves a session directly from the provider's Mongo
// collections, bypassing its API. Used for bearer-token requests that never
// passed through provider middleware. The users join tolerates the three
// user-id representations found in the wild: ObjectID, hex-string ObjectID,
// and a plain string id field.
func (s *Service) GetSessionByToken(ctx context.Context, token string) *provider.SessionResult {
	if s.db == nil || token == "" {
		return &provider.SessionResult{}
	}

	var sessDoc bson.M
	err := s.db.Collection(s.cfg.SessionsCollection).
		FindOne(ctx, bson.M{"token": token}).Decode(&sessDoc)
	if err != nil {
		return &provider.SessionResult{}
	}

	sess := &provider.Session{
		ID:     docString(sessDoc, "id", "_id"),
		Token:  token,
		UserID: rawString(sessDoc["userId"]),
	}
	if t, ok := sessDoc["expiresAt"].(bson.DateTime); ok {
		sess.ExpiresAt = t.Time()
	}
	if sess.IsExpired() {
		return &provider.SessionResult{}
	}

	var userDoc bson.M
	err = s.db.Collection(s.cfg.UsersCollection).
		FindOne(ctx, userIDFilter(sessDoc["userId"])).Decode(&userDoc)
	if err != nil {
		s.logger.DebugContext(ctx, "session user lookup failed", "error", err)
		return &provider.SessionResult{}
	}

	user := &provider.SessionUser{
		ID:    docString(userDoc, "id", "_id"),
		Email: rawString(userDoc["email"]),
		Name:  rawString(userDoc["name"]),
		Image: rawString(userDoc["image"]),
	}
	if v, ok := userDoc["emailVerified"].(bool); ok {
		user.EmailVerified = v
	}
	if t, ok := userDoc["createdAt"].(bson.DateTime); ok {
		user.CreatedAt = t.Time()
	}

	return &provider.SessionResult{Session: sess, User: user}
}

// VerifyJWT validates a provider-issued JWT and returns its claims, or nil
// on any failure. Callers never see verification errors, only the
// authenticated/unauthenticated distinction.
func (s *Service) VerifyJWT(ctx context.Context, token string) *jwtverify.Claims {
	if !s.cfg.JWT.Enabled() || token == "" {
		return nil
	}

	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.DebugContext(ctx, "jwt verification failed", "error", err)
		return nil
	}
	return claims
}

// RevokeSession asks the provider to revoke the session. Best effort: false
// on any failure, never an error.
func (s *Service) RevokeSession(ctx context.Context, headers http.Header, token string) bool {
	if !s.Enabled() {
		return false
	}
	if err := s.client.SignOut(ctx, headers, token); err != nil {
		s.logger.DebugContext(ctx, "session revocation failed", "error", err)
		return false
	}
	return true
}

// ExtractToken pulls the session token from the request: session cookies in
// priority order first (unwrapping signed values), then a bearer header. An
// empty return means no credential was presented.
func (s *Service) ExtractToken(r *http.Request) string {
	for _, name := range s.cfg.CookieNames() {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			continue
		}

		value := c.Value
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		if s.cfg.Secret != "" {
			if bare, err := providerhttp.VerifyValue(value, s.cfg.Secret); err == nil {
				return bare
			}
		}
		return value
	}

	return BearerToken(r)
}

// BearerToken returns the Authorization bearer token, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// userIDFilter builds the user lookup filter for a session's userId value,
// spanning every id representation older records use.
func userIDFilter(v any) bson.M {
	switch id := v.(type) {
	case bson.ObjectID:
		return bson.M{"_id": id}
	case string:
		clauses := bson.A{bson.M{"_id": id}, bson.M{"id": id}}
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			clauses = append(clauses, bson.M{"_id": oid})
		}
		return bson.M{"$or": clauses}
	default:
		return bson.M{"_id": nil}
	}
}

func docString(doc bson.M, keys ...string) string {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case bson.ObjectID:
			return v.Hex()
		}
	}
	return ""
}

func rawString(v any) string {
	s, _ := v.(string)
	return s
}
