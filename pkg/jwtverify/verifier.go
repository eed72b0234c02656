package jwtverify

import (
	"context"
	"errors"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
)

// Claims is the verified JWT payload handed to the reconciliation layer.
type Claims struct {
	Subject  string           `json:"sub"`
	Email    string           `json:"email,omitempty"`
	Name     string           `json:"name,omitempty"`
	Issuer   string           `json:"iss,omitempty"`
	Audience jwt.Audience     `json:"aud,omitempty"`
	Expiry   *jwt.NumericDate `json:"exp,omitempty"`
}

// Verifier validates provider-issued JWTs. HS256 tokens are checked against
// the shared secret; anything else is resolved to public key material by kid
// through the KeySource. Expected issuer and audience both default to the
// application base URL, which is how the provider fills them in.
type Verifier struct {
	secret   string
	keys     KeySource
	issuer   string
	audience string
}

// Option is a functional option for Verifier.
type Option func(*Verifier)

// WithSharedSecret enables HS256 verification.
func WithSharedSecret(secret string) Option {
	return func(v *Verifier) { v.secret = secret }
}

// WithKeySource enables asymmetric verification by kid.
func WithKeySource(keys KeySource) Option {
	return func(v *Verifier) { v.keys = keys }
}

// New creates a verifier expecting the given issuer/audience (typically the
// application base URL for both).
func New(issuer, audience string, opts ...Option) *Verifier {
	v := &Verifier{
		issuer:   issuer,
		audience: audience,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates the token, returning its claims. All parse and
// signature failures come back as wrapped sentinel errors — the caller maps
// every failure to "unauthenticated", so the distinction only matters for
// logs.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if len(parsed.Headers) == 0 {
		return nil, ErrInvalidToken
	}

	// The header is read before any verification to pick the right key;
	// nothing from the token is trusted until Claims() passes below.
	header := parsed.Headers[0]

	var claims Claims
	if jose.SignatureAlgorithm(header.Algorithm) == jose.HS256 {
		if v.secret == "" {
			return nil, ErrMissingSecret
		}
		if err := parsed.Claims([]byte(v.secret), &claims); err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
	} else {
		if v.keys == nil {
			return nil, ErrKeySourceRequired
		}
		key, err := v.keys.Key(ctx, header.KeyID)
		if err != nil {
			return nil, err
		}
		if err := parsed.Claims(key, &claims); err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}

	if err := v.validate(&claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

func (v *Verifier) validate(claims *Claims) error {
	if claims.Subject == "" {
		return ErrMissingSubject
	}
	if claims.Expiry != nil && time.Now().After(claims.Expiry.Time()) {
		return ErrTokenExpired
	}
	// A token that omits iss or aud is rejected, not waved through: the
	// provider always fills both with the base URL.
	if v.issuer != "" && claims.Issuer != v.issuer {
		return ErrInvalidToken
	}
	if v.audience != "" && !claims.Audience.Contains(v.audience) {
		return ErrInvalidToken
	}
	return nil
}
