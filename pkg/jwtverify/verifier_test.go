package jwtverify_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authbridge/pkg/jwtverify"
)

const (
	baseURL = "https://app.example.com"
	secret  = "test-shared-secret-test-shared-secret"
)

func signHS256(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(key)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	raw, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	require.NoError(t, err)
	return raw
}

func defaultClaims() jwt.Claims {
	return jwt.Claims{
		Subject:  "user-1",
		Issuer:   baseURL,
		Audience: jwt.Audience{baseURL},
		Expiry:   jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerifyHS256(t *testing.T) {
	t.Parallel()

	v := jwtverify.New(baseURL, baseURL, jwtverify.WithSharedSecret(secret))
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		claims, err := v.Verify(ctx, signHS256(t, secret, defaultClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		claims, err := v.Verify(ctx, signHS256(t, "completely-different-secret-value-42", defaultClaims()))
		assert.ErrorIs(t, err, jwtverify.ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		c := defaultClaims()
		c.Expiry = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		_, err := v.Verify(ctx, signHS256(t, secret, c))
		assert.ErrorIs(t, err, jwtverify.ErrTokenExpired)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()
		c := defaultClaims()
		c.Subject = ""

		_, err := v.Verify(ctx, signHS256(t, secret, c))
		assert.ErrorIs(t, err, jwtverify.ErrMissingSubject)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		c := defaultClaims()
		c.Issuer = "https://evil.example.com"

		_, err := v.Verify(ctx, signHS256(t, secret, c))
		assert.ErrorIs(t, err, jwtverify.ErrInvalidToken)
	})

	t.Run("missing issuer", func(t *testing.T) {
		t.Parallel()
		c := defaultClaims()
		c.Issuer = ""

		_, err := v.Verify(ctx, signHS256(t, secret, c))
		assert.ErrorIs(t, err, jwtverify.ErrInvalidToken)
	})

	t.Run("missing audience", func(t *testing.T) {
		t.Parallel()
		c := defaultClaims()
		c.Audience = nil

		_, err := v.Verify(ctx, signHS256(t, secret, c))
		assert.ErrorIs(t, err, jwtverify.ErrInvalidToken)
	})

	t.Run("garbage input never panics", func(t *testing.T) {
		t.Parallel()
		for _, token := range []string{"", "x", "a.b", "a.b.c", "....."} {
			_, err := v.Verify(ctx, token)
			assert.Error(t, err)
		}
	})

	t.Run("no secret configured", func(t *testing.T) {
		t.Parallel()
		bare := jwtverify.New(baseURL, baseURL)
		_, err := bare.Verify(ctx, signHS256(t, secret, defaultClaims()))
		assert.ErrorIs(t, err, jwtverify.ErrMissingSecret)
	})
}

func TestVerifyAsymmetric(t *testing.T) {
	t.Parallel()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: priv, KeyID: "kid-1"}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	raw, err := jwt.Signed(sig).Claims(defaultClaims()).CompactSerialize()
	require.NoError(t, err)

	keys := jwtverify.StaticKeySource{
		"kid-1": {Key: priv.Public(), KeyID: "kid-1", Algorithm: "RS256", Use: "sig"},
	}
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		v := jwtverify.New(baseURL, baseURL, jwtverify.WithKeySource(keys))

		claims, err := v.Verify(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("unknown kid", func(t *testing.T) {
		t.Parallel()
		v := jwtverify.New(baseURL, baseURL, jwtverify.WithKeySource(jwtverify.StaticKeySource{}))

		claims, err := v.Verify(ctx, raw)
		assert.ErrorIs(t, err, jwtverify.ErrUnknownKey)
		assert.Nil(t, claims)
	})

	t.Run("wrong key for kid", func(t *testing.T) {
		t.Parallel()
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		v := jwtverify.New(baseURL, baseURL, jwtverify.WithKeySource(jwtverify.StaticKeySource{
			"kid-1": {Key: other.Public(), KeyID: "kid-1", Algorithm: "RS256", Use: "sig"},
		}))

		_, err = v.Verify(ctx, raw)
		assert.ErrorIs(t, err, jwtverify.ErrInvalidToken)
	})

	t.Run("no key source configured", func(t *testing.T) {
		t.Parallel()
		v := jwtverify.New(baseURL, baseURL)

		_, err := v.Verify(ctx, raw)
		assert.ErrorIs(t, err, jwtverify.ErrKeySourceRequired)
	})
}
