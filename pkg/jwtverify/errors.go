package jwtverify

import "errors"

var (
	ErrInvalidToken      = errors.New("jwtverify: invalid token")
	ErrTokenExpired      = errors.New("jwtverify: token is expired")
	ErrMissingSubject    = errors.New("jwtverify: token has no subject claim")
	ErrUnknownKey        = errors.New("jwtverify: unknown signing key")
	ErrMissingSecret     = errors.New("jwtverify: shared secret is not configured")
	ErrKeySourceRequired = errors.New("jwtverify: key source is required for asymmetric tokens")
)
