package providerhttp

import "errors"

var (
	// ErrMissingSecret indicates signing was requested without a secret.
	// In production this is a hard misconfiguration, never skipped quietly.
	ErrMissingSecret = errors.New("providerhttp: signing secret is not configured")

	// ErrMissingBaseURL indicates the provider base URL is not configured.
	ErrMissingBaseURL = errors.New("providerhttp: base URL is not configured")

	// ErrInvalidSignedValue indicates a malformed value.signature pair.
	ErrInvalidSignedValue = errors.New("providerhttp: invalid signed value format")

	// ErrInvalidSignature indicates the signature does not match.
	ErrInvalidSignature = errors.New("providerhttp: invalid signature")
)
