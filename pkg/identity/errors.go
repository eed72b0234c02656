package identity

import "errors"

var (
	// ErrNotFound indicates no user record matches the lookup key.
	ErrNotFound = errors.New("identity: user not found")

	// ErrEmailRequired indicates an upsert without an email.
	ErrEmailRequired = errors.New("identity: email is required")

	// ErrStoreUnavailable indicates the user collection cannot be reached.
	ErrStoreUnavailable = errors.New("identity: user store unavailable")

	// ErrInvalidProviderUser indicates a provider user lacking both id and
	// email.
	ErrInvalidProviderUser = errors.New("identity: provider user has neither id nor email")
)
