package challenge

import "errors"

var (
	// ErrNotFound indicates the challenge id is unknown, expired, or
	// already consumed.
	ErrNotFound = errors.New("challenge: not found")

	// ErrStoreUnavailable indicates the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("challenge: store unavailable")

	// ErrDisabled indicates the challenge bridge is not configured.
	ErrDisabled = errors.New("challenge: store disabled")
)
