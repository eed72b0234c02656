package auth

import "errors"

var (
	// ErrDisabled indicates the auth module is configured off or the
	// provider client was never constructed.
	ErrDisabled = errors.New("auth: disabled")

	// ErrProviderRequired indicates an operation that cannot run without a
	// provider client.
	ErrProviderRequired = errors.New("auth: provider client required")

	// ErrDatabaseRequired indicates a direct-store lookup without a
	// database handle.
	ErrDatabaseRequired = errors.New("auth: database required")
)
