package provider

import "errors"

var (
	// ErrNotConfigured indicates the provider client was not initialized.
	ErrNotConfigured = errors.New("provider: client is not configured")

	// ErrPluginUnavailable indicates an optional plugin surface was used
	// without being configured.
	ErrPluginUnavailable = errors.New("provider: plugin is not available")

	// ErrUnavailable wraps transport-level failures reaching the provider.
	ErrUnavailable = errors.New("provider: unavailable")
)
