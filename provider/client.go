package provider

import (
	"context"
	"net/http"
)

// Client is the consumed surface of the external auth provider. The provider
// implements the actual authentication machinery — password hashing, session
// issuance, TOTP, WebAuthn ceremonies, token signing — none of which is
// reimplemented on this side.
//
// Optional plugin surfaces are exposed as capability queries resolved once at
// construction from declared configuration, never probed per call.
type Client interface {
	// Handler returns the provider's native HTTP surface. Paths not
	// intercepted locally are forwarded here verbatim.
	Handler() http.Handler

	// SignInEmail authenticates email/password credentials. The caller's
	// request headers travel along so the provider sees cookies, user
	// agent and origin.
	SignInEmail(ctx context.Context, headers http.Header, email, password string) (*SignInOutcome, error)

	// SignUpEmail registers a new account.
	SignUpEmail(ctx context.Context, headers http.Header, email, password, name string) (*SignInOutcome, error)

	// SignOut revokes the session identified by the request headers or the
	// given token. Best effort.
	SignOut(ctx context.Context, headers http.Header, token string) error

	// GetSession resolves the current session from request headers.
	// An empty SessionResult (not an error) means unauthenticated.
	GetSession(ctx context.Context, headers http.Header) (*SessionResult, error)

	// TwoFactor returns the 2FA sub-client when the plugin is configured.
	TwoFactor() (TwoFactorClient, bool)

	// Passkey returns the WebAuthn sub-client when the plugin is configured.
	Passkey() (PasskeyClient, bool)
}

// TwoFactorClient is the provider's optional 2FA plugin surface.
type TwoFactorClient interface {
	// Verify checks a TOTP or backup code and completes the pending
	// sign-in.
	Verify(ctx context.Context, headers http.Header, code string, trustDevice bool) (*SignInOutcome, error)

	// Enable turns 2FA on for the authenticated user and returns the TOTP
	// enrollment material.
	Enable(ctx context.Context, headers http.Header, password string) (*TwoFactorSetup, error)

	// Disable turns 2FA off for the authenticated user.
	Disable(ctx context.Context, headers http.Header, password string) error

	// GenerateBackupCodes replaces the user's backup codes.
	GenerateBackupCodes(ctx context.Context, headers http.Header, password string) ([]string, error)
}

// PasskeyClient is the provider's optional WebAuthn plugin surface.
type PasskeyClient interface {
	// BeginRegistration starts a credential registration ceremony.
	BeginRegistration(ctx context.Context, headers http.Header) (*CeremonyOptions, error)

	// BeginAuthentication starts an authentication ceremony.
	BeginAuthentication(ctx context.Context, headers http.Header) (*CeremonyOptions, error)

	// List returns the user's registered passkeys.
	List(ctx context.Context, headers http.Header) ([]Passkey, error)

	// Delete removes a passkey by id.
	Delete(ctx context.Context, headers http.Header, id string) error
}
