// Package provider defines the consumed surface of the external auth
// provider and a thin HTTP client for it.
//
// The provider owns all authentication machinery: password hashing, session
// issuance, TOTP, WebAuthn ceremonies, OAuth flows, token signing. This
// package never reimplements any of it. What it does own is the boundary:
// loosely shaped provider responses are decoded exactly once, into tagged
// variants like SignInOutcome, so downstream code switches on a Kind instead
// of duck-typing JSON.
//
// Optional plugin surfaces (2FA, passkeys) are modeled as capability queries
// — TwoFactor() and Passkey() answer from configuration declared at
// construction, never by probing the provider per call.
package provider
