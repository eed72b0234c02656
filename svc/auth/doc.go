// Package auth is the facade over the external auth provider: enablement and
// feature resolution, session lookup (through the provider API, a direct
// session-store fallback, or JWT verification), best-effort revocation, and
// the session middleware that turns request credentials into a context
// principal.
//
// The package's error policy is deliberate: methods return empty results,
// nil, or false instead of errors. Authentication state is the only thing a
// caller can act on; the failure cause goes to the log.
package auth
