// Package auth is the HTTP and GraphQL surface of the authentication
// bridge. It mounts under a configurable base path (default /iam) and
// intercepts the handful of routes that need local-store integration —
// sign-in, sign-up, sign-out, session, 2FA and passkey management — while
// forwarding every other provider path verbatim to the provider's native
// handler.
//
// The module owns the session cookies. Tokens are written signed under the
// primary, provider-native and legacy cookie names, and are never echoed in
// a JSON body. The GraphQL schema exposes the same operations as the REST
// routes, sharing the underlying flow implementations, with failures encoded
// as typed errors (extensions.code).
package auth
