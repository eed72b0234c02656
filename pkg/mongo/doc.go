// Package mongo connects to the application database shared with the auth
// provider. Several collections are read directly (users, sessions, jwks,
// webauthn_challenges), which is why the provider and this module must agree
// on one live database before either starts serving.
//
// Connect implements a bounded startup poll rather than lazy connection:
// fixed attempts at a fixed interval, then a hard failure. Everything after
// startup treats database trouble as a degraded mode, never as a reason to
// crash.
package mongo
