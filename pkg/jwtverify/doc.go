// Package jwtverify validates JWTs issued by the external auth provider.
//
// The provider signs tokens either symmetrically (HS256 with the shared
// application secret) or asymmetrically with rotating keys persisted in its
// jwks collection. The Verifier reads the unverified header only to choose
// the verification path — HS256 against the shared secret, anything else by
// resolving the kid through a KeySource — and then requires issuer, audience,
// expiry and a non-empty subject to hold.
//
// Every failure is an error return; nothing in this package panics on
// malformed input.
package jwtverify
