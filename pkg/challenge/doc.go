// Package challenge bridges stateless (JWT) operation with the auth
// provider's cookie-bound WebAuthn challenge flow.
//
// When a passkey ceremony begins, the provider issues an opaque verification
// token that it normally round-trips through a cookie. In stateless mode that
// cookie never comes back, so the Service stores the token under a locally
// generated challenge id and hands the id to the client instead. On ceremony
// completion the id is resolved back to the token and, only after a
// successful verification, consumed. Failed verifications leave the mapping
// in place so the client can retry until the TTL runs out.
//
// Storage is pluggable: MongoStore for multi-replica deployments, MemoryStore
// for single-process use and tests. A nil store disables the bridge entirely
// and ceremonies fall through to the provider untouched.
package challenge
