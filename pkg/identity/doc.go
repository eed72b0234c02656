// Package identity reconciles provider-issued identities with the legacy
// local user collection.
//
// The local store predates the external auth provider. Users may exist there
// without a provider account (legacy), with one (linked via iam_id), or not
// at all (provider-first sign-ups). The Mapper bridges the three cases: it
// resolves a provider session user to a local record by email OR iam_id,
// copies roles and verification state onto a request-scoped principal, and
// link-or-creates records through a single atomic upsert so concurrent first
// logins cannot duplicate a user.
//
// Failure policy follows the degraded-mode rule: a missing record is normal
// control flow, an unreachable store downgrades to a synthesized principal
// (mapping) or an error (writes), and no store error ever escapes as an
// exception to the HTTP layer.
package identity
