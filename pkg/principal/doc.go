// Package principal defines the request-scoped identity produced by the
// session reconciliation layer and the role predicate used for authorization
// checks downstream.
//
// A Principal pairs the local user record with the provider identity it was
// reconciled from. The HasRole predicate special-cases a handful of reserved
// roles ("everyone", "no-one", "authenticated", "verified") and falls back to
// set membership for everything else, so route guards never need to know where
// a role came from.
package principal
