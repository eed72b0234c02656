package identity

import "context"

// Upsert describes a link-or-create write. Email is the hard precondition;
// everything optional is a pointer so "not provided" and "clear" stay
// distinguishable.
type Upsert struct {
	Email    string
	IAMID    string
	Name     *string // display name, split into first/last on write
	Verified *bool
	Avatar   *string
	Password *string // legacy hash, already transformed+hashed by the caller

	// Extra carries caller-supplied fields merged into the $set document.
	Extra map[string]any
}

// UserStore is the local user collection. Lookup and upsert both key on the
// logical OR of email and iam_id so a record stays reachable through either
// identity.
type UserStore interface {
	// FindByEmailOrIAMID returns the first record matching either key, or
	// ErrNotFound. Empty arguments are excluded from the filter.
	FindByEmailOrIAMID(ctx context.Context, email, iamID string) (*User, error)

	// UpsertUser atomically updates the record matching the OR key, or
	// inserts a fresh one with default role and created_at. A single
	// conditional update, never read-then-write: two concurrent first
	// logins for the same user must not create two records.
	UpsertUser(ctx context.Context, up Upsert) (*User, error)
}
