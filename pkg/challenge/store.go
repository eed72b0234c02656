package challenge

import "context"

// Store persists challenge mappings. In stateless mode the backing store must
// survive across requests (Mongo); the in-memory implementation only suits
// single-process deployments and tests.
type Store interface {
	// Put saves the challenge, replacing any previous one with the same id.
	Put(ctx context.Context, ch *Challenge) error

	// Get returns the challenge by id, or ErrNotFound.
	// Expired challenges are treated as missing.
	Get(ctx context.Context, id string) (*Challenge, error)

	// Delete removes the challenge. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
