package challenge

import "time"

// Ceremony identifies the WebAuthn ceremony a challenge belongs to.
type Ceremony string

const (
	CeremonyRegistration   Ceremony = "registration"
	CeremonyAuthentication Ceremony = "authentication"
)

// Challenge maps a locally generated id to the opaque verification token the
// provider issued for a WebAuthn ceremony. It exists only to bridge stateless
// (JWT) operation with the provider's cookie-bound challenge mechanism.
type Challenge struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"-"`
	UserID    string    `bson:"user_id" json:"userId,omitempty"`
	Ceremony  Ceremony  `bson:"ceremony" json:"ceremony"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
}

// IsExpired reports whether the challenge has outlived its TTL.
func (c *Challenge) IsExpired() bool {
	return c != nil && time.Now().After(c.ExpiresAt)
}
