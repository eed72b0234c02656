package provider

import "time"

// SessionUser is the external identity as the provider returns it. It is an
// immutable per-request snapshot; the local user store owns nothing in it.
type SessionUser struct {
	ID            string    `json:"id" bson:"id"`
	Email         string    `json:"email" bson:"email"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	EmailVerified bool      `json:"emailVerified,omitempty" bson:"emailVerified,omitempty"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Session is the provider-issued session record.
type Session struct {
	ID        string    `json:"id" bson:"id"`
	Token     string    `json:"token" bson:"token"`
	UserID    string    `json:"userId" bson:"userId"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return s != nil && !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SessionResult pairs a provider session with its user. Both fields are nil
// when no valid session exists; callers treat that as "unauthenticated", not
// as an error.
type SessionResult struct {
	Session *Session     `json:"session"`
	User    *SessionUser `json:"user"`
}

// Empty reports whether the result carries no session.
func (r *SessionResult) Empty() bool {
	return r == nil || r.Session == nil || r.User == nil
}

// TwoFactorSetup is returned when 2FA is enabled for an account.
type TwoFactorSetup struct {
	TOTPURI     string   `json:"totpURI"`
	BackupCodes []string `json:"backupCodes,omitempty"`
}

// Passkey describes a registered WebAuthn credential.
type Passkey struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	DeviceType string    `json:"deviceType,omitempty"`
	BackedUp   bool      `json:"backedUp,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// CeremonyOptions carries the provider's WebAuthn ceremony options along with
// the opaque verification token the completion call must present.
type CeremonyOptions struct {
	Options           []byte `json:"options"`
	VerificationToken string `json:"-"`
}
