// Package legacypass implements the password normalization shared with the
// pre-provider user store.
//
// The legacy application never sent raw passwords to its auth backend: it
// applied a fixed SHA-256 based transform client-side first. To let existing
// accounts keep their credentials, the same transform is applied before every
// provider sign-in/sign-up, and the legacy `password` field keeps a bcrypt
// hash of the transformed value for the one-shot migration path.
package legacypass

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Transform applies the deterministic legacy normalization to a raw
// password. The transform is fixed and not reversible; changing it would
// lock every migrated account out.
func Transform(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Hash produces the bcrypt hash stored in the legacy password field.
func Hash(transformed string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(transformed), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks a transformed password against a stored legacy bcrypt hash.
func Verify(transformed, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(transformed)) == nil
}
