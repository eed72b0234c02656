package identity

import (
	"strings"
	"time"
)

// User is the persisted application user record. It predates the external
// auth provider, which is why it carries both its own id and the provider's
// (iam_id) plus a legacy password hash.
type User struct {
	ID        string    `bson:"-" json:"id"`
	Email     string    `bson:"email" json:"email"`
	IAMID     string    `bson:"iam_id,omitempty" json:"iamId,omitempty"`
	FirstName string    `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName  string    `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Verified  bool      `bson:"verified" json:"verified"`
	Roles     []string  `bson:"roles" json:"roles"`
	Password  string    `bson:"password,omitempty" json:"-"` // legacy bcrypt hash, optional
	Avatar    string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// FullName joins the stored name parts.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SplitName splits a display name into first/last the way the legacy app
// did: first space-delimited token is the first name, the remainder the
// last. An empty name yields two empty strings.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	first, last, found := strings.Cut(name, " ")
	if !found {
		return first, ""
	}
	return first, strings.TrimSpace(last)
}
