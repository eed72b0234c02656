package principal

import "slices"

// Reserved role names with special evaluation rules. They are never stored on
// a user record; HasRole resolves them from the principal state instead.
const (
	RoleEveryone      = "everyone"      // matches any caller, authenticated or not
	RoleNoOne         = "no-one"        // matches nobody, useful to lock an endpoint down
	RoleAuthenticated = "authenticated" // matches any non-nil principal
	RoleVerified      = "verified"      // matches principals with a verified email
	RoleUser          = "user"          // default role assigned on first reconciliation
)

// Principal is the reconciled, request-scoped identity produced by mapping a
// provider session user onto the local user store. It is constructed fresh per
// request and never persisted.
type Principal struct {
	// ID is the local user record id, or the provider id when no local
	// record exists.
	ID string `json:"id"`

	// IAMID is the provider-issued identifier (back-reference to the
	// external identity).
	IAMID string `json:"iamId,omitempty"`

	Email    string   `json:"email,omitempty"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles"`
	Verified bool     `json:"verified"`
}

// HasRole reports whether the principal satisfies the given role. The reserved
// roles are evaluated by rule, everything else by set membership. A nil
// principal only satisfies "everyone", which keeps upstream null-checks out of
// authorization call sites.
func (p *Principal) HasRole(role string) bool {
	switch role {
	case RoleEveryone:
		return true
	case RoleNoOne:
		return false
	}

	if p == nil {
		return false
	}

	switch role {
	case RoleAuthenticated:
		return true
	case RoleVerified:
		return p.Verified
	}

	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the principal satisfies at least one of the roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}
