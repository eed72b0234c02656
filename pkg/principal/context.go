package principal

import "context"

type principalContextKey struct{}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext retrieves the principal from the context.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

// HasRoleInContext checks the role predicate against the principal in context.
// A missing principal still satisfies "everyone".
func HasRoleInContext(ctx context.Context, role string) bool {
	p, _ := FromContext(ctx)
	return p.HasRole(role)
}
