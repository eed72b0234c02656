package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dmitrymomot/authbridge/pkg/legacypass"
	"github.com/dmitrymomot/authbridge/pkg/principal"
	"github.com/dmitrymomot/authbridge/provider"
)

// Mapper reconciles provider session users with the local user store and
// produces the request-scoped principal downstream authorization checks use.
type Mapper struct {
	store      UserStore // nil means degraded mode: principals are synthesized
	logger     *slog.Logger
	bcryptCost int
}

// MapperOption is a functional option for Mapper.
type MapperOption func(*Mapper)

// WithLogger sets a custom logger for the mapper.
func WithLogger(logger *slog.Logger) MapperOption {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBcryptCost sets the bcrypt cost used for the legacy password field.
func WithBcryptCost(cost int) MapperOption {
	return func(m *Mapper) {
		m.bcryptCost = cost
	}
}

// NewMapper creates a mapper over the local user store. A nil store is
// allowed and puts the mapper in degraded mode.
func NewMapper(store UserStore, opts ...MapperOption) *Mapper {
	m := &Mapper{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// MapSessionUser resolves a provider user to a principal.
//
// A nil return always means "treat as unauthenticated" — store failures are
// logged here and swallowed so an auth hiccup never turns into a 500 for the
// caller.
func (m *Mapper) MapSessionUser(ctx context.Context, pu *provider.SessionUser) *principal.Principal {
	if pu == nil || (pu.ID == "" && pu.Email == "") {
		return nil
	}

	if m.store == nil {
		// Degraded mode: no local store, synthesize from provider data.
		m.logger.WarnContext(ctx, "user store unreachable, synthesizing principal",
			"iam_id", pu.ID)
		return &principal.Principal{
			ID:       pu.ID,
			IAMID:    pu.ID,
			Email:    pu.Email,
			Name:     pu.Name,
			Roles:    []string{principal.RoleUser},
			Verified: pu.EmailVerified,
		}
	}

	user, err := m.store.FindByEmailOrIAMID(ctx, pu.Email, pu.ID)
	switch {
	case err == nil:
		return &principal.Principal{
			ID:       user.ID,
			IAMID:    pu.ID,
			Email:    pu.Email,
			Name:     pu.Name,
			Roles:    user.Roles,
			Verified: user.Verified || pu.EmailVerified,
		}
	case errors.Is(err, ErrNotFound):
		return &principal.Principal{
			ID:       pu.ID,
			IAMID:    pu.ID,
			Email:    pu.Email,
			Name:     pu.Name,
			Roles:    []string{principal.RoleUser},
			Verified: pu.EmailVerified,
		}
	default:
		m.logger.ErrorContext(ctx, "failed to map session user", "error", err, "iam_id", pu.ID)
		return nil
	}
}

// LinkOrCreateUser upserts the local record for a provider user, refreshing
// identity fields on every login and defaulting role/created_at on first
// insert. rawPassword, when non-empty, is run through the legacy transform
// and stored as a bcrypt hash so pre-provider verification keeps working.
func (m *Mapper) LinkOrCreateUser(ctx context.Context, pu *provider.SessionUser, rawPassword string, extra map[string]any) (*User, error) {
	if pu == nil || pu.Email == "" {
		return nil, ErrEmailRequired
	}
	if m.store == nil {
		return nil, ErrStoreUnavailable
	}

	up := Upsert{
		Email: pu.Email,
		IAMID: pu.ID,
		Extra: extra,
	}
	if pu.Name != "" {
		up.Name = &pu.Name
	}
	if pu.EmailVerified {
		verified := true
		up.Verified = &verified
	}
	if pu.Image != "" {
		up.Avatar = &pu.Image
	}
	if rawPassword != "" {
		hash, err := legacypass.Hash(legacypass.Transform(rawPassword), m.bcryptCost)
		if err != nil {
			return nil, err
		}
		up.Password = &hash
	}

	user, err := m.store.UpsertUser(ctx, up)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to link or create user", "error", err, "email", pu.Email)
		return nil, err
	}

	return user, nil
}

// VerifyLegacyPassword checks raw credentials against the legacy password
// hash of a local-only account, for the one-shot migration path.
func (m *Mapper) VerifyLegacyPassword(ctx context.Context, email, rawPassword string) (*User, bool) {
	if m.store == nil || email == "" {
		return nil, false
	}

	user, err := m.store.FindByEmailOrIAMID(ctx, email, "")
	if err != nil || user.Password == "" {
		return nil, false
	}

	if !legacypass.Verify(legacypass.Transform(rawPassword), user.Password) {
		return nil, false
	}

	return user, true
}
