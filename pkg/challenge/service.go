package challenge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a started ceremony stays resumable. WebAuthn
// browser prompts time out well within this.
const DefaultTTL = 5 * time.Minute

// Service issues challenge ids for provider verification tokens and resolves
// them back during ceremony completion.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// Option is a functional option for Service.
type Option func(*Service)

// WithTTL overrides the challenge TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a challenge service. A nil store yields a disabled
// service: every operation reports ErrDisabled and passkey ceremonies fall
// through to the provider's native cookie mechanism.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enabled reports whether the challenge bridge is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.store != nil
}

// Begin stores the provider verification token and returns a fresh opaque
// challenge id to hand to the client.
func (s *Service) Begin(ctx context.Context, verificationToken, userID string, ceremony Ceremony) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if verificationToken == "" {
		return "", ErrNotFound
	}

	now := time.Now()
	ch := &Challenge{
		ID:        uuid.NewString(),
		Token:     verificationToken,
		UserID:    userID,
		Ceremony:  ceremony,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Put(ctx, ch); err != nil {
		s.logger.ErrorContext(ctx, "failed to store challenge", "error", err, "ceremony", ceremony)
		return "", errors.Join(ErrStoreUnavailable, err)
	}

	return ch.ID, nil
}

// Resolve returns the verification token for the challenge id without
// consuming it, so a failed verification can be retried.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	ch, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	return ch.Token, nil
}

// Consume deletes the challenge after a successful verification. Consuming an
// already-consumed id is a no-op: under concurrent duplicate verification
// attempts the second caller simply finds nothing.
func (s *Service) Consume(ctx context.Context, id string) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to delete consumed challenge", "error", err)
		return err
	}
	return nil
}
