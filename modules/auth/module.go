package auth

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/ratelimit"
	authsvc "github.com/dmitrymomot/authbridge/svc/auth"
)

// Deps wires the auth module's collaborators. Service is required; the rest
// degrade gracefully when absent.
type Deps struct {
	Service *authsvc.Service

	// Challenges bridges stateless WebAuthn ceremonies. Optional; without
	// it passkey flows rely on the provider's own cookies.
	Challenges *challenge.Service

	// Limiter rate-limits the auth base path. Optional.
	Limiter *ratelimit.Limiter

	Logger *slog.Logger
}

// Router mounts the auth surface under the configured base path. Middleware
// order is deliberate: the rate limiter runs before session resolution so an
// abusive client cannot make the module do session lookups, and session
// resolution runs before every handler so principals are available
// downstream.
//
// The session middleware applied here covers only the auth surface. Consumers
// that need principals on other routes mount Service.Middleware() on their
// root router; first-writer-wins makes the double application harmless.
//
// Four REST paths plus the local 2FA/passkey operations and GraphQL are
// handled here; everything else under the base path goes verbatim to the
// provider's native handler.
func Router(deps Deps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &handlers{
		svc:        deps.Service,
		challenges: deps.Challenges,
		logger:     logger,
	}
	h.schema = mustSchema(h)

	cfg := deps.Service.Config()

	r := chi.NewRouter()
	r.Route(cfg.BasePath, func(br chi.Router) {
		br.Use(ratelimit.Middleware(deps.Limiter, nil, logger))
		br.Use(deps.Service.Middleware())

		br.Post("/sign-in/email", h.signIn)
		br.Post("/sign-up/email", h.signUp)
		br.Get("/sign-out", h.signOut)
		br.Get("/session", h.session)

		br.Post("/two-factor/verify", h.verifyTwoFactor)
		br.Post("/two-factor/enable", h.enableTwoFactor)
		br.Post("/two-factor/disable", h.disableTwoFactor)
		br.Post("/two-factor/backup-codes", h.generateBackupCodes)

		br.Get("/passkey/challenge", h.passkeyChallenge)
		br.Get("/passkey/list", h.passkeyList)
		br.Post("/passkey/delete", h.passkeyDelete)

		br.Post("/graphql", h.graphQL)

		// The provider resolves paths relative to its own base URL, so the
		// local base path must not travel upstream.
		br.Handle("/*", http.StripPrefix(strings.TrimSuffix(cfg.BasePath, "/"), http.HandlerFunc(h.forward)))
	})

	return r
}

func (h *handlers) enabled() bool {
	return h.svc.Enabled()
}

// forward hands a request to the provider's native handler. When the client
// presents a challenge id, the stored verification token is re-injected as a
// cookie so cookie-less clients can complete WebAuthn ceremonies; the
// challenge is consumed only after the provider accepts.
func (h *handlers) forward(w http.ResponseWriter, r *http.Request) {
	if !h.enabled() {
		writeJSON(w, http.StatusServiceUnavailable, &response{Error: "authentication is disabled"})
		return
	}

	ctx := r.Context()
	if id := r.Header.Get(challengeHeader); id != "" && h.challenges.Enabled() {
		if token, err := h.challenges.Resolve(ctx, id); err == nil {
			if pair := cookiePair(token); pair != "" {
				r.Header.Add("Cookie", pair)
			}

			sw := &statusWriter{ResponseWriter: w}
			h.svc.Client().Handler().ServeHTTP(sw, r)
			if sw.status < http.StatusBadRequest {
				_ = h.challenges.Consume(ctx, id)
			}
			return
		}
	}

	h.svc.Client().Handler().ServeHTTP(w, r)
}

// challengeHeader carries the opaque challenge id issued by the passkey
// challenge endpoint.
const challengeHeader = "X-Challenge-Id"

// jwtHeader carries the provider-issued JWT on successful authentication.
const jwtHeader = "Set-Auth-JWT"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}
