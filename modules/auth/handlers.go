package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/legacypass"
	"github.com/dmitrymomot/authbridge/pkg/principal"
	"github.com/dmitrymomot/authbridge/provider"
	authsvc "github.com/dmitrymomot/authbridge/svc/auth"
)

type handlers struct {
	svc        *authsvc.Service
	challenges *challenge.Service
	logger     *slog.Logger
	schema     graphql.Schema
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, &response{Error: "email and password are required"})
		return
	}

	resp, status := h.doSignIn(w, r, req.Email, req.Password)
	writeJSON(w, status, resp)
}

// doSignIn runs the full sign-in flow: legacy password normalization,
// provider sign-in, and on failure a single legacy-account migration attempt
// followed by exactly one retry.
func (h *handlers) doSignIn(w http.ResponseWriter, r *http.Request, email, password string) (*response, int) {
	if !h.enabled() {
		return &response{Error: "authentication is disabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, "")
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to adapt sign-in request", "error", err)
		return &response{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	transformed := legacypass.Transform(password)
	outcome, err := h.svc.Client().SignInEmail(ctx, headers, email, transformed)
	if err != nil {
		h.logger.ErrorContext(ctx, "provider sign-in failed", "error", err)
		return &response{Error: "invalid credentials"}, http.StatusUnauthorized
	}

	if outcome.Kind == provider.SignInFailure && h.svc.Features().LegacyPassword {
		if retried := h.migrateLegacyAccount(ctx, headers, email, password); retried != nil {
			outcome = retried
		}
	}

	switch outcome.Kind {
	case provider.SignInTwoFactorRequired:
		return &response{RequiresTwoFactor: true}, http.StatusOK
	case provider.SignInSuccess:
		return h.completeAuth(w, r, outcome, password), http.StatusOK
	default:
		return &response{Error: "invalid credentials"}, http.StatusUnauthorized
	}
}

// migrateLegacyAccount moves a pre-provider account into the provider: if
// the credentials match the stored legacy hash, the account is registered
// with the provider and sign-in is retried once. Returning nil means "no
// migration happened, keep the original failure". Never recurses.
func (h *handlers) migrateLegacyAccount(ctx context.Context, headers http.Header, email, password string) *provider.SignInOutcome {
	user, ok := h.svc.Mapper().VerifyLegacyPassword(ctx, email, password)
	if !ok {
		return nil
	}

	transformed := legacypass.Transform(password)
	if _, err := h.svc.Client().SignUpEmail(ctx, headers, email, transformed, user.FullName()); err != nil {
		h.logger.ErrorContext(ctx, "legacy account migration failed", "error", err, "email", email)
		return nil
	}

	outcome, err := h.svc.Client().SignInEmail(ctx, headers, email, transformed)
	if err != nil {
		return nil
	}

	h.logger.InfoContext(ctx, "migrated legacy account", "email", email)
	return outcome
}

// completeAuth reconciles a successful provider outcome with the local user
// store, maps the principal, and sets the session cookies.
func (h *handlers) completeAuth(w http.ResponseWriter, r *http.Request, outcome *provider.SignInOutcome, rawPassword string) *response {
	ctx := r.Context()
	mapper := h.svc.Mapper()

	syncPassword := ""
	if rawPassword != "" && h.svc.Features().LegacyPassword {
		syncPassword = rawPassword
	}
	if _, err := mapper.LinkOrCreateUser(ctx, outcome.User, syncPassword, nil); err != nil {
		// Degraded: the provider session is valid even if the local store
		// is not reachable right now.
		h.logger.ErrorContext(ctx, "failed to reconcile user record", "error", err)
	}

	resp := &response{
		Success: true,
		User:    mapper.MapSessionUser(ctx, outcome.User),
	}
	// Stateless clients read the JWT from this header; it stays out of the
	// JSON body alongside the session token.
	if outcome.Token != "" && h.svc.Features().JWT {
		w.Header().Set(jwtHeader, outcome.Token)
	}
	if outcome.Session != nil {
		h.setSessionCookies(w, outcome.Session.ID, outcome.Session.Token)
		resp.Session = &sessionInfo{
			ID:        outcome.Session.ID,
			ExpiresAt: outcome.Session.ExpiresAt,
		}
	}
	return resp
}

func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, &response{Error: "email and password are required"})
		return
	}

	resp, status := h.doSignUp(w, r, req.Email, req.Password, req.Name)
	writeJSON(w, status, resp)
}

func (h *handlers) doSignUp(w http.ResponseWriter, r *http.Request, email, password, name string) (*response, int) {
	if !h.enabled() {
		return &response{Error: "authentication is disabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, "")
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to adapt sign-up request", "error", err)
		return &response{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	outcome, err := h.svc.Client().SignUpEmail(ctx, headers, email, legacypass.Transform(password), name)
	if err != nil {
		h.logger.ErrorContext(ctx, "provider sign-up failed", "error", err)
		return &response{Error: "registration failed"}, http.StatusBadRequest
	}

	if outcome.Kind != provider.SignInSuccess {
		msg := "registration failed"
		if alreadyRegistered(outcome.Message) {
			msg = "email already registered"
		}
		return &response{Error: msg}, http.StatusBadRequest
	}

	return h.completeAuth(w, r, outcome, password), http.StatusOK
}

func alreadyRegistered(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "exist") || strings.Contains(m, "already")
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	resp := h.doSignOut(w, r)
	writeJSON(w, http.StatusOK, resp)
}

// doSignOut revokes the session when one is presented and always clears the
// cookies. Sign-out never fails from the client's point of view.
func (h *handlers) doSignOut(w http.ResponseWriter, r *http.Request) *response {
	ctx := r.Context()

	if token := h.svc.ExtractToken(r); token != "" {
		if headers, err := h.svc.AdaptedHeaders(r, token); err == nil {
			h.svc.RevokeSession(ctx, headers, token)
		}
	}

	h.clearSessionCookies(w)
	return &response{Success: true}
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doSession(r))
}

func (h *handlers) doSession(r *http.Request) *response {
	if p, ok := principal.FromContext(r.Context()); ok {
		return &response{Success: true, User: p}
	}
	return &response{Success: false}
}
