package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/authbridge/pkg/principal"
	"github.com/dmitrymomot/authbridge/pkg/providerhttp"
	authsvc "github.com/dmitrymomot/authbridge/svc/auth"
)

// response is the envelope every auth endpoint returns. The session token is
// deliberately absent: it travels only in cookies.
type response struct {
	Success           bool                 `json:"success"`
	RequiresTwoFactor bool                 `json:"requiresTwoFactor,omitempty"`
	User              *principal.Principal `json:"user,omitempty"`
	Session           *sessionInfo         `json:"session,omitempty"`
	Error             string               `json:"error,omitempty"`
}

// sessionInfo is the client-visible session metadata.
type sessionInfo struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setSessionCookies writes the session token under every configured cookie
// name, signed when a secret is present, plus the plain session-id debug
// cookie. All token cookies are httpOnly and lax; secure in production.
func (h *handlers) setSessionCookies(w http.ResponseWriter, sessionID, token string) {
	if token == "" {
		return
	}

	cfg := h.svc.Config()
	value := token
	if cfg.Secret != "" {
		value = providerhttp.SignValue(token, cfg.Secret)
	}
	value = url.QueryEscape(value)

	maxAge := int(cfg.SessionTTL.Seconds())
	for _, name := range cfg.CookieNames() {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   cfg.Production,
		})
	}

	if sessionID != "" {
		// Readable from JS on purpose, it only carries the session id.
		http.SetCookie(w, &http.Cookie{
			Name:     authsvc.DebugSessionCookie,
			Value:    url.QueryEscape(sessionID),
			Path:     "/",
			MaxAge:   maxAge,
			SameSite: http.SameSiteLaxMode,
			Secure:   cfg.Production,
		})
	}
}

func (h *handlers) clearSessionCookies(w http.ResponseWriter) {
	cfg := h.svc.Config()
	names := append(cfg.CookieNames(), authsvc.DebugSessionCookie)
	for _, name := range names {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name != authsvc.DebugSessionCookie,
			SameSite: http.SameSiteLaxMode,
			Secure:   cfg.Production,
		})
	}
}

// cookiePair extracts the "name=value" part of a Set-Cookie string for
// replaying it on an outbound Cookie header.
func cookiePair(setCookie string) string {
	if i := strings.Index(setCookie, ";"); i >= 0 {
		setCookie = setCookie[:i]
	}
	pair := strings.TrimSpace(setCookie)
	if !strings.Contains(pair, "=") {
		return ""
	}
	return pair
}
