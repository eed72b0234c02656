package auth

import (
	"net/http"

	"github.com/dmitrymomot/authbridge/pkg/principal"
	"github.com/dmitrymomot/authbridge/provider"
)

// Middleware attaches the authenticated principal to the request context.
// First-writer-wins: if another strategy upstream already attached a
// principal, this middleware does nothing. Authentication failures never
// block the request; the handler sees a nil principal instead.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := principal.FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if p := s.Authenticate(r); p != nil {
				r = r.WithContext(principal.WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate resolves the request credentials to a principal, or nil.
// Resolution order: session cookie through the provider, then a bearer JWT,
// then a bearer session token straight against the session store.
func (s *Service) Authenticate(r *http.Request) *principal.Principal {
	if !s.Enabled() {
		return nil
	}
	ctx := r.Context()

	if token := s.ExtractToken(r); token != "" {
		if res := s.GetSession(ctx, r); !res.Empty() {
			return s.mapper.MapSessionUser(ctx, res.User)
		}

		// JWTs carry two dots; session tokens never do.
		if isJWT(token) {
			if claims := s.VerifyJWT(ctx, token); claims != nil {
				return s.mapper.MapSessionUser(ctx, &provider.SessionUser{
					ID:    claims.Subject,
					Email: claims.Email,
					Name:  claims.Name,
				})
			}
		}

		if res := s.GetSessionByToken(ctx, token); !res.Empty() {
			return s.mapper.MapSessionUser(ctx, res.User)
		}
	}

	return nil
}

func isJWT(token string) bool {
	dots := 0
	for _, c := range token {
		if c == '.' {
			dots++
		}
	}
	return dots == 2
}
