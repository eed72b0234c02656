package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modauth "github.com/dmitrymomot/authbridge/modules/auth"
	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/identity"
	"github.com/dmitrymomot/authbridge/pkg/legacypass"
	"github.com/dmitrymomot/authbridge/provider"
	authsvc "github.com/dmitrymomot/authbridge/svc/auth"
)

// memStore is an in-memory identity.UserStore.
type memStore struct {
	users []*identity.User
}

func (m *memStore) FindByEmailOrIAMID(_ context.Context, email, iamID string) (*identity.User, error) {
	for _, u := range m.users {
		if (email != "" && u.Email == email) || (iamID != "" && u.IAMID == iamID) {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *memStore) UpsertUser(_ context.Context, up identity.Upsert) (*identity.User, error) {
	u, err := m.FindByEmailOrIAMID(context.Background(), up.Email, up.IAMID)
	if errors.Is(err, identity.ErrNotFound) {
		u = &identity.User{ID: fmt.Sprintf("local-%d", len(m.users)+1), Roles: []string{"user"}}
		m.users = append(m.users, u)
	}
	u.Email = up.Email
	if up.IAMID != "" {
		u.IAMID = up.IAMID
	}
	if up.Password != nil {
		u.Password = *up.Password
	}
	if up.Name != nil {
		u.FirstName, u.LastName = identity.SplitName(*up.Name)
	}
	return u, nil
}

// fakeProvider is a programmable provider.Client.
type fakeProvider struct {
	signIn  func(email, password string) (*provider.SignInOutcome, error)
	signUp  func(email, password, name string) (*provider.SignInOutcome, error)
	session *provider.SessionResult

	twoFactor provider.TwoFactorClient
	passkey   provider.PasskeyClient
	handler   http.Handler

	signIns int
	signUps int
}

func (f *fakeProvider) Handler() http.Handler {
	if f.handler != nil {
		return f.handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
}

func (f *fakeProvider) SignInEmail(_ context.Context, _ http.Header, email, password string) (*provider.SignInOutcome, error) {
	f.signIns++
	if f.signIn == nil {
		return &provider.SignInOutcome{Kind: provider.SignInFailure}, nil
	}
	return f.signIn(email, password)
}

func (f *fakeProvider) SignUpEmail(_ context.Context, _ http.Header, email, password, name string) (*provider.SignInOutcome, error) {
	f.signUps++
	if f.signUp == nil {
		return &provider.SignInOutcome{Kind: provider.SignInFailure}, nil
	}
	return f.signUp(email, password, name)
}

func (f *fakeProvider) SignOut(_ context.Context, _ http.Header, _ string) error { return nil }

func (f *fakeProvider) GetSession(_ context.Context, _ http.Header) (*provider.SessionResult, error) {
	if f.session == nil {
		return &provider.SessionResult{}, nil
	}
	return f.session, nil
}

func (f *fakeProvider) TwoFactor() (provider.TwoFactorClient, bool) {
	return f.twoFactor, f.twoFactor != nil
}

func (f *fakeProvider) Passkey() (provider.PasskeyClient, bool) {
	return f.passkey, f.passkey != nil
}

func successOutcome(email string) *provider.SignInOutcome {
	return &provider.SignInOutcome{
		Kind: provider.SignInSuccess,
		Session: &provider.Session{
			ID:        "sess-1",
			Token:     "session-token",
			UserID:    "iam-1",
			ExpiresAt: time.Now().Add(time.Hour),
		},
		User: &provider.SessionUser{ID: "iam-1", Email: email, Name: "Alice Smith"},
	}
}

func newRouter(t *testing.T, client provider.Client, store identity.UserStore, opts ...func(*modauth.Deps)) http.Handler {
	t.Helper()

	svc := authsvc.New(client,
		authsvc.Config{
			BasePath:   "/iam",
			BaseURL:    "http://localhost:8080",
			Secret:     "test-secret",
			SessionTTL: time.Hour,
		},
		authsvc.WithMapper(identity.NewMapper(store)),
	)

	deps := modauth.Deps{Service: svc}
	for _, opt := range opts {
		opt(&deps)
	}
	return modauth.Router(deps)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func cookieNames(res *http.Response) []string {
	names := make([]string, 0, len(res.Cookies()))
	for _, c := range res.Cookies() {
		names = append(names, c.Name)
	}
	return names
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	t.Run("success sets cookies and keeps token out of the body", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{
			signIn: func(email, _ string) (*provider.SignInOutcome, error) {
				return successOutcome(email), nil
			},
		}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "alice@example.com", "password": "s3cret",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool           `json:"success"`
			User    map[string]any `json:"user"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "alice@example.com", resp.User["email"])
		assert.NotContains(t, w.Body.String(), "session-token")

		names := cookieNames(w.Result())
		assert.Contains(t, names, "token")
		assert.Contains(t, names, "iam.session_token")
		assert.Contains(t, names, "better-auth.session_token")
		assert.Contains(t, names, "session")
	})

	t.Run("provider-issued jwt travels in the header, not the body", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{
			signIn: func(email, _ string) (*provider.SignInOutcome, error) {
				out := successOutcome(email)
				out.Token = "eyJ.fake.jwt"
				return out, nil
			},
		}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "alice@example.com", "password": "s3cret",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "eyJ.fake.jwt", w.Header().Get("Set-Auth-JWT"))
		assert.NotContains(t, w.Body.String(), "eyJ.fake.jwt")
	})

	t.Run("two-factor required returns flag without cookies", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{
			signIn: func(_, _ string) (*provider.SignInOutcome, error) {
				return &provider.SignInOutcome{Kind: provider.SignInTwoFactorRequired}, nil
			},
		}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "alice@example.com", "password": "s3cret",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"requiresTwoFactor":true`)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("invalid credentials yield 401 with generic message", func(t *testing.T) {
		t.Parallel()

		h := newRouter(t, &fakeProvider{}, &memStore{})
		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "alice@example.com", "password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid credentials")
	})

	t.Run("missing fields yield 400", func(t *testing.T) {
		t.Parallel()

		h := newRouter(t, &fakeProvider{}, &memStore{})
		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{"email": "alice@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignIn_LegacyMigration(t *testing.T) {
	t.Parallel()

	hash, err := legacypass.Hash(legacypass.Transform("s3cret"), 4)
	require.NoError(t, err)

	t.Run("legacy account is migrated and retried exactly once", func(t *testing.T) {
		t.Parallel()

		store := &memStore{users: []*identity.User{{
			ID: "local-1", Email: "legacy@example.com", Password: hash, Roles: []string{"user"},
		}}}

		migrated := false
		client := &fakeProvider{}
		client.signIn = func(email, _ string) (*provider.SignInOutcome, error) {
			if migrated {
				return successOutcome(email), nil
			}
			return &provider.SignInOutcome{Kind: provider.SignInFailure}, nil
		}
		client.signUp = func(email, _, _ string) (*provider.SignInOutcome, error) {
			migrated = true
			return successOutcome(email), nil
		}

		h := newRouter(t, client, store)
		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "legacy@example.com", "password": "s3cret",
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		assert.Equal(t, 2, client.signIns)
		assert.Equal(t, 1, client.signUps)
	})

	t.Run("wrong legacy password never triggers migration", func(t *testing.T) {
		t.Parallel()

		store := &memStore{users: []*identity.User{{
			ID: "local-1", Email: "legacy@example.com", Password: hash, Roles: []string{"user"},
		}}}
		client := &fakeProvider{}

		h := newRouter(t, client, store)
		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "legacy@example.com", "password": "wrong",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 1, client.signIns)
		assert.Zero(t, client.signUps)
	})

	t.Run("migration failure does not loop", func(t *testing.T) {
		t.Parallel()

		store := &memStore{users: []*identity.User{{
			ID: "local-1", Email: "legacy@example.com", Password: hash, Roles: []string{"user"},
		}}}
		client := &fakeProvider{
			signUp: func(_, _, _ string) (*provider.SignInOutcome, error) {
				return nil, errors.New("provider down")
			},
		}

		h := newRouter(t, client, store)
		w := postJSON(t, h, "/iam/sign-in/email", map[string]string{
			"email": "legacy@example.com", "password": "s3cret",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 1, client.signIns)
		assert.Equal(t, 1, client.signUps)
	})
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	t.Run("success reconciles the local record", func(t *testing.T) {
		t.Parallel()

		store := &memStore{}
		client := &fakeProvider{
			signUp: func(email, _, _ string) (*provider.SignInOutcome, error) {
				return successOutcome(email), nil
			},
		}
		h := newRouter(t, client, store)

		w := postJSON(t, h, "/iam/sign-up/email", map[string]string{
			"email": "alice@example.com", "password": "s3cret", "name": "Alice Smith",
		})

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, store.users, 1)
		assert.Equal(t, "iam-1", store.users[0].IAMID)
		assert.Equal(t, "Alice", store.users[0].FirstName)
		// Legacy password hash synced on registration.
		assert.True(t, legacypass.Verify(legacypass.Transform("s3cret"), store.users[0].Password))
	})

	t.Run("already registered email gets a distinguished message", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{
			signUp: func(_, _, _ string) (*provider.SignInOutcome, error) {
				return &provider.SignInOutcome{Kind: provider.SignInFailure, Message: "user already exists"}, nil
			},
		}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/sign-up/email", map[string]string{
			"email": "alice@example.com", "password": "s3cret",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "email already registered")
	})
}

func TestSignOutAndSession(t *testing.T) {
	t.Parallel()

	t.Run("sign-out always succeeds and clears cookies", func(t *testing.T) {
		t.Parallel()

		h := newRouter(t, &fakeProvider{}, &memStore{})
		r := httptest.NewRequest(http.MethodGet, "/iam/sign-out", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "whatever"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		for _, c := range w.Result().Cookies() {
			assert.Negative(t, c.MaxAge, "cookie %s should be expired", c.Name)
		}
		assert.Contains(t, cookieNames(w.Result()), "token")
	})

	t.Run("session endpoint reflects authentication state", func(t *testing.T) {
		t.Parallel()

		user := &provider.SessionUser{ID: "iam-1", Email: "alice@example.com"}
		client := &fakeProvider{session: &provider.SessionResult{
			Session: &provider.Session{ID: "s1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)},
			User:    user,
		}}
		h := newRouter(t, client, &memStore{})

		r := httptest.NewRequest(http.MethodGet, "/iam/session", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "tok"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		assert.Contains(t, w.Body.String(), "alice@example.com")
	})

	t.Run("anonymous session request", func(t *testing.T) {
		t.Parallel()

		h := newRouter(t, &fakeProvider{}, &memStore{})
		r := httptest.NewRequest(http.MethodGet, "/iam/session", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})
}

type scriptedTwoFactor struct {
	verifyOutcome *provider.SignInOutcome
	setup         *provider.TwoFactorSetup
	err           error
}

func (s *scriptedTwoFactor) Verify(_ context.Context, _ http.Header, _ string, _ bool) (*provider.SignInOutcome, error) {
	return s.verifyOutcome, s.err
}

func (s *scriptedTwoFactor) Enable(_ context.Context, _ http.Header, _ string) (*provider.TwoFactorSetup, error) {
	return s.setup, s.err
}

func (s *scriptedTwoFactor) Disable(_ context.Context, _ http.Header, _ string) error { return s.err }

func (s *scriptedTwoFactor) GenerateBackupCodes(_ context.Context, _ http.Header, _ string) ([]string, error) {
	return []string{"aaa", "bbb"}, s.err
}

func TestTwoFactorEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("enable returns totp uri and qr code", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{twoFactor: &scriptedTwoFactor{
			setup: &provider.TwoFactorSetup{
				TOTPURI:     "otpauth://totp/app:alice?secret=ABCDEF",
				BackupCodes: []string{"code-1"},
			},
		}}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/two-factor/enable", map[string]string{"password": "s3cret"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool   `json:"success"`
			TOTPURI string `json:"totpURI"`
			QRCode  string `json:"qrCode"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "otpauth://totp/app:alice?secret=ABCDEF", resp.TOTPURI)
		assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
	})

	t.Run("verify success issues a session", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{twoFactor: &scriptedTwoFactor{
			verifyOutcome: successOutcome("alice@example.com"),
		}}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/two-factor/verify", map[string]any{"code": "123456"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, cookieNames(w.Result()), "token")
	})

	t.Run("wrong code is a 401", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{twoFactor: &scriptedTwoFactor{
			verifyOutcome: &provider.SignInOutcome{Kind: provider.SignInFailure},
		}}
		h := newRouter(t, client, &memStore{})

		w := postJSON(t, h, "/iam/two-factor/verify", map[string]any{"code": "000000"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("plugin absent yields 400, not panic", func(t *testing.T) {
		t.Parallel()

		h := newRouter(t, &fakeProvider{}, &memStore{})
		w := postJSON(t, h, "/iam/two-factor/enable", map[string]string{"password": "s3cret"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not enabled")
	})
}

type scriptedPasskey struct {
	options *provider.CeremonyOptions
	keys    []provider.Passkey
	err     error
	deleted []string
}

func (s *scriptedPasskey) BeginRegistration(_ context.Context, _ http.Header) (*provider.CeremonyOptions, error) {
	return s.options, s.err
}

func (s *scriptedPasskey) BeginAuthentication(_ context.Context, _ http.Header) (*provider.CeremonyOptions, error) {
	return s.options, s.err
}

func (s *scriptedPasskey) List(_ context.Context, _ http.Header) ([]provider.Passkey, error) {
	return s.keys, s.err
}

func (s *scriptedPasskey) Delete(_ context.Context, _ http.Header, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func TestPasskeyEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("challenge stores the verification token", func(t *testing.T) {
		t.Parallel()

		store := challenge.NewMemoryStore(time.Minute)
		t.Cleanup(store.Close)
		challenges := challenge.NewService(store)

		client := &fakeProvider{passkey: &scriptedPasskey{
			options: &provider.CeremonyOptions{
				Options:           []byte(`{"challenge":"abc"}`),
				VerificationToken: "better-auth.pk_challenge=opaque-token; Path=/",
			},
		}}
		h := newRouter(t, client, &memStore{}, func(d *modauth.Deps) {
			d.Challenges = challenges
		})

		r := httptest.NewRequest(http.MethodGet, "/iam/passkey/challenge?type=registration", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success     bool            `json:"success"`
			Options     json.RawMessage `json:"options"`
			ChallengeID string          `json:"challengeId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.ChallengeID)
		assert.JSONEq(t, `{"challenge":"abc"}`, string(resp.Options))

		token, err := challenges.Resolve(context.Background(), resp.ChallengeID)
		require.NoError(t, err)
		assert.Contains(t, token, "opaque-token")
	})

	t.Run("list returns passkeys", func(t *testing.T) {
		t.Parallel()

		client := &fakeProvider{passkey: &scriptedPasskey{
			keys: []provider.Passkey{{ID: "pk-1", Name: "laptop"}},
		}}
		h := newRouter(t, client, &memStore{})

		r := httptest.NewRequest(http.MethodGet, "/iam/passkey/list", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pk-1")
	})

	t.Run("delete forwards the id", func(t *testing.T) {
		t.Parallel()

		pk := &scriptedPasskey{}
		h := newRouter(t, &fakeProvider{passkey: pk}, &memStore{})

		w := postJSON(t, h, "/iam/passkey/delete", map[string]string{"id": "pk-1"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"pk-1"}, pk.deleted)
	})
}

func TestForward_ChallengeBridge(t *testing.T) {
	t.Parallel()

	store := challenge.NewMemoryStore(time.Minute)
	t.Cleanup(store.Close)
	challenges := challenge.NewService(store)

	id, err := challenges.Begin(context.Background(),
		"better-auth.pk_challenge=opaque-token; Path=/; HttpOnly", "", challenge.CeremonyRegistration)
	require.NoError(t, err)

	var gotCookie string
	client := &fakeProvider{handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		w.WriteHeader(http.StatusOK)
	})}

	h := newRouter(t, client, &memStore{}, func(d *modauth.Deps) {
		d.Challenges = challenges
	})

	r := httptest.NewRequest(http.MethodPost, "/iam/passkey/verify-registration", strings.NewReader("{}"))
	r.Header.Set("X-Challenge-Id", id)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, gotCookie, "better-auth.pk_challenge=opaque-token")

	// Consumed after the provider accepted; second resolve misses.
	_, err = challenges.Resolve(context.Background(), id)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
}

func TestForward_StripsBasePath(t *testing.T) {
	t.Parallel()

	var paths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	client, err := provider.NewHTTPClient(upstream.URL+"/api/auth", provider.Features{})
	require.NoError(t, err)

	h := newRouter(t, client, &memStore{})

	// Typed call and catch-all forward must land on the same upstream base.
	postJSON(t, h, "/iam/sign-in/email", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})

	r := httptest.NewRequest(http.MethodGet, "/iam/verify-email?token=abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, []string{"/api/auth/sign-in/email", "/api/auth/verify-email"}, paths)
}
