package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// Features declares which optional provider plugins are configured. The
// capability queries on HTTPClient answer from this, resolved once at
// construction.
type Features struct {
	TwoFactor bool
	Passkey   bool
}

// HTTPClient talks to the provider's HTTP surface. It is a thin transport:
// every response is decoded into a typed result at this boundary and raw
// provider payloads never leak past it.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	features Features
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

// NewHTTPClient creates a provider client for the given base URL, e.g.
// "http://127.0.0.1:3000/api/auth".
func NewHTTPClient(baseURL string, features Features, opts ...HTTPClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrNotConfigured
	}

	c := &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		features: features,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Handler forwards requests verbatim to the provider surface, preserving
// every Set-Cookie header on the way back.
func (c *HTTPClient) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, err := http.NewRequestWithContext(r.Context(), r.Method, c.baseURL+r.URL.Path, r.Body)
		if err != nil {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		out.URL.RawQuery = r.URL.RawQuery
		copyHeaders(out.Header, r.Header)

		resp, err := c.http.Do(out)
		if err != nil {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for name, values := range resp.Header {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	})
}

func (c *HTTPClient) SignInEmail(ctx context.Context, headers http.Header, email, password string) (*SignInOutcome, error) {
	status, body, _, err := c.do(ctx, headers, http.MethodPost, "/sign-in/email", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return DecodeSignIn(status, body), nil
}

func (c *HTTPClient) SignUpEmail(ctx context.Context, headers http.Header, email, password, name string) (*SignInOutcome, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	if name != "" {
		payload["name"] = name
	}

	status, body, _, err := c.do(ctx, headers, http.MethodPost, "/sign-up/email", payload)
	if err != nil {
		return nil, err
	}
	return DecodeSignIn(status, body), nil
}

func (c *HTTPClient) SignOut(ctx context.Context, headers http.Header, token string) error {
	h := cloneHeaders(headers)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}

	status, _, _, err := c.do(ctx, h, http.MethodPost, "/sign-out", struct{}{})
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) GetSession(ctx context.Context, headers http.Header) (*SessionResult, error) {
	status, body, _, err := c.do(ctx, headers, http.MethodGet, "/get-session", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return &SessionResult{}, nil
	}

	var result SessionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &SessionResult{}, nil
	}
	if result.Session.IsExpired() {
		return &SessionResult{}, nil
	}
	return &result, nil
}

func (c *HTTPClient) TwoFactor() (TwoFactorClient, bool) {
	if !c.features.TwoFactor {
		return nil, false
	}
	return &twoFactorHTTP{c: c}, true
}

func (c *HTTPClient) Passkey() (PasskeyClient, bool) {
	if !c.features.Passkey {
		return nil, false
	}
	return &passkeyHTTP{c: c}, true
}

type twoFactorHTTP struct {
	c *HTTPClient
}

func (t *twoFactorHTTP) Verify(ctx context.Context, headers http.Header, code string, trustDevice bool) (*SignInOutcome, error) {
	status, body, _, err := t.c.do(ctx, headers, http.MethodPost, "/two-factor/verify-totp", map[string]any{
		"code":        code,
		"trustDevice": trustDevice,
	})
	if err != nil {
		return nil, err
	}
	return DecodeSignIn(status, body), nil
}

func (t *twoFactorHTTP) Enable(ctx context.Context, headers http.Header, password string) (*TwoFactorSetup, error) {
	status, body, _, err := t.c.do(ctx, headers, http.MethodPost, "/two-factor/enable", map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrUnavailable
	}

	var setup TwoFactorSetup
	if err := json.Unmarshal(body, &setup); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return &setup, nil
}

func (t *twoFactorHTTP) Disable(ctx context.Context, headers http.Header, password string) error {
	status, _, _, err := t.c.do(ctx, headers, http.MethodPost, "/two-factor/disable", map[string]string{
		"password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return ErrUnavailable
	}
	return nil
}

func (t *twoFactorHTTP) GenerateBackupCodes(ctx context.Context, headers http.Header, password string) ([]string, error) {
	status, body, _, err := t.c.do(ctx, headers, http.MethodPost, "/two-factor/generate-backup-codes", map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrUnavailable
	}

	var out struct {
		BackupCodes []string `json:"backupCodes"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return out.BackupCodes, nil
}

type passkeyHTTP struct {
	c *HTTPClient
}

func (p *passkeyHTTP) BeginRegistration(ctx context.Context, headers http.Header) (*CeremonyOptions, error) {
	return p.beginCeremony(ctx, headers, "/passkey/generate-register-options")
}

func (p *passkeyHTTP) BeginAuthentication(ctx context.Context, headers http.Header) (*CeremonyOptions, error) {
	return p.beginCeremony(ctx, headers, "/passkey/generate-authenticate-options")
}

func (p *passkeyHTTP) beginCeremony(ctx context.Context, headers http.Header, path string) (*CeremonyOptions, error) {
	status, body, respHeader, err := p.c.do(ctx, headers, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrUnavailable
	}

	// The provider round-trips the ceremony challenge through a cookie; its
	// value is the opaque verification token the challenge bridge stores.
	var token string
	if cookies := respHeader.Values("Set-Cookie"); len(cookies) > 0 {
		token = cookies[0]
	}

	return &CeremonyOptions{
		Options:           body,
		VerificationToken: token,
	}, nil
}

func (p *passkeyHTTP) List(ctx context.Context, headers http.Header) ([]Passkey, error) {
	status, body, _, err := p.c.do(ctx, headers, http.MethodGet, "/passkey/list-user-passkeys", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrUnavailable
	}

	var keys []Passkey
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return keys, nil
}

func (p *passkeyHTTP) Delete(ctx context.Context, headers http.Header, id string) error {
	status, _, _, err := p.c.do(ctx, headers, http.MethodPost, "/passkey/delete-passkey", map[string]string{
		"id": id,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return ErrUnavailable
	}
	return nil
}

// do issues a JSON request against the provider and returns status, body and
// response headers. Transport failures are wrapped in ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, headers http.Header, method, path string, payload any) (int, []byte, http.Header, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, nil, err
	}

	copyHeaders(req.Header, headers)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, errors.Join(ErrUnavailable, err)
	}

	return resp.StatusCode, data, resp.Header, nil
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if len(values) == 1 {
			dst.Set(name, values[0])
			continue
		}
		dst.Set(name, strings.Join(values, ", "))
	}
}

func cloneHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	copyHeaders(out, h)
	return out
}
