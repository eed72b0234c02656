package auth

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/principal"
	"github.com/dmitrymomot/authbridge/provider"
)

type passkeyChallengeResponse struct {
	Success     bool            `json:"success"`
	Options     json.RawMessage `json:"options,omitempty"`
	ChallengeID string          `json:"challengeId,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type passkeyListResponse struct {
	Success  bool               `json:"success"`
	Passkeys []provider.Passkey `json:"passkeys"`
	Error    string             `json:"error,omitempty"`
}

func (h *handlers) passkeyClient() (provider.PasskeyClient, bool) {
	if !h.enabled() || !h.svc.Features().Passkey {
		return nil, false
	}
	return h.svc.Client().Passkey()
}

func (h *handlers) passkeyChallenge(w http.ResponseWriter, r *http.Request) {
	ceremony := challenge.CeremonyAuthentication
	if r.URL.Query().Get("type") == string(challenge.CeremonyRegistration) {
		ceremony = challenge.CeremonyRegistration
	}

	resp, status := h.doPasskeyChallenge(r, ceremony)
	writeJSON(w, status, resp)
}

// doPasskeyChallenge starts a WebAuthn ceremony at the provider and, when
// the challenge bridge is configured, parks the provider's verification
// token under a fresh challenge id so cookie-less clients can complete the
// ceremony later.
func (h *handlers) doPasskeyChallenge(r *http.Request, ceremony challenge.Ceremony) (*passkeyChallengeResponse, int) {
	pk, ok := h.passkeyClient()
	if !ok {
		return &passkeyChallengeResponse{Error: "passkeys are not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &passkeyChallengeResponse{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	var opts *provider.CeremonyOptions
	if ceremony == challenge.CeremonyRegistration {
		opts, err = pk.BeginRegistration(ctx, headers)
	} else {
		opts, err = pk.BeginAuthentication(ctx, headers)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start passkey ceremony", "error", err, "ceremony", ceremony)
		return &passkeyChallengeResponse{Error: "failed to start passkey ceremony"}, http.StatusBadRequest
	}

	resp := &passkeyChallengeResponse{
		Success: true,
		Options: json.RawMessage(opts.Options),
	}

	if h.challenges.Enabled() && opts.VerificationToken != "" {
		var userID string
		if p, ok := principal.FromContext(ctx); ok {
			userID = p.ID
		}
		if id, err := h.challenges.Begin(ctx, opts.VerificationToken, userID, ceremony); err == nil {
			resp.ChallengeID = id
		} else {
			h.logger.WarnContext(ctx, "failed to store passkey challenge", "error", err)
		}
	}

	return resp, http.StatusOK
}

func (h *handlers) passkeyList(w http.ResponseWriter, r *http.Request) {
	resp, status := h.doPasskeyList(r)
	writeJSON(w, status, resp)
}

func (h *handlers) doPasskeyList(r *http.Request) (*passkeyListResponse, int) {
	pk, ok := h.passkeyClient()
	if !ok {
		return &passkeyListResponse{Error: "passkeys are not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &passkeyListResponse{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	keys, err := pk.List(ctx, headers)
	if err != nil {
		return &passkeyListResponse{Error: "failed to list passkeys"}, http.StatusBadRequest
	}
	if keys == nil {
		keys = []provider.Passkey{}
	}
	return &passkeyListResponse{Success: true, Passkeys: keys}, http.StatusOK
}

func (h *handlers) passkeyDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, &response{Error: "passkey id is required"})
		return
	}

	resp, status := h.doPasskeyDelete(r, req.ID)
	writeJSON(w, status, resp)
}

func (h *handlers) doPasskeyDelete(r *http.Request, id string) (*response, int) {
	pk, ok := h.passkeyClient()
	if !ok {
		return &response{Error: "passkeys are not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &response{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	if err := pk.Delete(ctx, headers, id); err != nil {
		return &response{Error: "failed to delete passkey"}, http.StatusBadRequest
	}
	return &response{Success: true}, http.StatusOK
}
