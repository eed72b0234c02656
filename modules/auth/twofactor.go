package auth

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/authbridge/pkg/legacypass"
	"github.com/dmitrymomot/authbridge/pkg/qrcode"
	"github.com/dmitrymomot/authbridge/provider"
)

// twoFactorQRSize is the rendered QR code edge length in pixels.
const twoFactorQRSize = 256

type twoFactorEnableResponse struct {
	Success     bool     `json:"success"`
	TOTPURI     string   `json:"totpURI,omitempty"`
	QRCode      string   `json:"qrCode,omitempty"`
	BackupCodes []string `json:"backupCodes,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type backupCodesResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backupCodes,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// twoFactorClient resolves the provider's 2FA sub-client, honoring both the
// configuration toggle and the provider's actual capability set.
func (h *handlers) twoFactorClient() (provider.TwoFactorClient, bool) {
	if !h.enabled() || !h.svc.Features().TwoFactor {
		return nil, false
	}
	return h.svc.Client().TwoFactor()
}

func (h *handlers) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		TrustDevice bool   `json:"trustDevice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, &response{Error: "code is required"})
		return
	}

	resp, status := h.doVerifyTwoFactor(w, r, req.Code, req.TrustDevice)
	writeJSON(w, status, resp)
}

func (h *handlers) doVerifyTwoFactor(w http.ResponseWriter, r *http.Request, code string, trustDevice bool) (*response, int) {
	tf, ok := h.twoFactorClient()
	if !ok {
		return &response{Error: "two-factor authentication is not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &response{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	outcome, err := tf.Verify(ctx, headers, code, trustDevice)
	if err != nil || outcome.Kind != provider.SignInSuccess {
		return &response{Error: "invalid code"}, http.StatusUnauthorized
	}

	return h.completeAuth(w, r, outcome, ""), http.StatusOK
}

func (h *handlers) enableTwoFactor(w http.ResponseWriter, r *http.Request) {
	password, ok := decodePassword(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, &twoFactorEnableResponse{Error: "password is required"})
		return
	}

	resp, status := h.doEnableTwoFactor(r, password)
	writeJSON(w, status, resp)
}

func (h *handlers) doEnableTwoFactor(r *http.Request, password string) (*twoFactorEnableResponse, int) {
	tf, ok := h.twoFactorClient()
	if !ok {
		return &twoFactorEnableResponse{Error: "two-factor authentication is not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &twoFactorEnableResponse{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	setup, err := tf.Enable(ctx, headers, legacypass.Transform(password))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enable two-factor", "error", err)
		return &twoFactorEnableResponse{Error: "failed to enable two-factor authentication"}, http.StatusBadRequest
	}

	resp := &twoFactorEnableResponse{
		Success:     true,
		TOTPURI:     setup.TOTPURI,
		BackupCodes: setup.BackupCodes,
	}
	if qr, err := qrcode.GenerateBase64Image(setup.TOTPURI, twoFactorQRSize); err == nil {
		resp.QRCode = qr
	}
	return resp, http.StatusOK
}

func (h *handlers) disableTwoFactor(w http.ResponseWriter, r *http.Request) {
	password, ok := decodePassword(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, &response{Error: "password is required"})
		return
	}

	resp, status := h.doDisableTwoFactor(r, password)
	writeJSON(w, status, resp)
}

func (h *handlers) doDisableTwoFactor(r *http.Request, password string) (*response, int) {
	tf, ok := h.twoFactorClient()
	if !ok {
		return &response{Error: "two-factor authentication is not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &response{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	if err := tf.Disable(ctx, headers, legacypass.Transform(password)); err != nil {
		return &response{Error: "failed to disable two-factor authentication"}, http.StatusBadRequest
	}
	return &response{Success: true}, http.StatusOK
}

func (h *handlers) generateBackupCodes(w http.ResponseWriter, r *http.Request) {
	password, ok := decodePassword(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, &backupCodesResponse{Error: "password is required"})
		return
	}

	resp, status := h.doGenerateBackupCodes(r, password)
	writeJSON(w, status, resp)
}

func (h *handlers) doGenerateBackupCodes(r *http.Request, password string) (*backupCodesResponse, int) {
	tf, ok := h.twoFactorClient()
	if !ok {
		return &backupCodesResponse{Error: "two-factor authentication is not enabled"}, http.StatusBadRequest
	}

	ctx := r.Context()
	headers, err := h.svc.AdaptedHeaders(r, h.svc.ExtractToken(r))
	if err != nil {
		return &backupCodesResponse{Error: "authentication is misconfigured"}, http.StatusBadRequest
	}

	codes, err := tf.GenerateBackupCodes(ctx, headers, legacypass.Transform(password))
	if err != nil {
		return &backupCodesResponse{Error: "failed to generate backup codes"}, http.StatusBadRequest
	}
	return &backupCodesResponse{Success: true, BackupCodes: codes}, http.StatusOK
}

func decodePassword(r *http.Request) (string, bool) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		return "", false
	}
	return req.Password, true
}
