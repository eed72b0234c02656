package provider

import (
	"encoding/json"
	"net/http"
)

// SignInKind discriminates the three possible sign-in outcomes.
type SignInKind int

const (
	// SignInFailure covers bad credentials and every provider-side error.
	SignInFailure SignInKind = iota

	// SignInSuccess means the provider issued a session for the user.
	SignInSuccess

	// SignInTwoFactorRequired means credentials were accepted but a second
	// factor must be verified before a session is issued.
	SignInTwoFactorRequired
)

// SignInOutcome is the decoded result of a sign-in or sign-up call. The
// provider's loosely shaped JSON is turned into this variant exactly once, at
// the boundary where the response is received; nothing downstream inspects
// raw provider payloads.
type SignInOutcome struct {
	Kind    SignInKind
	Session *Session
	User    *SessionUser
	Token   string // JWT, when the provider issued one
	Message string // generic failure message, never credential detail
}

// rawSignInResponse mirrors the union of fields the provider may return.
type rawSignInResponse struct {
	TwoFactorRedirect bool         `json:"twoFactorRedirect"`
	Token             string       `json:"token"`
	User              *SessionUser `json:"user"`
	Session           *Session     `json:"session"`
	Message           string       `json:"message"`
}

// DecodeSignIn converts a provider sign-in/sign-up HTTP response into a
// SignInOutcome. It never fails: undecodable bodies become a failure outcome
// with a generic message.
func DecodeSignIn(statusCode int, body []byte) *SignInOutcome {
	var raw rawSignInResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return &SignInOutcome{Kind: SignInFailure, Message: "authentication failed"}
	}

	if raw.TwoFactorRedirect {
		return &SignInOutcome{Kind: SignInTwoFactorRequired}
	}

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices || raw.User == nil {
		msg := raw.Message
		if msg == "" {
			msg = "authentication failed"
		}
		return &SignInOutcome{Kind: SignInFailure, Message: msg}
	}

	return &SignInOutcome{
		Kind:    SignInSuccess,
		Session: raw.Session,
		User:    raw.User,
		Token:   raw.Token,
	}
}
