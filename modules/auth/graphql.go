package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/principal"
)

// GraphQL error codes surfaced through extensions.code.
const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeBadRequest      = "BAD_REQUEST"
	codeDisabled        = "FEATURE_DISABLED"
)

// gqlError carries a machine-readable code alongside the message, formatted
// into extensions.code by the graphql library.
type gqlError struct {
	message string
	code    string
}

func (e *gqlError) Error() string { return e.message }

func (e *gqlError) Extensions() map[string]any {
	return map[string]any{"code": e.code}
}

type gqlRequestKey struct{}
type gqlWriterKey struct{}

// graphQL serves the auth schema at POST {basePath}/graphql. The response
// writer and request travel through the resolver context so mutations can
// set and clear session cookies exactly like their REST counterparts.
func (h *handlers) graphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []map[string]any{{"message": "invalid graphql request"}},
		})
		return
	}

	ctx := context.WithValue(r.Context(), gqlWriterKey{}, w)
	ctx = context.WithValue(ctx, gqlRequestKey{}, r)

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	writeJSON(w, http.StatusOK, result)
}

// gqlHTTP extracts the transport pair resolvers need for cookie handling.
func gqlHTTP(p graphql.ResolveParams) (http.ResponseWriter, *http.Request, error) {
	w, _ := p.Context.Value(gqlWriterKey{}).(http.ResponseWriter)
	r, _ := p.Context.Value(gqlRequestKey{}).(*http.Request)
	if w == nil || r == nil {
		return nil, nil, &gqlError{message: "graphql transport not available", code: codeBadRequest}
	}
	return w, r, nil
}

// asGQLResult converts a REST handler result into a resolver return value:
// handled outcomes pass through, hard failures become typed errors.
func asGQLResult(resp *response, status int) (any, error) {
	if resp.Success || resp.RequiresTwoFactor {
		return resp, nil
	}

	code := codeBadRequest
	if status == http.StatusUnauthorized {
		code = codeUnauthenticated
	}
	return nil, &gqlError{message: resp.Error, code: code}
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func boolArg(p graphql.ResolveParams, name string) bool {
	b, _ := p.Args[name].(bool)
	return b
}

func mustSchema(h *handlers) graphql.Schema {
	principalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthUser",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"iamId":    &graphql.Field{Type: graphql.String},
			"email":    &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"roles":    &graphql.Field{Type: graphql.NewList(graphql.String)},
			"verified": &graphql.Field{Type: graphql.Boolean},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthSession",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"expiresAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	authResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthResult",
		Fields: graphql.Fields{
			"success":           &graphql.Field{Type: graphql.Boolean},
			"requiresTwoFactor": &graphql.Field{Type: graphql.Boolean},
			"user":              &graphql.Field{Type: principalType},
			"session":           &graphql.Field{Type: sessionType},
			"error":             &graphql.Field{Type: graphql.String},
		},
	})

	featuresType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthFeatures",
		Fields: graphql.Fields{
			"jwt":             &graphql.Field{Type: graphql.Boolean},
			"twoFactor":       &graphql.Field{Type: graphql.Boolean},
			"passkey":         &graphql.Field{Type: graphql.Boolean},
			"legacyPassword":  &graphql.Field{Type: graphql.Boolean},
			"socialProviders": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	twoFactorSetupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TwoFactorSetup",
		Fields: graphql.Fields{
			"success":     &graphql.Field{Type: graphql.Boolean},
			"totpURI":     &graphql.Field{Type: graphql.String},
			"qrCode":      &graphql.Field{Type: graphql.String},
			"backupCodes": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	backupCodesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BackupCodes",
		Fields: graphql.Fields{
			"success":     &graphql.Field{Type: graphql.Boolean},
			"backupCodes": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	passkeyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Passkey",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"deviceType": &graphql.Field{Type: graphql.String},
			"backedUp":   &graphql.Field{Type: graphql.Boolean},
			"createdAt":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	passkeyChallengeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PasskeyChallenge",
		Fields: graphql.Fields{
			"success":     &graphql.Field{Type: graphql.Boolean},
			"options":     &graphql.Field{Type: graphql.String},
			"challengeId": &graphql.Field{Type: graphql.String},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"betterAuthSession": &graphql.Field{
				Type: authResultType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if pr, ok := principal.FromContext(p.Context); ok {
						return &response{Success: true, User: pr}, nil
					}
					return &response{Success: false}, nil
				},
			},
			"betterAuthEnabled": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return h.enabled(), nil
				},
			},
			"betterAuthFeatures": &graphql.Field{
				Type: featuresType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return h.svc.Features(), nil
				},
			},
			"betterAuthListPasskeys": &graphql.Field{
				Type: graphql.NewList(passkeyType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					resp, _ := h.doPasskeyList(r)
					if !resp.Success {
						return nil, &gqlError{message: resp.Error, code: codeDisabled}
					}
					return resp.Passkeys, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"betterAuthSignIn": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					w, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return asGQLResult(h.doSignIn(w, r, stringArg(p, "email"), stringArg(p, "password")))
				},
			},
			"betterAuthSignUp": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					w, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return asGQLResult(h.doSignUp(w, r, stringArg(p, "email"), stringArg(p, "password"), stringArg(p, "name")))
				},
			},
			"betterAuthSignOut": &graphql.Field{
				Type: authResultType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					w, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return h.doSignOut(w, r), nil
				},
			},
			"betterAuthVerify2FA": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"code":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"trustDevice": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					w, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return asGQLResult(h.doVerifyTwoFactor(w, r, stringArg(p, "code"), boolArg(p, "trustDevice")))
				},
			},
			"betterAuthEnable2FA": &graphql.Field{
				Type: twoFactorSetupType,
				Args: graphql.FieldConfigArgument{
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					resp, _ := h.doEnableTwoFactor(r, stringArg(p, "password"))
					if !resp.Success {
						return nil, &gqlError{message: resp.Error, code: codeDisabled}
					}
					return resp, nil
				},
			},
			"betterAuthDisable2FA": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return asGQLResult(h.doDisableTwoFactor(r, stringArg(p, "password")))
				},
			},
			"betterAuthGenerateBackupCodes": &graphql.Field{
				Type: backupCodesType,
				Args: graphql.FieldConfigArgument{
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					resp, _ := h.doGenerateBackupCodes(r, stringArg(p, "password"))
					if !resp.Success {
						return nil, &gqlError{message: resp.Error, code: codeDisabled}
					}
					return resp, nil
				},
			},
			"betterAuthGetPasskeyChallenge": &graphql.Field{
				Type: passkeyChallengeType,
				Args: graphql.FieldConfigArgument{
					"type": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}

					ceremony := challenge.CeremonyAuthentication
					if stringArg(p, "type") == string(challenge.CeremonyRegistration) {
						ceremony = challenge.CeremonyRegistration
					}

					resp, _ := h.doPasskeyChallenge(r, ceremony)
					if !resp.Success {
						return nil, &gqlError{message: resp.Error, code: codeDisabled}
					}
					return map[string]any{
						"success":     true,
						"options":     string(resp.Options),
						"challengeId": resp.ChallengeID,
					}, nil
				},
			},
			"betterAuthDeletePasskey": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					_, r, err := gqlHTTP(p)
					if err != nil {
						return nil, err
					}
					return asGQLResult(h.doPasskeyDelete(r, stringArg(p, "id")))
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
	if err != nil {
		panic("auth: invalid graphql schema: " + err.Error())
	}
	return schema
}
