package auth

import (
	"io"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/authbridge/pkg/identity"
	"github.com/dmitrymomot/authbridge/pkg/jwtverify"
	"github.com/dmitrymomot/authbridge/pkg/providerhttp"
	"github.com/dmitrymomot/authbridge/provider"
)

// Social provider identifiers advertised through Features.
const (
	SocialGoogle = "google"
	SocialGitHub = "github"
)

// Service is the facade over the external auth provider, the local user
// store and JWT verification. Every method degrades to a safe default (empty
// result, nil, false) instead of surfacing transport or store errors, so a
// provider outage never cascades into 500s on unrelated endpoints.
type Service struct {
	client   provider.Client
	cfg      Config
	db       *mongo.Database
	verifier *jwtverify.Verifier
	mapper   *identity.Mapper
	logger   *slog.Logger
}

// Option is a functional option for Service.
type Option func(*Service)

// WithDatabase attaches the Mongo database holding the provider's sessions,
// users and jwks collections. Without it the bearer-token fallback and
// asymmetric JWT verification are disabled.
func WithDatabase(db *mongo.Database) Option {
	return func(s *Service) { s.db = db }
}

// WithMapper sets the identity mapper used by the session middleware.
func WithMapper(m *identity.Mapper) Option {
	return func(s *Service) { s.mapper = m }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the facade. client may be nil, which leaves the module
// disabled but still constructible so the rest of the application can boot.
func New(client provider.Client, cfg Config, opts ...Option) *Service {
	s := &Service{
		client: client,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.mapper == nil {
		s.mapper = identity.NewMapper(nil)
	}

	verifierOpts := []jwtverify.Option{}
	if cfg.Secret != "" {
		verifierOpts = append(verifierOpts, jwtverify.WithSharedSecret(cfg.Secret))
	}
	if s.db != nil {
		verifierOpts = append(verifierOpts, jwtverify.WithKeySource(jwtverify.NewMongoKeySource(s.db)))
	}
	s.verifier = jwtverify.New(cfg.BaseURL, cfg.BaseURL, verifierOpts...)

	return s
}

// Enabled reports whether the auth module is operational: a provider client
// exists and configuration does not explicitly disable it.
func (s *Service) Enabled() bool {
	return s.client != nil && s.cfg.Enabled.Enabled()
}

// Config returns the resolved configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Client returns the underlying provider client, or nil when disabled.
func (s *Service) Client() provider.Client {
	return s.client
}

// Mapper returns the identity mapper.
func (s *Service) Mapper() *identity.Mapper {
	return s.mapper
}

// Features describes which optional capabilities are live, combining the
// configuration toggles with the capabilities the provider client actually
// exposes.
type Features struct {
	JWT             bool     `json:"jwt"`
	TwoFactor       bool     `json:"twoFactor"`
	Passkey         bool     `json:"passkey"`
	LegacyPassword  bool     `json:"legacyPassword"`
	SocialProviders []string `json:"socialProviders"`
}

// Features reports the live capability set.
func (s *Service) Features() Features {
	f := Features{
		JWT:             s.cfg.JWT.Enabled() && s.cfg.Secret != "",
		LegacyPassword:  s.cfg.LegacyPassword.Enabled(),
		SocialProviders: make([]string, 0, 2),
	}

	if s.client != nil {
		if _, ok := s.client.TwoFactor(); ok {
			f.TwoFactor = s.cfg.TwoFactor.Enabled()
		}
		if _, ok := s.client.Passkey(); ok {
			f.Passkey = s.cfg.Passkey.Enabled()
		}
	}

	for name := range s.SocialProviders() {
		f.SocialProviders = append(f.SocialProviders, name)
	}

	return f
}

// SocialProviders returns an oauth2 config per social provider that has both
// credentials set and is not disabled. The redirect URL follows the
// provider's callback convention under the auth base path.
func (s *Service) SocialProviders() map[string]*oauth2.Config {
	providers := make(map[string]*oauth2.Config, 2)

	if s.cfg.Google.configured() {
		providers[SocialGoogle] = &oauth2.Config{
			ClientID:     s.cfg.Google.ClientID,
			ClientSecret: s.cfg.Google.ClientSecret,
			RedirectURL:  s.callbackURL(SocialGoogle),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	if s.cfg.GitHub.configured() {
		providers[SocialGitHub] = &oauth2.Config{
			ClientID:     s.cfg.GitHub.ClientID,
			ClientSecret: s.cfg.GitHub.ClientSecret,
			RedirectURL:  s.callbackURL(SocialGitHub),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}

	return providers
}

func (s *Service) callbackURL(name string) string {
	return s.cfg.BaseURL + s.cfg.BasePath + "/callback/" + name
}

// AdaptedHeaders rebuilds the inbound request headers the way the provider
// expects them: absolute URL semantics, flattened multi-value headers, and
// the session token injected as both a signed cookie and a bearer header.
func (s *Service) AdaptedHeaders(r *http.Request, sessionToken string) (http.Header, error) {
	out, err := providerhttp.Outbound(r, providerhttp.Options{
		BaseURL:           s.cfg.BaseURL,
		SessionCookieName: s.cfg.ProviderCookie(),
		SessionToken:      sessionToken,
		Secret:            s.cfg.Secret,
		Production:        s.cfg.Production,
	})
	if err != nil {
		return nil, err
	}
	return out.Header, nil
}
