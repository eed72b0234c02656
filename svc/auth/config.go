package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/authbridge/pkg/ratelimit"
)

// Cookie names set on successful authentication. The provider-native and
// legacy names exist so that clients written against either generation of the
// stack keep working.
const (
	TokenCookie         = "token"
	LegacySessionCookie = "better-auth.session_token"
	DebugSessionCookie  = "session"
)

// FeatureConfig is an enabled-unless-disabled toggle that accepts both the
// shapes the deployment environment historically used: a bare boolean
// ("false") or a JSON object ({"enabled": false, ...}). An unset value counts
// as enabled.
type FeatureConfig struct {
	set     bool
	enabled bool
}

// Enabled reports whether the feature is on. Absence means enabled.
func (f FeatureConfig) Enabled() bool {
	return !f.set || f.enabled
}

// Disabled constructs an explicitly disabled toggle.
func Disabled() FeatureConfig {
	return FeatureConfig{set: true, enabled: false}
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (f *FeatureConfig) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*f = FeatureConfig{}
		return nil
	}

	if strings.HasPrefix(s, "{") {
		var obj struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return fmt.Errorf("auth: invalid feature config %q: %w", s, err)
		}
		f.set = true
		f.enabled = obj.Enabled == nil || *obj.Enabled
		return nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("auth: invalid feature config %q: %w", s, err)
	}
	f.set = true
	f.enabled = v
	return nil
}

// UnmarshalJSON accepts the same two shapes from JSON configuration.
func (f *FeatureConfig) UnmarshalJSON(data []byte) error {
	return f.UnmarshalText(data)
}

// SocialProviderConfig holds the OAuth credentials for one social provider.
// A provider is advertised only when both credentials are present and it is
// not explicitly disabled.
type SocialProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Disabled     bool   `env:"DISABLED"`
}

func (c SocialProviderConfig) configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && !c.Disabled
}

// Config is the auth module configuration.
type Config struct {
	Enabled    FeatureConfig `env:"AUTH_ENABLED"`
	BasePath   string        `env:"AUTH_BASE_PATH" envDefault:"/iam"`
	BaseURL    string        `env:"AUTH_BASE_URL" envDefault:"http://localhost:8080"`
	Secret     string        `env:"AUTH_SECRET"`
	Production bool          `env:"AUTH_PRODUCTION"`

	// ProviderURL is the upstream auth provider's HTTP surface, e.g.
	// "http://127.0.0.1:3000/api/auth". Empty leaves the module disabled.
	ProviderURL string `env:"AUTH_PROVIDER_URL"`

	// CustomCookie, when set, is an additional session cookie name written
	// alongside the standard ones.
	CustomCookie string `env:"AUTH_SESSION_COOKIE"`

	JWT            FeatureConfig `env:"AUTH_JWT"`
	TwoFactor      FeatureConfig `env:"AUTH_TWO_FACTOR"`
	Passkey        FeatureConfig `env:"AUTH_PASSKEY"`
	LegacyPassword FeatureConfig `env:"AUTH_LEGACY_PASSWORD"`

	Google SocialProviderConfig `envPrefix:"AUTH_GOOGLE_"`
	GitHub SocialProviderConfig `envPrefix:"AUTH_GITHUB_"`

	// Provider-owned collections read directly for the bearer-token
	// fallback and JWT key lookups.
	SessionsCollection string `env:"AUTH_SESSIONS_COLLECTION" envDefault:"sessions"`
	UsersCollection    string `env:"AUTH_USERS_COLLECTION" envDefault:"users"`

	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"168h"`

	RateLimit ratelimit.Config `envPrefix:"AUTH_"`
}

// ProviderCookie returns the provider-native session cookie name derived from
// the base path, e.g. "iam.session_token" for base path "/iam".
func (c Config) ProviderCookie() string {
	return strings.Trim(c.BasePath, "/") + ".session_token"
}

// CookieNames returns every session cookie name this module reads or writes,
// in extraction priority order.
func (c Config) CookieNames() []string {
	names := make([]string, 0, 4)
	if c.CustomCookie != "" {
		names = append(names, c.CustomCookie)
	}
	return append(names, TokenCookie, c.ProviderCookie(), LegacySessionCookie)
}
