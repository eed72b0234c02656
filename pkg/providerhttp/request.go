package providerhttp

import (
	"net/http"
	"net/url"
	"strings"
)

// Options controls how an inbound request is rebuilt for the provider
// handler.
type Options struct {
	// BaseURL is the absolute URL the provider believes it is served from,
	// e.g. "https://app.example.com". Required.
	BaseURL string

	// SessionCookieName is the provider's session cookie name. Used when a
	// SessionToken is injected.
	SessionCookieName string

	// SessionToken, when set, is injected both as a signed session cookie
	// and as an Authorization bearer header so the provider can locate the
	// session regardless of transport.
	SessionToken string

	// Secret signs the injected session cookie.
	Secret string

	// Production makes a missing secret a hard error instead of sending the
	// cookie unsigned.
	Production bool
}

// Outbound rebuilds the inbound request as an absolute-URL request suitable
// for the provider's handler. Multi-value headers are flattened with a comma
// join, matching what the provider's web-standard request parser expects.
func Outbound(r *http.Request, opts Options) (*http.Request, error) {
	if opts.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, ErrMissingBaseURL
	}

	target := *base
	target.Path = singleJoin(base.Path, r.URL.Path)
	target.RawQuery = r.URL.RawQuery

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength

	for name, values := range r.Header {
		if len(values) == 1 {
			out.Header.Set(name, values[0])
			continue
		}
		out.Header.Set(name, strings.Join(values, ", "))
	}

	if opts.SessionToken != "" {
		value := opts.SessionToken
		if opts.Secret == "" {
			if opts.Production {
				return nil, ErrMissingSecret
			}
		} else {
			value = SignValue(opts.SessionToken, opts.Secret)
		}

		if opts.SessionCookieName != "" {
			out.AddCookie(&http.Cookie{Name: opts.SessionCookieName, Value: url.QueryEscape(value)})
		}
		out.Header.Set("Authorization", "Bearer "+opts.SessionToken)
	}

	return out, nil
}

func singleJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case strings.HasSuffix(a, "/") && strings.HasPrefix(b, "/"):
		return a + b[1:]
	case !strings.HasSuffix(a, "/") && !strings.HasPrefix(b, "/"):
		return a + "/" + b
	default:
		return a + b
	}
}
