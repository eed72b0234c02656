package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when no usable address can be resolved from the
// request. Rate-limit keys built from it still work, they just share a
// single bucket for unidentifiable clients.
const Unknown = "unknown"

// GetIP returns the originating client's IP address from an HTTP request.
// Resolution order:
//
//  1. X-Forwarded-For — comma-separated list, first valid entry wins
//  2. X-Real-IP — set by reverse proxies such as Nginx
//  3. RemoteAddr — TCP peer address
//
// When nothing parses as an IP, the literal "unknown" is returned so the
// function never yields an empty key.
func GetIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, ip := range strings.Split(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, assume it is already just an IP.
		host = r.RemoteAddr
	}
	if parsed := parseIP(host); parsed != "" {
		return parsed
	}

	return Unknown
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the IP is invalid.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	return ip.String()
}
