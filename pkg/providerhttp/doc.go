// Package providerhttp adapts native HTTP requests and responses to the
// shape the external auth provider's handler works with.
//
// Outbound rebuilds an inbound request with an absolute URL derived from the
// configured base URL, flattens multi-value headers, and can inject a signed
// session cookie plus an Authorization bearer header so the provider finds
// the session regardless of transport. WriteResponse copies a provider
// response back, preserving every Set-Cookie header individually.
//
// Cookie signing uses the provider's value.signature HMAC-SHA256 format;
// SignValue/VerifyValue are shared with the auth facade for reading the
// provider's own cookies.
package providerhttp
