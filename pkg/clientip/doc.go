// Package clientip resolves the originating client's IP address from an
// *http.Request when the application sits behind one or more reverse
// proxies.
//
// The resolution algorithm examines, in descending priority:
//
//  1. X-Forwarded-For – comma-separated list (the first valid IP is used)
//  2. X-Real-IP       – set by reverse proxies such as Nginx
//  3. RemoteAddr      – TCP peer address as a fallback
//
// If none of the sources yields a parseable address, the literal
// "unknown" is returned so the result is always a usable map/redis key.
//
// Helper functions are provided for common scenarios:
//
//   - GetIP extracts the client IP from an *http.Request.
//   - SetIPToContext and GetIPFromContext store/retrieve the resolved
//     address inside a context.Context.
//   - Middleware is a net/http compatible middleware that adds the IP to
//     the request's context so downstream handlers can fetch it without
//     duplicating the resolution logic.
package clientip
