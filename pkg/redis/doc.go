// Package redis establishes the Redis connection backing distributed
// rate-limit counters, with bounded startup retries and a healthcheck probe.
package redis
