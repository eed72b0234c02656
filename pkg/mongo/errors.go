package mongo

import "errors"

var (
	// ErrNotReady indicates the database never became reachable within the
	// configured attempts. Fatal at startup.
	ErrNotReady = errors.New("mongo: database not ready")

	// ErrHealthcheckFailed indicates a failed readiness ping.
	ErrHealthcheckFailed = errors.New("mongo: healthcheck failed")
)
