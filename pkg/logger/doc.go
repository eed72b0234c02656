// Package logger builds the application's slog.Logger: JSON or text output,
// env-driven configuration, and optional per-record context extraction for
// request-scoped attributes. Packages in this module accept a *slog.Logger
// through options and default to a discard handler; this package is where
// the real one comes from.
package logger
