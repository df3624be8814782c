// Package logging provides structured logging for the backplate gateway.
//
// It wraps the standard library's log/slog with configuration-driven
// format/level selection and default service fields. Components that need a
// logger should accept a small interface (Debug/Info/Warn/Error with
// key-value pairs) rather than this concrete type, so tests can inject a
// no-op implementation.
package logging
