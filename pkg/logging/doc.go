// Package logging provides structured logging utilities for drydock components.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, environment-based log level configuration (LOG_LEVEL),
// module/version context injection, and source location tracking for debug
// logs.
//
// Set the default logger early in main:
//
//	logging.SetDefaultStructuredLoggerWithLevel("drydock", version, logLevel)
//	slog.Info("starting rollout", "service", "wiki", "environment", "staging")
package logging
