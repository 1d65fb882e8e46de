// Package log provides structured logging for surplus, built on the standard
// slog package with automatic masking of secrets.
//
// The SecureHandler masks attribute values before they reach the output:
//   - The session-notice signing secret (keys such as secret, secret_key)
//   - Cookies (cookie, set-cookie) and session identifiers
//   - Authorization headers and bearer tokens
//
// Even in verbose mode these values are masked, so logs can be shared when
// reporting problems.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, log.FormatText)
//	slog.SetDefault(logger)
//
//	logger.Info("configuration loaded", "secret_key", cfg.SecretKey) // secret_key=***REDACTED***
package log
