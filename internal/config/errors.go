package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and by the loaders.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidPort is returned when the listen port is outside 1-65535
	// or an override is not a number.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrEmptySecretKey is returned when no key is available to sign the
	// session cookie that carries flash notices.
	ErrEmptySecretKey = errors.New("secret key must not be empty")

	// ErrEmptyDBPath is returned when the SQLite database path is empty.
	ErrEmptyDBPath = errors.New("database path must not be empty")

	// ErrEmptyAppRoot is returned when the application root to back up is empty.
	ErrEmptyAppRoot = errors.New("application root must not be empty")

	// ErrInvalidShutdownTimeout is returned when the graceful shutdown timeout is not positive.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be positive")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)
