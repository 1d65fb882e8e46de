package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/surplus/internal/backup"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "surplus"

	// DefaultHost listens on every interface, so the inventory form is
	// reachable from other machines on the warehouse network.
	DefaultHost = "0.0.0.0"

	// DefaultPort is used when neither PORT nor --port is given.
	DefaultPort = 5000

	// DefaultSecretKey signs the flash session cookie when no key is
	// configured. It is public, so serve warns at startup when it is in use.
	DefaultSecretKey = "dev-secret"

	// DefaultDBFile is the database file name, resolved against AppRoot.
	DefaultDBFile = "devices.db"

	// DefaultBackupDir is the archive directory name, resolved against AppRoot.
	DefaultBackupDir = "backups"

	// DefaultShutdownTimeout bounds how long in-flight requests (a large
	// backup download, typically) may run after a shutdown signal.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultLogFormat is slog's key=value text output.
	DefaultLogFormat = "text"
)

// Config holds all configuration options for surplus.
// This struct is populated once at startup and passed to the database,
// backup and server packages via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The YAML file groups keys into sections (see File), but the code reading
// them only needs the resolved values.
type Config struct {
	// Host is the interface the HTTP server binds to.
	Host string

	// Port is the TCP port the HTTP server listens on.
	Port int

	// SecretKey signs the session cookie that carries flash notices.
	SecretKey string

	// DBPath is the SQLite database file. A relative path is resolved
	// against AppRoot.
	DBPath string

	// AppRoot is the directory tree captured by backups.
	AppRoot string

	// BackupDir receives backup archives. A relative path is resolved
	// against AppRoot.
	BackupDir string

	// ExcludeDirs lists directory base names pruned from backups at any depth.
	ExcludeDirs []string

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	ShutdownTimeout time.Duration

	// Verbose enables debug-level logging.
	Verbose bool

	// LogFormat selects "text" or "json" log output.
	LogFormat string

	// ConfigFilePath is the YAML file the configuration was read from,
	// empty when none was found.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (port, secret, paths).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		SecretKey:       DefaultSecretKey,
		DBPath:          DefaultDBFile,
		AppRoot:         ".",
		BackupDir:       DefaultBackupDir,
		ExcludeDirs:     backup.DefaultExclude(),
		ShutdownTimeout: DefaultShutdownTimeout,
		LogFormat:       DefaultLogFormat,
	}
}

// XDGConfigDir returns the XDG config directory for surplus.
// On Linux: ~/.config/surplus
// On macOS: ~/Library/Application Support/surplus
// On Windows: %APPDATA%\surplus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabasePath returns DBPath, resolved against AppRoot when relative.
func (c *Config) DatabasePath() string {
	return c.resolve(c.DBPath)
}

// BackupPath returns BackupDir, resolved against AppRoot when relative.
// An empty BackupDir means DefaultBackupDir.
func (c *Config) BackupPath() string {
	if c.BackupDir == "" {
		return c.resolve(DefaultBackupDir)
	}
	return c.resolve(c.BackupDir)
}

// UsesDefaultSecret reports whether the publicly known fallback key is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.AppRoot, path)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after all sources are merged, before the database
// is opened.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}

	if c.SecretKey == "" {
		return ErrEmptySecretKey
	}

	if c.DBPath == "" {
		return ErrEmptyDBPath
	}

	if c.AppRoot == "" {
		return ErrEmptyAppRoot
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}
