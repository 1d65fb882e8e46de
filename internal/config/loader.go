package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".surplus"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// DefaultEnvFile is the dotenv file read from the working directory.
const DefaultEnvFile = ".env"

// Environment variables overriding file configuration.
const (
	EnvPort      = "PORT"
	EnvSecretKey = "SURPLUS_SECRET_KEY"
	EnvDBPath    = "SURPLUS_DB_PATH"
	EnvAppRoot   = "SURPLUS_APP_ROOT"
	EnvBackupDir = "SURPLUS_BACKUP_DIR"
	EnvLogFormat = "SURPLUS_LOG_FORMAT"

	// EnvLegacySecretKey is honored when EnvSecretKey is unset, so existing
	// deployments keep their session key.
	EnvLegacySecretKey = "FLASK_SECRET_KEY"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .surplus configuration file.
// Zero values leave the corresponding Config field untouched.
type File struct {
	Server  ServerSection  `yaml:"server,omitempty"`
	Storage StorageSection `yaml:"storage,omitempty"`
	Backup  BackupSection  `yaml:"backup,omitempty"`
	Log     LogSection     `yaml:"log,omitempty"`
}

// ServerSection configures the HTTP listener.
type ServerSection struct {
	Host            string        `yaml:"host,omitempty"`
	Port            int           `yaml:"port,omitempty"`
	SecretKey       string        `yaml:"secret_key,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// StorageSection configures the device database.
type StorageSection struct {
	DBPath string `yaml:"db_path,omitempty"`
}

// BackupSection configures the backup utility.
type BackupSection struct {
	AppRoot     string   `yaml:"app_root,omitempty"`
	Dir         string   `yaml:"dir,omitempty"`
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
}

// LogSection configures logging.
type LogSection struct {
	Verbose bool   `yaml:"verbose,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// Apply copies every non-zero value of the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if cf.Server.Host != "" {
		cfg.Host = cf.Server.Host
	}
	if cf.Server.Port != 0 {
		cfg.Port = cf.Server.Port
	}
	if cf.Server.SecretKey != "" {
		cfg.SecretKey = cf.Server.SecretKey
	}
	if cf.Server.ShutdownTimeout != 0 {
		cfg.ShutdownTimeout = cf.Server.ShutdownTimeout
	}
	if cf.Storage.DBPath != "" {
		cfg.DBPath = cf.Storage.DBPath
	}
	if cf.Backup.AppRoot != "" {
		cfg.AppRoot = cf.Backup.AppRoot
	}
	if cf.Backup.Dir != "" {
		cfg.BackupDir = cf.Backup.Dir
	}
	if len(cf.Backup.ExcludeDirs) > 0 {
		cfg.ExcludeDirs = append([]string(nil), cf.Backup.ExcludeDirs...)
	}
	if cf.Log.Verbose {
		cfg.Verbose = true
	}
	if cf.Log.Format != "" {
		cfg.LogFormat = cf.Log.Format
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .surplus in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .surplus in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LookupFunc returns the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile reads a dotenv file without touching the process environment.
// A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// EnvLookup returns a LookupFunc that prefers the process environment and
// falls back to dotenv values. An empty process variable counts as unset.
func EnvLookup(dotenv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// ApplyEnv overrides cfg with the environment variables known to lookup.
// Empty values are ignored. A PORT that is not a number returns ErrInvalidPort.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return v
	}

	if v := get(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidPort, EnvPort, v)
		}
		cfg.Port = port
	}

	if v := get(EnvSecretKey); v != "" {
		cfg.SecretKey = v
	} else if v := get(EnvLegacySecretKey); v != "" {
		cfg.SecretKey = v
	}

	if v := get(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := get(EnvAppRoot); v != "" {
		cfg.AppRoot = v
	}
	if v := get(EnvBackupDir); v != "" {
		cfg.BackupDir = v
	}
	if v := get(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	return nil
}

// Load builds a Config from defaults, the YAML file, the dotenv file and
// the process environment, in increasing precedence. CLI flags are applied
// by the caller afterwards.
//
// An explicit configPath that does not exist returns ErrConfigNotFound;
// a missing default file is not an error.
func Load(configPath, envPath string) (*Config, error) {
	cfg := NewConfig()

	if path := FindConfigFile(configPath); path != "" {
		cf, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cf.Apply(cfg)
		cfg.ConfigFilePath = path
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	dotenv, err := LoadEnvFile(envPath)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, EnvLookup(dotenv)); err != nil {
		return nil, err
	}
	return cfg, nil
}
