// Package config provides the runtime configuration for surplus.
// It defines the Config struct with its defaults and validation, and loads
// overrides from a YAML file, a .env file and environment variables.
package config
