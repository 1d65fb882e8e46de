package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/surplus/internal/config"
	"github.com/nao1215/surplus/internal/database"
	surpluslog "github.com/nao1215/surplus/internal/log"
)

// addConfigFlags registers the flags shared by every command that touches
// the database or the application tree.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .surplus in current dir, XDG config dir or home)")
	cmd.Flags().String("db", "",
		"SQLite database path (default: devices.db under the app root)")
	cmd.Flags().String("root", "",
		"Application root captured by backups (default: current directory)")
	cmd.Flags().String("log-format", "",
		"Log output format: text or json")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig merges defaults, the config file, .env, the environment and
// finally the flags the user set explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, config.DefaultEnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}

	stringFlags := []struct {
		name   string
		target *string
	}{
		{name: "db", target: &cfg.DBPath},
		{name: "root", target: &cfg.AppRoot},
		{name: "log-format", target: &cfg.LogFormat},
		{name: "host", target: &cfg.Host},
	}
	for _, f := range stringFlags {
		if cmd.Flags().Lookup(f.name) == nil || !cmd.Flags().Changed(f.name) {
			continue
		}
		if *f.target, err = cmd.Flags().GetString(f.name); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("port") != nil && cmd.Flags().Changed("port") {
		if cfg.Port, err = cmd.Flags().GetInt("port"); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger creates the secret-masking structured logger on stderr.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return surpluslog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, surpluslog.Format(cfg.LogFormat))
}

// openDatabase opens the configured device database.
func openDatabase(cfg *config.Config, logger *slog.Logger) (*database.DeviceDB, error) {
	opts := database.DefaultOptions()
	opts.Logger = logger

	db, err := database.Open(cfg.DatabasePath(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
