package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/surplus/internal/config"
)

//go:embed templates/surplus.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new surplus configuration file",
		Long: `Initialize creates a new .surplus configuration file in the current directory.

The generated file documents every option with its default value:
- Listen address, session secret and shutdown timeout
- Database location
- Application root, backup directory and excluded directories
- Log verbosity and format

Examples:
  # Create .surplus in current directory
  surplus init

  # Create config file at a specific path
  surplus init -o ~/.config/surplus/config.yaml

  # Force overwrite existing file
  surplus init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/surplus.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", color.GreenString("Created configuration file:"), outputPath)
	fmt.Fprintln(out, "\nEdit this file to change settings such as:")
	fmt.Fprintln(out, "  - The listen port and session secret")
	fmt.Fprintln(out, "  - The database location")
	fmt.Fprintln(out, "  - Directories excluded from backups")
	fmt.Fprintf(out, "\nEnvironment variables (%s, %s, ...) and .env override the file.\n",
		config.EnvPort, config.EnvSecretKey)

	return nil
}
