package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for surplus.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surplus",
		Short: "Inventory of surplus devices awaiting disposal",
		Long: `surplus records surplus devices (serial number, asset tag, device type)
through a small web form and keeps them in a local SQLite database.

The inventory can be searched in the browser, exported as CSV, Markdown or JSON,
and the whole application directory can be snapshotted into a ZIP archive.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewBackupCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
