package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/surplus/internal/database"
	"github.com/nao1215/surplus/internal/export"
	"github.com/nao1215/surplus/internal/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export devices as CSV, Markdown or JSON",
		Long: `Export writes every device, oldest first, in the same CSV layout as the
web download. Markdown output renders the rows as a table; JSON output
is a single document for other tools.

Examples:
  # CSV to stdout
  surplus export

  # CSV file
  surplus export -o devices.csv

  # Markdown table of laptops only
  surplus export --format markdown -q Laptop -o laptops.md`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("format", "f", string(export.FormatCSV), "Output format: csv, markdown or json")
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout (creates directories if needed)")
	cmd.Flags().StringP("query", "q", "", "Only export devices matching this case-sensitive substring")
	addConfigFlags(cmd)

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	query, err := cmd.Flags().GetString("query")
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	devices, err := db.List(cmd.Context(), database.ListOptions{
		Query: strings.TrimSpace(query),
		Order: database.OrderOldestFirst,
	})
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if outputPath == "" {
		return writeExport(cmd.OutOrStdout(), format, devices)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(outputPath) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := writeExport(file, format, devices); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %d devices to %s\n",
		color.GreenString("Exported"), len(devices), outputPath)
	return nil
}

// writeExport renders devices in format to w.
func writeExport(w io.Writer, format export.Format, devices []model.Device) error {
	writer, err := export.NewWriter(format, w)
	if err != nil {
		return err
	}
	if err := writer.Write(devices); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
