package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/surplus/internal/backup"
	"github.com/nao1215/surplus/internal/config"
	"github.com/nao1215/surplus/internal/database"
)

// NewBackupCmd creates the backup command.
func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the application directory into a ZIP archive",
		Long: `Backup writes surplus_backup_<YYYYMMDD_HHMMSS>.zip into the backup directory.

Every regular file under the application root is included, except files
under directories named backups, .venv, venv, __pycache__ or .git (or the
exclude_dirs list of the configuration file). Symlinks to files are archived
with the target's contents; symlinks to directories are not followed.
Archives are never pruned.

The database runs in WAL mode. Before archiving, pending WAL frames are
checkpointed into devices.db so the archived database is complete on its
own. If the checkpoint fails (a warning is logged), restore devices.db
together with the devices.db-wal file from the same archive.

Examples:
  # Back up the current directory into ./backups
  surplus backup

  # Back up another checkout
  surplus backup --root /srv/surplus`,
		Args: cobra.NoArgs,
		RunE: runBackupCmd,
	}

	addConfigFlags(cmd)
	return cmd
}

// runBackupCmd executes the backup command.
func runBackupCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkpointDatabase(ctx, cfg, logger)

	archiver := backup.NewArchiver(cfg.AppRoot, cfg.BackupPath())
	archiver.Exclude = cfg.ExcludeDirs
	archiver.Logger = logger

	result, err := createBackup(ctx, archiver)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d files, %d bytes)\n",
		color.GreenString("Created"), result.Path, len(result.Files), result.Size)
	return nil
}

// checkpointDatabase folds the WAL of an existing database back into the main
// file. A missing database is left alone and failures only log a warning.
func checkpointDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	path := cfg.DatabasePath()
	if _, err := os.Stat(path); err != nil {
		logger.Debug("no database to checkpoint", "db", path)
		return
	}

	db, err := database.Open(path, database.Options{Logger: logger})
	if err != nil {
		logger.Warn("failed to open database for checkpoint", "db", path, "error", err)
		return
	}
	defer db.Close()

	if err := db.Checkpoint(ctx); err != nil {
		logger.Warn("database checkpoint failed, archive needs its -wal file", "db", path, "error", err)
	}
}

// createBackup runs the archiver and wraps its error for the CLI.
func createBackup(ctx context.Context, archiver *backup.Archiver) (*backup.Result, error) {
	result, err := archiver.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup failed: %w", err)
	}
	return result, nil
}
