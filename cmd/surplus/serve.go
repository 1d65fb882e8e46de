package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/surplus/internal/backup"
	"github.com/nao1215/surplus/internal/config"
	"github.com/nao1215/surplus/internal/server"
)

// errShutdownSignal marks a stop requested by SIGINT or SIGTERM.
var errShutdownSignal = errors.New("received shutdown signal")

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inventory web application",
		Long: `Serve starts the web application.

Routes:
  GET  /          add-device form
  POST /add       create a device
  GET  /devices   list devices, ?q= filters by substring
  GET  /export    download every device as CSV
  GET  /backup    download a ZIP snapshot of the application root
  GET  /healthz   liveness and device count as JSON

Examples:
  # Listen on the default port 5000
  surplus serve

  # Listen on localhost only, port 8080
  surplus serve --host 127.0.0.1 -p 8080

  # Use a database outside the application directory
  surplus serve --db /var/lib/surplus/devices.db`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("host", "H", config.DefaultHost, "Interface to listen on")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on (env PORT)")
	addConfigFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg)
	if cfg.UsesDefaultSecret() {
		logger.Warn("using the built-in session secret; set " + config.EnvSecretKey + " in production")
	}
	if cfg.ConfigFilePath != "" {
		logger.Info("configuration loaded", "file", cfg.ConfigFilePath)
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	archiver := backup.NewArchiver(cfg.AppRoot, cfg.BackupPath())
	archiver.Exclude = cfg.ExcludeDirs
	archiver.Logger = logger

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(cfg, db, archiver, logger)

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig.String())
			return errShutdownSignal
		case <-ctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdownSignal) && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
