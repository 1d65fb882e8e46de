package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/surplus/internal/backup"
	"github.com/nao1215/surplus/internal/config"
	"github.com/nao1215/surplus/internal/database"
	"github.com/nao1215/surplus/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionName is the cookie carrying flash notices.
const SessionName = "surplus_session"

// readHeaderTimeout bounds slow clients sending request headers.
const readHeaderTimeout = 10 * time.Second

// Store is the device storage the handlers need.
// *database.DeviceDB satisfies it.
type Store interface {
	Insert(ctx context.Context, device *model.Device) (int64, error)
	List(ctx context.Context, opts database.ListOptions) ([]model.Device, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Checkpoint(ctx context.Context) error
}

// Backupper creates source-tree snapshots. *backup.Archiver satisfies it.
type Backupper interface {
	Create(ctx context.Context) (*backup.Result, error)
}

// Server is the surplus web application.
type Server struct {
	cfg      *config.Config
	store    Store
	archiver Backupper
	logger   *slog.Logger
	now      func() time.Time
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now as the source of device creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New builds a Server and its routes. It does not start listening.
// A nil logger means slog.Default().
func New(cfg *config.Config, store Store, archiver Backupper, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = s.newEngine()
	return s
}

// newEngine wires middleware, templates and routes.
func (s *Server) newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.logger))

	store := cookie.NewStore([]byte(s.cfg.SecretKey))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(SessionName, store))

	engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	engine.GET("/", s.handleIndex)
	engine.POST("/add", s.handleAdd)
	engine.GET("/devices", s.handleDevices)
	engine.GET("/export", s.handleExport)
	engine.GET("/backup", s.handleBackup)
	engine.GET("/healthz", s.handleHealth)

	return engine
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully,
// giving in-flight requests up to ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		s.logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
