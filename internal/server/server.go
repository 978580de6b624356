// Package server holds the long-lived dependencies of the API process and
// owns the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/employees-api/internal/config"
	"github.com/deppfellow/employees-api/internal/database"
	"github.com/deppfellow/employees-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/employees-api/internal/logger"
)

// Server is shared by every repository, service and handler. LoggerService
// may be nil when New Relic is not configured.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics

	httpServer *http.Server
}

// New opens the connection pool. The HTTP server is configured separately
// by SetupHTTPServer.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return NewWithDatabase(cfg, logger, loggerService, db), nil
}

// NewWithDatabase uses a private registry so that tests can build many
// servers in one process.
func NewWithDatabase(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, db *database.Database) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Registry:      registry,
		Metrics:       metrics.NewMetrics(registry),
	}
}

func (s *Server) SetupHTTPServer(handler http.Handler) {
	cfg := s.Config.Server
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       seconds(cfg.ReadTimeout),
		ReadHeaderTimeout: seconds(cfg.ReadTimeout),
		WriteTimeout:      seconds(cfg.WriteTimeout),
		IdleTimeout:       seconds(cfg.IdleTimeout),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx is done. The pool is closed
// even when draining times out.
func (s *Server) Shutdown(ctx context.Context) error {
	var httpErr, dbErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			httpErr = fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		dbErr = fmt.Errorf("failed to close database connection: %w", err)
	}

	return errors.Join(httpErr, dbErr)
}
