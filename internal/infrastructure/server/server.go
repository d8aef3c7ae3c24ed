package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	handlers "github.com/GriffinCanCode/SourceHealth/internal/api/http"
	"github.com/GriffinCanCode/SourceHealth/internal/api/middleware"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the dashboard HTTP server and its dependencies
type Server struct {
	router   *gin.Engine
	handlers *handlers.Handlers
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	http     *http.Server
}

// Options carries what the server serves.
type Options struct {
	Pipeline   handlers.Pipeline
	Report     *health.Report
	ReportPath string
	Metrics    *monitoring.Metrics
	Tracer     *tracing.Tracer
	// RateLimit guards on-demand validation; zero values use the default.
	RateLimit middleware.RateLimitConfig
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts Options, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.RateLimit.RequestsPerSecond <= 0 {
		opts.RateLimit = middleware.DefaultRateLimitConfig()
	}

	logger.Info("Initializing dashboard server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("report", opts.ReportPath),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(opts.Metrics))
	router.Use(tracing.HTTPMiddleware(opts.Tracer))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	h := handlers.NewHandlers(opts.Pipeline, opts.Report, opts.ReportPath, logger.Component("dashboard"))

	// Register routes
	router.GET("/healthz", h.Healthz)
	router.GET("/api/report", h.GetReport)
	router.GET("/api/sources", h.ListSources)
	router.GET("/api/sources/:name", h.GetSource)
	router.POST("/api/sources/:name/validate", middleware.RateLimit(opts.RateLimit), h.ValidateSource)

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	return &Server{
		router:   router,
		handlers: h,
		logger:   logger,
		config:   cfg,
		metrics:  opts.Metrics,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address from configuration
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
		return s.Close()
	}
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	defer func() { _ = s.logger.Sync() }()

	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
