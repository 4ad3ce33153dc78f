package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/api_gateway/middleware"
	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/config"
)

const rateLimitCleanupInterval = time.Minute

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger    // For structured logging
	httpServer      *http.Server    // Underlying HTTP server
	httpRouter      *gin.Engine     // Gin router instance
	limiter         *middleware.RateLimiter
	shutdownTimeout time.Duration
	done            chan struct{}
}

// NewServer creates and configures a new HTTP server with one route group per record
// service. historyService may be nil.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	recordServices []service.RecordService,
	historyService service.HistoryService,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	}

	setupRouter(log, cfg, httpRouter, limiter, recordServices, historyService, time.Now())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		limiter:         limiter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		done:            make(chan struct{}),
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if s.limiter != nil {
		go s.cleanupLimiter()
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, bounded by the configured shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}

func (s *Server) cleanupLimiter() {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed := s.limiter.Cleanup(); removed > 0 {
				s.logger.Debug("Dropped idle rate limiters", "count", removed)
			}
		}
	}
}
