package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/api_gateway/handler"
	"github.com/rice-supply-chain-api/internal/api_gateway/middleware"
	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/config"
	"github.com/rice-supply-chain-api/internal/metrics"
)

// setupRouter configures API routes and middleware for the application.
// historyService may be nil, in which case no history routes are registered.
func setupRouter(
	logger *slog.Logger,
	cfg *config.Config,
	r *gin.Engine,
	limiter *middleware.RateLimiter,
	recordServices []service.RecordService,
	historyService service.HistoryService,
	startedAt time.Time,
) {
	r.Use(middleware.ErrorDetail(cfg.Application.IsDevelopment()))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if limiter != nil {
		r.Use(limiter.Handler())
	}
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	api := r.Group("/api")
	for _, svc := range recordServices {
		kind := svc.Kind()
		recordHandler := handler.NewRecordHandler(logger, svc)

		group := api.Group("/" + kind.Path)
		{
			group.GET("", recordHandler.List)
			group.POST("", recordHandler.Create)
			if kind.AlternateKey != "" {
				group.GET("/qr/:"+kind.AlternateKey, recordHandler.GetByAlternateKey)
			}

			byID := group.Group("/:id", middleware.ValidateIDParam("id"))
			byID.GET("", recordHandler.GetByID)
			byID.PUT("", recordHandler.Update)
			byID.DELETE("", recordHandler.Delete)

			if historyService != nil {
				historyHandler := handler.NewHistoryHandler(logger, kind, historyService)
				byID.GET("/history", historyHandler.GetHistory)
			}
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(middleware.TimestampLayout),
			"uptime":    time.Since(startedAt).Seconds(),
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	r.NoRoute(handler.RespondRouteNotFound)
}
