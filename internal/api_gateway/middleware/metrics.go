package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/metrics"
)

// Metrics records request count and latency per route pattern
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
