package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rice-supply-chain-api/internal/logger"
)

// CorrelationIDHeader carries the id in both directions. CORS exposes it to browsers.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDKey is the gin key the envelope reads the id from.
const CorrelationIDKey = "correlation_id"

// maxCorrelationIDLength bounds ids accepted from callers; they end up in logs, record
// events and the trace recorder's audit trail.
const maxCorrelationIDLength = 128

// CorrelationID tags the request with the caller's id, or a new UUID when the caller sent
// none or one that is unusable. The id is echoed in the response header, stored on the
// gin context and on the request context, where the record services pick it up for the
// events they queue.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if !usableCorrelationID(id) {
			id = uuid.NewString()
		}

		c.Header(CorrelationIDHeader, id)
		c.Set(CorrelationIDKey, id)
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// GetCorrelationID returns the id set by CorrelationID, or "" outside that middleware.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}

// usableCorrelationID accepts short tokens of visible ASCII.
func usableCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
