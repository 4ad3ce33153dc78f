package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// errorEnvelope builds the error body for requests rejected before reaching a handler
func errorEnvelope(c *gin.Context, message string) gin.H {
	body := gin.H{
		"success":   false,
		"message":   message,
		"timestamp": time.Now().UTC().Format(TimestampLayout),
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		body["correlation_id"] = correlationID
	}
	return body
}
