package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// TimestampLayout formats the timestamp field of every JSON envelope (ISO 8601, millisecond precision, UTC)
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Recovery middleware catches panics, logs them with stack traces, and returns the 500 error
// envelope with correlation ID (if available) to maintain request traceability. The panic
// value and stack are only returned when ErrorDetail allows it.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				logger.Error("Panic recovered",
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				response := errorEnvelope(c, "Internal server error")
				if ExposeErrorDetail(c) {
					response["error"] = fmt.Sprint(r)
					response["stack"] = stack
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, response)
			}
		}()

		c.Next()
	}
}
