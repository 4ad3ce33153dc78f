package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuffer bytes.Buffer
	limiter := NewRateLimiter(0.001, 2, slog.New(slog.NewJSONHandler(&logBuffer, nil)))

	router := gin.New()
	router.Use(limiter.Handler())
	router.GET("/api/rice-batches", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/rice-batches", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"), "other clients keep their own budget")
	assert.Contains(t, logBuffer.String(), "Rate limit exceeded")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(1, 1, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.limiterFor("10.0.0.1")
	now = now.Add(5 * time.Minute)
	limiter.limiterFor("10.0.0.2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "10.0.0.2")
}
