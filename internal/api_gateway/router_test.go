package api_gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/app"
	"github.com/rice-supply-chain-api/internal/config"
	"github.com/rice-supply-chain-api/internal/identity"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Application: config.ApplicationConfig{Env: "test", Name: "rice-supply-api"},
		Server: config.ServerConfig{
			Port:            3001,
			ShutdownTimeout: time.Second,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			BodyLimitBytes:  1 << 20,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, history service.HistoryService) *Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := app.NewRegistry(logger, nil)
	return NewServer(logger, newTestConfig(), registry.RecordServices(identity.NewGenerator(), nil, logger), history)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	rr := serve(newTestServer(t, nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
	assert.GreaterOrEqual(t, body["uptime"].(float64), 0.0)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestRouter_NotFound(t *testing.T) {
	rr := serve(newTestServer(t, nil), http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{
		"error":   "Not Found",
		"message": "The requested resource was not found",
	}, body)
}

func TestRouter_EveryKindIsRouted(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/api/chain-actors",
		"/api/production-seasons",
		"/api/milled-rice",
		"/api/rice-batches",
		"/api/chain-transactions",
	} {
		rr := serve(s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := serve(s, http.MethodGet, "/api/rice-batches/qr/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "provided QR code")
}

func TestRouter_CreateThenFetch(t *testing.T) {
	s := newTestServer(t, nil)

	rr := serve(s, http.MethodPost, "/api/chain-actors",
		`{"name":"Mang Juan","actorType":["farmer"],"assignedTps":3,"pin":"1234","organization":"coop"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created.Data["id"].(string)
	assert.True(t, identity.IsValid(id))
	assert.Equal(t, 0.0, created.Data["balance"])

	rr = serve(s, http.MethodGet, "/api/chain-actors/"+id, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Chain actor retrieved successfully")
}

func TestRouter_Preflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/rice-batches", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_HistoryRoutesNeedService(t *testing.T) {
	s := newTestServer(t, nil)
	rr := serve(s, http.MethodGet, "/api/chain-actors/TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA/history", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "The requested resource was not found")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, http.MethodGet, "/api/milled-rice", "")

	rr := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rice_supply_http_requests_total")
}
