package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rice-supply-chain-api/internal/api_gateway/middleware"
	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/identity"
	"github.com/rice-supply-chain-api/internal/pagination"
	"github.com/rice-supply-chain-api/internal/store"
)

const unusedID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// envelope mirrors Response with a raw data field
type envelope struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Data          json.RawMessage `json:"data"`
	Timestamp     string          `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Error         string          `json:"error"`
}

type MockRecordService struct {
	mock.Mock
	kind supplychain.Kind
}

func (m *MockRecordService) Kind() supplychain.Kind { return m.kind }

func (m *MockRecordService) List(ctx context.Context, params pagination.Params) pagination.Page[*record.Record] {
	args := m.Called(ctx, params)
	return args.Get(0).(pagination.Page[*record.Record])
}

func (m *MockRecordService) Get(ctx context.Context, id string) (*record.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) GetByAlternateKey(ctx context.Context, value string) (*record.Record, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) Create(ctx context.Context, payload map[string]any) (*record.Record, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) Update(ctx context.Context, id string, payload map[string]any) (*record.Record, error) {
	args := m.Called(ctx, id, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) Delete(ctx context.Context, id string) (*record.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRecordRouter mounts the handler the way the gateway router does
func newRecordRouter(svc service.RecordService, exposeErrors bool, bodyLimit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewRecordHandler(newTestLogger(), svc)
	kind := svc.Kind()

	router := gin.New()
	router.Use(middleware.CorrelationID(), middleware.ErrorDetail(exposeErrors), middleware.BodyLimit(bodyLimit))

	group := router.Group("/api/" + kind.Path)
	group.GET("", h.List)
	group.POST("", h.Create)
	if kind.AlternateKey != "" {
		group.GET("/qr/:"+kind.AlternateKey, h.GetByAlternateKey)
	}
	group.GET("/:id", middleware.ValidateIDParam("id"), h.GetByID)
	group.PUT("/:id", middleware.ValidateIDParam("id"), h.Update)
	group.DELETE("/:id", middleware.ValidateIDParam("id"), h.Delete)
	return router
}

func newStoreBackedRouter(kind supplychain.Kind) *gin.Engine {
	st := store.NewStore(kind.Name, nil, newTestLogger())
	svc := service.NewRecordService(kind, st, identity.NewGenerator(), nil, newTestLogger())
	return newRecordRouter(svc, false, 10<<20)
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func decodeData(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestRecordHandler_CreateMissingRequiredFields(t *testing.T) {
	router := newStoreBackedRouter(supplychain.ChainActor)

	rr, env := doRequest(t, router, http.MethodPost, "/api/chain-actors", `{"name":"A"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Missing required fields: actorType, assignedTps, pin, organization", env.Message)
	assert.NotEmpty(t, env.Timestamp)
	assert.NotEmpty(t, env.CorrelationID)

	rr, env = doRequest(t, router, http.MethodGet, "/api/chain-actors", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, env)
	assert.Empty(t, data["chainActors"])
}

func TestRecordHandler_RiceBatchFieldRules(t *testing.T) {
	router := newStoreBackedRouter(supplychain.RiceBatch)

	tests := []struct {
		name            string
		body            string
		expectedCode    int
		expectedMessage string
	}{
		{
			name:            "unknown status",
			body:            `{"qrCode":"QR1","batchWeightKg":100,"seasonId":"` + unusedID + `","status":"unknown"}`,
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Invalid status. Must be one of: forSale, stock, consumed",
		},
		{
			name:            "moisture above range",
			body:            `{"qrCode":"QR1","batchWeightKg":100,"seasonId":"` + unusedID + `","status":"stock","moistureContent":10001}`,
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "moistureContent must be a number between 0 and 10000",
		},
		{
			name:            "moisture at upper bound",
			body:            `{"qrCode":"QR1","batchWeightKg":100,"seasonId":"` + unusedID + `","status":"stock","moistureContent":10000}`,
			expectedCode:    http.StatusCreated,
			expectedMessage: "Rice batch created successfully",
		},
		{
			name:            "malformed reference",
			body:            `{"qrCode":"QR1","batchWeightKg":100,"seasonId":"not-a-key","status":"stock"}`,
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Invalid public key format in fields: seasonId",
		},
		{
			name:            "invalid json",
			body:            `{"qrCode":`,
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Invalid JSON payload",
		},
		{
			name:            "json array",
			body:            `[1,2]`,
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Invalid JSON payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := doRequest(t, router, http.MethodPost, "/api/rice-batches", tt.body)
			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, tt.expectedMessage, env.Message)
		})
	}
}

func TestRecordHandler_QRLookup(t *testing.T) {
	router := newStoreBackedRouter(supplychain.RiceBatch)

	rr, env := doRequest(t, router, http.MethodPost, "/api/rice-batches",
		`{"qrCode":"QR123","batchWeightKg":250,"seasonId":"`+unusedID+`","status":"forSale"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeData(t, env)

	rr, env = doRequest(t, router, http.MethodGet, "/api/rice-batches/qr/QR123", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Rice batch retrieved successfully", env.Message)
	found := decodeData(t, env)
	assert.Equal(t, created["id"], found["id"])
	assert.Equal(t, "QR123", found["qrCode"])

	rr, env = doRequest(t, router, http.MethodGet, "/api/rice-batches/qr/QR999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Rice batch not found with the provided QR code", env.Message)
}

func TestRecordHandler_GetUnknownID(t *testing.T) {
	router := newStoreBackedRouter(supplychain.ChainActor)

	rr, env := doRequest(t, router, http.MethodGet, "/api/chain-actors/"+unusedID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Chain actor not found", env.Message)

	rr, env = doRequest(t, router, http.MethodGet, "/api/chain-actors/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid id format", env.Message)
}

func TestRecordHandler_Lifecycle(t *testing.T) {
	router := newStoreBackedRouter(supplychain.ChainTransaction)

	rr, env := doRequest(t, router, http.MethodPost, "/api/chain-transactions",
		`{"batchIds":["`+unusedID+`"],"toActorId":"`+unusedID+`","pricePerKg":42.5,"notes":"dropped"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Chain transaction created successfully", env.Message)
	created := decodeData(t, env)
	id := created["id"].(string)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, true, created["isActive"])
	assert.NotContains(t, created, "notes")

	rr, env = doRequest(t, router, http.MethodPut, "/api/chain-transactions/"+id, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Chain transaction updated successfully", env.Message)
	updated := decodeData(t, env)
	assert.Equal(t, "completed", updated["status"])
	assert.Equal(t, 42.5, updated["pricePerKg"])
	assert.Equal(t, created["createdAt"], updated["createdAt"])
	assert.NotEqual(t, created["updatedAt"], updated["updatedAt"])

	rr, env = doRequest(t, router, http.MethodPut, "/api/chain-transactions/"+unusedID, `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Chain transaction not found", env.Message)

	for i := 0; i < 2; i++ {
		rr, env = doRequest(t, router, http.MethodDelete, "/api/chain-transactions/"+id, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Chain transaction deleted successfully", env.Message)
	}

	rr, env = doRequest(t, router, http.MethodGet, "/api/chain-transactions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeData(t, env)["isActive"])

	rr, env = doRequest(t, router, http.MethodDelete, "/api/chain-transactions/"+unusedID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecordHandler_ListPagination(t *testing.T) {
	router := newStoreBackedRouter(supplychain.MilledRice)

	for i := 0; i < 12; i++ {
		rr, _ := doRequest(t, router, http.MethodPost, "/api/milled-rice",
			`{"farmerId":"`+unusedID+`","totalWeightKg":10,"millingType":"dry","quality":"B","moisture":1200,"totalWeightProcessedKg":9}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	tests := []struct {
		query         string
		expectedItems int
		expectedInfo  map[string]any
	}{
		{"", 10, map[string]any{"currentPage": 1.0, "totalPages": 2.0, "totalItems": 12.0, "itemsPerPage": 10.0}},
		{"?page=2&limit=5", 5, map[string]any{"currentPage": 2.0, "totalPages": 3.0, "totalItems": 12.0, "itemsPerPage": 5.0}},
		{"?page=0&limit=abc", 10, map[string]any{"currentPage": 1.0, "totalPages": 2.0, "totalItems": 12.0, "itemsPerPage": 10.0}},
		{"?page=9&limit=500", 0, map[string]any{"currentPage": 9.0, "totalPages": 1.0, "totalItems": 12.0, "itemsPerPage": 100.0}},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			rr, env := doRequest(t, router, http.MethodGet, "/api/milled-rice"+tt.query, "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "Milled rice records retrieved successfully", env.Message)

			data := decodeData(t, env)
			items, ok := data["milledRice"].([]any)
			require.True(t, ok)
			assert.Len(t, items, tt.expectedItems)
			assert.Equal(t, tt.expectedInfo, data["pagination"])
		})
	}
}

func TestRecordHandler_ListPageBeyondRange(t *testing.T) {
	router := newStoreBackedRouter(supplychain.RiceBatch)

	for _, qr := range []string{"QR1", "QR2", "QR3"} {
		rr, _ := doRequest(t, router, http.MethodPost, "/api/rice-batches",
			`{"qrCode":"`+qr+`","batchWeightKg":100,"seasonId":"`+unusedID+`","status":"stock"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr, env := doRequest(t, router, http.MethodGet, "/api/rice-batches?page=9223372036854775807&limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, env)
	items, ok := data["batches"].([]any)
	require.True(t, ok)
	assert.Empty(t, items)
	assert.Equal(t, 3.0, data["pagination"].(map[string]any)["totalItems"])
}

func TestRecordHandler_ChainActorBalanceIsServerManaged(t *testing.T) {
	router := newStoreBackedRouter(supplychain.ChainActor)

	rr, env := doRequest(t, router, http.MethodPost, "/api/chain-actors",
		`{"name":"A","actorType":["farmer"],"assignedTps":1,"pin":"1234","organization":"coop","balance":-500}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeData(t, env)
	assert.Equal(t, 0.0, created["balance"])

	id := created["id"].(string)
	rr, env = doRequest(t, router, http.MethodPut, "/api/chain-actors/"+id, `{"balance":-1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = doRequest(t, router, http.MethodPut, "/api/chain-actors/"+id, `{"balance":250}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 250.0, decodeData(t, env)["balance"])
}

func TestRecordHandler_SeasonUpdateRejectsMalformedFarmer(t *testing.T) {
	router := newStoreBackedRouter(supplychain.ProductionSeason)

	rr, env := doRequest(t, router, http.MethodPost, "/api/production-seasons",
		`{"farmerId":"`+unusedID+`","cropYear":"2024","processedYieldKg":100,"carbonSmartCertified":false}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeData(t, env)["id"].(string)

	rr, env = doRequest(t, router, http.MethodPut, "/api/production-seasons/"+id, `{"farmerId":"not-a-key"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid public key format in fields: farmerId", env.Message)

	rr, env = doRequest(t, router, http.MethodGet, "/api/production-seasons/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, unusedID, decodeData(t, env)["farmerId"])
}

func TestRecordHandler_BodyTooLarge(t *testing.T) {
	svc := &MockRecordService{kind: supplychain.ChainActor}
	router := newRecordRouter(svc, false, 32)

	req := httptest.NewRequest(http.MethodPost, "/api/chain-actors", bytes.NewReader(bytes.Repeat([]byte("a"), 64)))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordHandler_InternalErrors(t *testing.T) {
	failure := errors.New("snapshot directory is read-only")

	t.Run("generic message outside development", func(t *testing.T) {
		svc := &MockRecordService{kind: supplychain.ProductionSeason}
		svc.On("Get", mock.Anything, unusedID).Return(nil, failure)
		router := newRecordRouter(svc, false, 1024)

		rr, env := doRequest(t, router, http.MethodGet, "/api/production-seasons/"+unusedID, "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Internal server error", env.Message)
		assert.Empty(t, env.Error)
	})

	t.Run("detail in development", func(t *testing.T) {
		svc := &MockRecordService{kind: supplychain.ProductionSeason}
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, failure)
		router := newRecordRouter(svc, true, 1024)

		rr, env := doRequest(t, router, http.MethodPost, "/api/production-seasons", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, failure.Error(), env.Error)
	})

	t.Run("duplicate maps to conflict", func(t *testing.T) {
		svc := &MockRecordService{kind: supplychain.ProductionSeason}
		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, record.ErrDuplicateRecord{Kind: "productionSeasons", ID: unusedID})
		router := newRecordRouter(svc, false, 1024)

		rr, env := doRequest(t, router, http.MethodPost, "/api/production-seasons", `{}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Production season already exists", env.Message)
	})
}
