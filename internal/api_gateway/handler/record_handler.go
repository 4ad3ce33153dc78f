package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/pagination"
	"github.com/rice-supply-chain-api/internal/validation"
)

// RecordHandler handles HTTP requests for one record kind
type RecordHandler struct {
	recordService service.RecordService
	kind          supplychain.Kind
	logger        *slog.Logger
}

// NewRecordHandler creates a handler bound to the service's kind
func NewRecordHandler(logger *slog.Logger, recordService service.RecordService) *RecordHandler {
	kind := recordService.Kind()
	return &RecordHandler{
		recordService: recordService,
		kind:          kind,
		logger:        logger.With("component", "record_handler", "kind", kind.Name),
	}
}

// List returns one page of records under the kind's list key
func (h *RecordHandler) List(c *gin.Context) {
	params := pagination.ParseParams(c.Query("page"), c.Query("limit"))
	page := h.recordService.List(c.Request.Context(), params)

	RespondOK(c, h.kind.Plural+" retrieved successfully", gin.H{
		h.kind.ListKey: page.Items,
		"pagination":   page.Pagination,
	})
}

// GetByID retrieves a record by its id, returning 404 if not found
func (h *RecordHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.recordService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err, h.kind.NotFoundMessage())
		return
	}

	RespondOK(c, h.kind.Singular+" retrieved successfully", rec)
}

// GetByAlternateKey retrieves a record by the kind's alternate key path parameter
func (h *RecordHandler) GetByAlternateKey(c *gin.Context) {
	value := c.Param(h.kind.AlternateKey)

	rec, err := h.recordService.GetByAlternateKey(c.Request.Context(), value)
	if err != nil {
		h.respondLookupError(c, err, h.kind.AlternateKeyNotFound)
		return
	}

	RespondOK(c, h.kind.Singular+" retrieved successfully", rec)
}

// Create validates and stores a new record
func (h *RecordHandler) Create(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	rec, err := h.recordService.Create(c.Request.Context(), payload)
	if err != nil {
		h.respondMutationError(c, err, "create")
		return
	}

	RespondCreated(c, h.kind.Singular+" created successfully", rec)
}

// Update merges the payload over the record with the given id
func (h *RecordHandler) Update(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	rec, err := h.recordService.Update(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		h.respondMutationError(c, err, "update")
		return
	}

	RespondOK(c, h.kind.Singular+" updated successfully", rec)
}

// Delete deactivates the record with the given id
func (h *RecordHandler) Delete(c *gin.Context) {
	rec, err := h.recordService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondMutationError(c, err, "delete")
		return
	}

	RespondOK(c, h.kind.Singular+" deleted successfully", rec)
}

// bindPayload reads the body as a JSON object. It writes the error response itself and
// reports whether the handler may continue.
func (h *RecordHandler) bindPayload(c *gin.Context) (map[string]any, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			RespondPayloadTooLarge(c)
			return nil, false
		}
		h.logger.Error("Failed to read request body", "error", err)
		RespondBadRequest(c, "Invalid request body")
		return nil, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, true
	}

	payload, err := record.DecodeObject(body)
	if err != nil {
		h.logger.Warn("Invalid JSON payload", "error", err)
		RespondBadRequest(c, "Invalid JSON payload")
		return nil, false
	}
	return payload, true
}

func (h *RecordHandler) respondLookupError(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, record.ErrRecordNotFound{}) {
		RespondNotFound(c, notFoundMessage)
		return
	}
	h.logger.Error("Failed to get record", "error", err)
	RespondInternalError(c, "", err)
}

func (h *RecordHandler) respondMutationError(c *gin.Context, err error, operation string) {
	var validationErr validation.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Message)
		return
	}

	if errors.Is(err, record.ErrRecordNotFound{}) {
		RespondNotFound(c, h.kind.NotFoundMessage())
		return
	}

	var duplicateErr record.ErrDuplicateRecord
	if errors.As(err, &duplicateErr) {
		h.logger.Warn("Duplicate record", "id", duplicateErr.ID)
		RespondConflict(c, h.kind.Singular+" already exists")
		return
	}

	h.logger.Error("Failed to "+operation+" record", "error", err)
	RespondInternalError(c, "", err)
}
