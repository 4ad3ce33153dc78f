package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/pagination"
)

// HistoryHandler serves the recorded event trail of a record
type HistoryHandler struct {
	historyService service.HistoryService
	kind           supplychain.Kind
	logger         *slog.Logger
}

func NewHistoryHandler(logger *slog.Logger, kind supplychain.Kind, historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		kind:           kind,
		logger:         logger.With("component", "history_handler", "kind", kind.Name),
	}
}

// GetHistory returns one page of events, newest first
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	params := pagination.ParseParams(c.Query("page"), c.Query("limit"))

	events, total, err := h.historyService.GetHistory(c.Request.Context(), h.kind.Name, id, params)
	if err != nil {
		h.logger.Error("Failed to get record history", "id", id, "error", err)
		RespondInternalError(c, "Failed to retrieve record history", err)
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}

	RespondOK(c, h.kind.Singular+" history retrieved successfully", gin.H{
		"events": events,
		"pagination": pagination.Info{
			CurrentPage:  params.Page,
			TotalPages:   totalPages,
			TotalItems:   int(total),
			ItemsPerPage: params.Limit,
		},
	})
}
