package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/service"
)

// EnrichHandler receives crawl results pushed back by the worker.
type EnrichHandler struct {
	enrich *service.EnrichmentService
}

// NewEnrichHandler wires a new EnrichHandler instance.
func NewEnrichHandler(enrich *service.EnrichmentService) *EnrichHandler {
	return &EnrichHandler{enrich: enrich}
}

// SaveResult handles POST /enrich-result requests.
func (h *EnrichHandler) SaveResult(c echo.Context) error {
	var payload dto.EnrichResultRequest
	if err := c.Bind(&payload); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if strings.TrimSpace(payload.BusinessID) == "" {
		return Error(c, http.StatusBadRequest, "business_id is required")
	}

	outcome, err := h.enrich.SaveWorkerResult(c.Request().Context(), payload)
	if err != nil {
		return serviceError(c, err, "failed to persist enrichment")
	}

	return Success(c, http.StatusOK, "enrichment stored", map[string]any{
		"business_id":    outcome.Record.ID,
		"enhanced_score": outcome.Enhanced.Total,
		"priority":       outcome.Enhanced.Priority,
	})
}
