package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscan/internal/alert"
	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/service"
)

const maxUploadBytes = 20 << 20

// AdminHandler serves bulk intake and the batch jobs operators trigger by hand.
type AdminHandler struct {
	leads      *service.LeadsService
	processor  *service.Processor
	enrich     *service.EnrichmentService
	dispatcher *alert.Dispatcher
}

// NewAdminHandler wires the admin endpoints. enrich and dispatcher may be nil
// when no providers or alert channels are configured.
func NewAdminHandler(leads *service.LeadsService, processor *service.Processor, enrich *service.EnrichmentService, dispatcher *alert.Dispatcher) *AdminHandler {
	return &AdminHandler{leads: leads, processor: processor, enrich: enrich, dispatcher: dispatcher}
}

// UploadCSV handles POST /admin/upload-csv requests.
func (h *AdminHandler) UploadCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}
	if fileHeader.Size > maxUploadBytes {
		return Error(c, http.StatusRequestEntityTooLarge, "csv file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close() //nolint:errcheck

	summary, err := h.leads.ImportCSV(c.Request().Context(), file)
	if err != nil {
		var validationErr service.CSVValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Error())
		}
		return serviceError(c, err, "failed to process csv")
	}

	return Success(c, http.StatusOK, "leads CSV processed", summary)
}

// ProcessBatch handles POST /admin/process-batch requests.
func (h *AdminHandler) ProcessBatch(c echo.Context) error {
	var req dto.BatchRequest
	if err := bindOptional(c, &req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.processor.ProcessBatch(c.Request().Context(), req.ChunkSize)
	if err != nil {
		return serviceError(c, err, "batch processing failed")
	}
	return Success(c, http.StatusOK, "batch processed", summary)
}

// EnrichBatch handles POST /admin/enrich-batch requests.
func (h *AdminHandler) EnrichBatch(c echo.Context) error {
	if h.enrich == nil || len(h.enrich.Providers()) == 0 {
		return Error(c, http.StatusServiceUnavailable, "no enrichment providers configured")
	}
	var req dto.BatchRequest
	if err := bindOptional(c, &req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.enrich.EnrichBatch(c.Request().Context(), req.Limit)
	if err != nil {
		return serviceError(c, err, "batch enrichment failed")
	}
	return Success(c, http.StatusOK, "batch enriched", summary)
}

// DispatchAlerts handles POST /admin/dispatch-alerts requests.
func (h *AdminHandler) DispatchAlerts(c echo.Context) error {
	if h.dispatcher == nil {
		return Error(c, http.StatusServiceUnavailable, "no alert channels configured")
	}
	var req dto.BatchRequest
	if err := bindOptional(c, &req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.dispatcher.DispatchPending(c.Request().Context(), req.Limit)
	if err != nil {
		return serviceError(c, err, "alert dispatch failed")
	}
	return Success(c, http.StatusOK, "alerts dispatched", summary)
}

// bindOptional binds a body when one was sent; batch endpoints accept an
// empty POST.
func bindOptional(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	return c.Bind(dst)
}
