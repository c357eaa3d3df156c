package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LeadsHandler exposes lead intake, review and export endpoints.
type LeadsHandler struct {
	leads     *service.LeadsService
	processor *service.Processor
	enrich    *service.EnrichmentService
}

// NewLeadsHandler creates a new handler instance.
func NewLeadsHandler(leads *service.LeadsService, processor *service.Processor, enrich *service.EnrichmentService) *LeadsHandler {
	return &LeadsHandler{leads: leads, processor: processor, enrich: enrich}
}

// Create handles POST /leads requests.
func (h *LeadsHandler) Create(c echo.Context) error {
	var req dto.LeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	record, err := h.processor.Process(c.Request().Context(), req, nil)
	if err != nil {
		return serviceError(c, err, "failed to process lead")
	}
	return Success(c, http.StatusCreated, "lead processed", record)
}

// Update handles PUT /leads/:id requests. Supplied fields replace stored ones
// and the whole pipeline runs again.
func (h *LeadsHandler) Update(c echo.Context) error {
	id, err := service.ParseBusinessID(c.Param("id"))
	if err != nil {
		return serviceError(c, err, "invalid business id")
	}

	var req dto.LeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	record, err := h.processor.Process(c.Request().Context(), req, &id)
	if err != nil {
		return serviceError(c, err, "failed to update lead")
	}
	return Success(c, http.StatusOK, "lead updated", record)
}

// List handles GET /leads requests.
func (h *LeadsHandler) List(c echo.Context) error {
	filter, err := parseLeadFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	records, err := h.leads.List(c.Request().Context(), filter)
	if err != nil {
		return serviceError(c, err, "failed to list leads")
	}
	page := service.PageDefaults(filter)
	return SuccessPage(c, "leads retrieved", records, PageMeta{Page: page.Page, PerPage: page.PerPage, Count: len(records)})
}

// Get handles GET /leads/:id requests.
func (h *LeadsHandler) Get(c echo.Context) error {
	id, err := service.ParseBusinessID(c.Param("id"))
	if err != nil {
		return serviceError(c, err, "invalid business id")
	}

	record, err := h.leads.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to load lead")
	}
	return Success(c, http.StatusOK, "lead retrieved", record)
}

// Score handles GET /leads/:id/score requests.
func (h *LeadsHandler) Score(c echo.Context) error {
	id, err := service.ParseBusinessID(c.Param("id"))
	if err != nil {
		return serviceError(c, err, "invalid business id")
	}

	score, err := h.leads.Score(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to score lead")
	}
	return Success(c, http.StatusOK, "lead scored", score)
}

// Enrich handles POST /leads/:id/enrich requests.
func (h *LeadsHandler) Enrich(c echo.Context) error {
	if h.enrich == nil || len(h.enrich.Providers()) == 0 {
		return Error(c, http.StatusServiceUnavailable, "no enrichment providers configured")
	}
	id, err := service.ParseBusinessID(c.Param("id"))
	if err != nil {
		return serviceError(c, err, "invalid business id")
	}

	outcome, err := h.enrich.Enrich(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to enrich lead")
	}
	return Success(c, http.StatusOK, "lead enriched", outcome)
}

// Review handles PATCH /leads/:id/review requests.
func (h *LeadsHandler) Review(c echo.Context) error {
	id, err := service.ParseBusinessID(c.Param("id"))
	if err != nil {
		return serviceError(c, err, "invalid business id")
	}

	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	record, err := h.leads.SetReviewStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(c, err, "failed to update review status")
	}
	return Success(c, http.StatusOK, "review status updated", record)
}

// Export handles GET /leads/export requests and streams an XLSX workbook.
func (h *LeadsHandler) Export(c echo.Context) error {
	filter, err := parseLeadFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}
	filter.Limit = parseIntDefault(c.QueryParam("limit"), 0)

	var buf bytes.Buffer
	n, err := h.leads.ExportXLSX(c.Request().Context(), filter, &buf)
	if err != nil {
		return serviceError(c, err, "failed to export leads")
	}

	filename := fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(n))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseLeadFilter(c echo.Context) (dto.LeadFilter, error) {
	filter := dto.LeadFilter{
		Q:              strings.TrimSpace(c.QueryParam("q")),
		Priority:       strings.ToLower(strings.TrimSpace(c.QueryParam("priority"))),
		Status:         strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		ReviewStatus:   strings.ToLower(strings.TrimSpace(c.QueryParam("review_status"))),
		ServiceSegment: strings.TrimSpace(c.QueryParam("segment")),
		City:           strings.TrimSpace(c.QueryParam("city")),
		Sort:           strings.TrimSpace(c.QueryParam("sort")),
		Page:           parseIntDefault(c.QueryParam("page"), 1),
		PerPage:        parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if raw := strings.TrimSpace(c.QueryParam("min_score")); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil || minScore < 0 || minScore > 100 {
			return filter, errors.New("min_score must be an integer between 0 and 100")
		}
		filter.MinScore = &minScore
	}
	return filter, nil
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
