package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service/scoring"
)

const (
	maxExportRows   = 5000
	exportSheetName = "Leads"
	maxRowErrors    = 50
)

// ErrInvalidReviewStatus is returned for review states other than pending,
// approved or archived.
var ErrInvalidReviewStatus = errors.New("invalid review status")

// LeadsService exposes read and review operations over processed leads and
// bulk intake.
type LeadsService struct {
	repo      repository.BusinessesRepository
	processor *Processor
	now       func() time.Time
}

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// RowError describes a CSV row the pipeline rejected.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// UploadSummary reports how a CSV import went.
type UploadSummary struct {
	Total        int        `json:"total"`
	Created      int        `json:"created"`
	Duplicates   int        `json:"duplicates"`
	HighPriority int        `json:"high_priority"`
	Failed       int        `json:"failed"`
	Errors       []RowError `json:"errors,omitempty"`
}

// LeadScore is the live score view of one lead.
type LeadScore struct {
	BusinessID uuid.UUID             `json:"business_id"`
	Relevance  scoring.Result        `json:"relevance"`
	Priority   string                `json:"priority"`
	Enhanced   scoring.EnhancedScore `json:"enhanced"`
}

// NewLeadsService creates a new instance of LeadsService.
func NewLeadsService(repo repository.BusinessesRepository, processor *Processor) *LeadsService {
	return &LeadsService{repo: repo, processor: processor, now: time.Now}
}

// Get returns one lead.
func (s *LeadsService) Get(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Score recomputes both scores for a stored lead without persisting them.
func (s *LeadsService) Score(ctx context.Context, id uuid.UUID) (*LeadScore, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	scorer := s.processor.Scorer()
	relevance := scorer.Relevance(record)
	return &LeadScore{
		BusinessID: record.ID,
		Relevance:  relevance,
		Priority:   scoring.PriorityFor(relevance.Total, record.IsDuplicate),
		Enhanced:   scorer.Enhanced(record, s.now()),
	}, nil
}

// List returns leads respecting pagination defaults.
func (s *LeadsService) List(ctx context.Context, filter dto.LeadFilter) ([]entity.BusinessRecord, error) {
	return s.repo.List(ctx, PageDefaults(filter))
}

// PageDefaults fills in the page number and clamps the page size.
func PageDefaults(filter dto.LeadFilter) dto.LeadFilter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return filter
}

// SetReviewStatus records an operator decision on a lead.
func (s *LeadsService) SetReviewStatus(ctx context.Context, id uuid.UUID, status string) (*entity.BusinessRecord, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case entity.ReviewPending, entity.ReviewApproved, entity.ReviewArchived:
	default:
		return nil, ErrInvalidReviewStatus
	}
	return s.repo.SetReviewStatus(ctx, id, status)
}

var requiredCSVHeaders = []string{"business_name"}

// csvHeaderAliases maps accepted column names onto lead fields.
var csvHeaderAliases = map[string]string{
	"company":       "business_name",
	"name":          "business_name",
	"type_business": "business_type",
	"type":          "business_type",
	"category":      "business_type",
	"postal_code":   "zip",
	"zipcode":       "zip",
	"phone_number":  "phone",
	"url":           "website",
}

// ImportCSV runs every row of a CSV upload through the pipeline. Rows
// without a business name are counted as failed; a malformed file is
// rejected as a whole with CSVValidationError.
func (s *LeadsService) ImportCSV(ctx context.Context, r io.Reader) (UploadSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return UploadSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("read csv header: %v", err)}
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return UploadSummary{}, valErr
	}

	var (
		summary UploadSummary
		rowNum  = 1
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return summary, CSVValidationError{Message: fmt.Sprintf("malformed csv on row %d: %v", rowNum, err)}
		}
		if isBlankRow(row) {
			continue
		}
		summary.Total++

		record, err := s.processor.Process(ctx, leadFromRow(row, indexMap), nil)
		if err != nil {
			summary.Failed++
			if len(summary.Errors) < maxRowErrors {
				summary.Errors = append(summary.Errors, RowError{Row: rowNum, Message: rowErrorMessage(err)})
			}
			var vErr ValidationError
			if !errors.As(err, &vErr) {
				zap.L().Error("csv row import failed", zap.Int("row", rowNum), zap.Error(err))
			}
			continue
		}

		summary.Created++
		if record.IsDuplicate {
			summary.Duplicates++
		}
		if isHighPriority(record) {
			summary.HighPriority++
		}
	}

	zap.L().Info("csv import finished",
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

var exportHeader = []string{
	"id", "business_name", "business_type", "service_segment", "industry",
	"email", "phone", "website", "address", "city", "state", "country",
	"relevance_score", "lead_priority", "lead_status", "enhanced_score",
	"enhanced_priority", "review_status", "is_duplicate", "duplicate_of_id",
	"email_valid", "is_generic_email", "is_disposable_email", "domain_active",
	"contact_name", "contact_position", "company_size", "enriched_at", "created_at",
}

// ExportXLSX writes the leads matching filter to an XLSX workbook.
func (s *LeadsService) ExportXLSX(ctx context.Context, filter dto.LeadFilter, w io.Writer) (int, error) {
	if filter.Limit <= 0 || filter.Limit > maxExportRows {
		filter.Limit = maxExportRows
	}
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), exportSheetName); err != nil {
		return 0, eris.Wrap(err, "rename sheet")
	}
	if err := xl.SetSheetRow(exportSheetName, "A1", &exportHeader); err != nil {
		return 0, eris.Wrap(err, "write header")
	}

	for i := range records {
		row := exportRow(&records[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, eris.Wrap(err, "cell name")
		}
		if err := xl.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return 0, eris.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := xl.SetPanes(exportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, eris.Wrap(err, "freeze header")
	}

	if _, err := xl.WriteTo(w); err != nil {
		return 0, eris.Wrap(err, "write workbook")
	}
	return len(records), nil
}

func exportRow(r *entity.BusinessRecord) []any {
	dupOf := ""
	if r.DuplicateOfID != nil {
		dupOf = r.DuplicateOfID.String()
	}
	enrichedAt := ""
	if r.EnrichedAt != nil {
		enrichedAt = r.EnrichedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		r.ID.String(),
		str(r.NormalizedBusinessName, r.BusinessName),
		str(r.BusinessType),
		str(r.ServiceSegment),
		str(r.Industry),
		str(r.NormalizedEmail, r.Email),
		str(r.Phone),
		str(r.Website),
		str(r.NormalizedAddress, r.Address),
		str(r.City),
		str(r.State),
		str(r.Country),
		num(r.RelevanceScore),
		str(r.LeadPriority),
		str(r.LeadStatus),
		num(r.EnhancedScore),
		str(r.EnhancedPriority),
		r.ReviewStatus,
		r.IsDuplicate,
		dupOf,
		flag(r.EmailValid),
		r.IsGenericEmail,
		r.IsDisposableEmail,
		flag(r.DomainActive),
		str(r.ContactName),
		str(r.ContactPosition),
		str(r.CompanySize),
		enrichedAt,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		if alias, ok := csvHeaderAliases[name]; ok {
			name = alias
		}
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func leadFromRow(row []string, index map[string]int) BusinessInput {
	col := func(name string) *string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return nil
		}
		return normalizeString(row[i])
	}
	source := col("source")
	if source == nil {
		source = normalizeString("csv")
	}
	return BusinessInput{
		BusinessName: col("business_name"),
		BusinessType: col("business_type"),
		Address:      col("address"),
		City:         col("city"),
		State:        col("state"),
		Zip:          col("zip"),
		Country:      col("country"),
		Phone:        col("phone"),
		Email:        col("email"),
		Website:      col("website"),
		Industry:     col("industry"),
		Source:       source,
	}
}

func rowErrorMessage(err error) string {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return "could not store row"
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// str returns the first non-nil value.
func str(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func num(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func flag(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
