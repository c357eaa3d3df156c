package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/metrics"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service/dedup"
	"github.com/octobees/leadscan/internal/service/identity"
	"github.com/octobees/leadscan/internal/service/normalize"
	"github.com/octobees/leadscan/internal/service/scoring"
	"github.com/octobees/leadscan/internal/service/validate"
)

// ErrInvalidBusinessID is returned when a lead id cannot be parsed.
var ErrInvalidBusinessID = errors.New("invalid business id")

const (
	modeCreate = "create"
	modeUpdate = "update"
	modeBatch  = "batch"

	defaultChunkSize = 50
)

// BusinessInput is the loosely typed field bag accepted from intake.
type BusinessInput = dto.LeadRequest

// ValidationError reports input rejected before any processing happens.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DomainChecker reports whether a website host answers HTTP requests.
type DomainChecker interface {
	IsDomainActive(ctx context.Context, domain string) (bool, error)
}

// BatchSummary tallies one batch run.
type BatchSummary struct {
	Processed    int `json:"processed"`
	Errors       int `json:"errors"`
	HighPriority int `json:"high_priority"`
	Duplicates   int `json:"duplicates"`
}

// Processor turns raw lead fields into a normalized, deduplicated and
// scored record, persists it and raises alerts.
type Processor struct {
	businesses  repository.BusinessesRepository
	alerts      repository.AlertsRepository
	dedup       *dedup.Deduplicator
	scorer      *scoring.Scorer
	domains     DomainChecker
	validate    *validator.Validate
	phoneRegion string
	now         func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithDomainChecker enables website liveness probing.
func WithDomainChecker(checker DomainChecker) ProcessorOption {
	return func(p *Processor) {
		p.domains = checker
	}
}

// WithScorer replaces the default industry tables.
func WithScorer(scorer *scoring.Scorer) ProcessorOption {
	return func(p *Processor) {
		if scorer != nil {
			p.scorer = scorer
		}
	}
}

// WithNameSimilarity sets the business-name threshold for domain matches.
func WithNameSimilarity(threshold float64) ProcessorOption {
	return func(p *Processor) {
		p.dedup = dedup.New(p.businesses, threshold)
	}
}

// WithPhoneRegion sets the region used to validate numbers without a
// country prefix.
func WithPhoneRegion(region string) ProcessorOption {
	return func(p *Processor) {
		if region != "" {
			p.phoneRegion = strings.ToUpper(region)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor wires the pipeline over the given stores.
func NewProcessor(businesses repository.BusinessesRepository, alerts repository.AlertsRepository, opts ...ProcessorOption) *Processor {
	p := &Processor{
		businesses:  businesses,
		alerts:      alerts,
		scorer:      scoring.NewScorer(scoring.IndustryTable{}),
		validate:    validator.New(),
		phoneRegion: "US",
		now:         time.Now,
	}
	p.dedup = dedup.New(businesses, dedup.DefaultNameSimilarity)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scorer exposes the scorer the processor ranks leads with.
func (p *Processor) Scorer() *scoring.Scorer {
	return p.scorer
}

// Process runs the full pipeline for one lead. With a nil existingID a new
// record is created; otherwise the supplied fields are laid over the stored
// record and everything derived is recomputed.
func (p *Processor) Process(ctx context.Context, input BusinessInput, existingID *uuid.UUID) (*entity.BusinessRecord, error) {
	if err := p.validateInput(input, existingID == nil); err != nil {
		return nil, err
	}

	mode := modeCreate
	record := &entity.BusinessRecord{ReviewStatus: entity.ReviewPending}
	wasDuplicate := false
	if existingID != nil {
		mode = modeUpdate
		stored, err := p.businesses.GetByID(ctx, *existingID)
		if err != nil {
			metrics.RecordsProcessed.WithLabelValues(mode, metrics.OutcomeError).Inc()
			return nil, eris.Wrapf(err, "load business %s", existingID)
		}
		record = stored
		wasDuplicate = record.IsDuplicate
	}

	record.ApplyEdits(inputPatch(input))
	if source := normalize.Text(input.Source); source != nil {
		record.Source = source
	}

	if err := p.Recompute(ctx, record); err != nil {
		metrics.RecordsProcessed.WithLabelValues(mode, metrics.OutcomeError).Inc()
		return nil, err
	}

	if existingID == nil {
		if err := p.businesses.Create(ctx, record); err != nil {
			metrics.RecordsProcessed.WithLabelValues(mode, metrics.OutcomeError).Inc()
			return nil, eris.Wrap(err, "create business")
		}
		p.countOutcome(mode, record)
		p.raiseHighPriorityAlert(ctx, record, false)
		return record, nil
	}

	if err := p.Save(ctx, record, wasDuplicate); err != nil {
		metrics.RecordsProcessed.WithLabelValues(mode, metrics.OutcomeError).Inc()
		return nil, err
	}
	p.countOutcome(mode, record)
	return record, nil
}

// Recompute derives every computed field from the record's current raw
// values: normalized forms, hashes, quality flags, duplicate state, segment,
// scores and priority. Nothing is persisted. Liveness probe failures leave
// DomainActive unknown; only a failed duplicate lookup is returned.
func (p *Processor) Recompute(ctx context.Context, record *entity.BusinessRecord) error {
	if record == nil {
		return eris.New("business record is nil")
	}
	log := zap.L().With(zap.String("business_id", record.ID.String()))

	record.NormalizedEmail = normalize.Email(record.Email)
	record.NormalizedPhone = normalize.Phone(record.Phone)
	record.NormalizedBusinessName = normalize.BusinessName(record.BusinessName)
	record.NormalizedAddress = normalize.Address(record.Address)

	record.EmailHash = identity.Hash(record.NormalizedEmail)
	record.PhoneHash = identity.Hash(record.NormalizedPhone)
	record.DomainHash = identity.Hash(identity.DomainSource(record.Website, record.NormalizedEmail))

	record.EmailValid = nil
	record.IsDisposableEmail = false
	record.IsGenericEmail = false
	if check := validate.ValidateEmail(record.NormalizedEmail); check != nil {
		valid := check.Valid
		record.EmailValid = &valid
		record.IsDisposableEmail = check.IsDisposable
		record.IsGenericEmail = check.IsGeneric
	}

	record.PhoneValid = nil
	if record.NormalizedPhone != nil {
		valid := validate.IsValidPhone(*record.NormalizedPhone, p.phoneRegion)
		record.PhoneValid = &valid
	}

	p.checkWebsite(ctx, log, record)

	var excludeID *uuid.UUID
	if record.ID != uuid.Nil {
		id := record.ID
		excludeID = &id
	}
	match, err := p.dedup.Check(ctx, dedup.Candidate{
		EmailHash:              record.EmailHash,
		PhoneHash:              record.PhoneHash,
		DomainHash:             record.DomainHash,
		NormalizedBusinessName: record.NormalizedBusinessName,
		ExcludeID:              excludeID,
	})
	if err != nil {
		return eris.Wrap(err, "check duplicates")
	}
	record.IsDuplicate = match.IsDuplicate
	record.DuplicateOfID = match.DuplicateOfID
	if match.IsDuplicate {
		metrics.DuplicatesFound.WithLabelValues(string(match.MatchedOn)).Inc()
	}

	segment := scoring.ServiceSegment(record.BusinessType, record.Industry)
	record.ServiceSegment = &segment

	relevance := p.scorer.Relevance(record)
	score := relevance.Total
	priority := scoring.PriorityFor(score, record.IsDuplicate)
	status := scoring.StatusFor(record.IsDuplicate)
	record.RelevanceScore = &score
	record.LeadPriority = &priority
	record.LeadStatus = &status

	if record.EnrichedAt != nil {
		enhanced := p.scorer.Enhanced(record, p.now())
		total := enhanced.Total
		tier := enhanced.Priority
		record.EnhancedScore = &total
		record.EnhancedPriority = &tier
	}

	return nil
}

// Save persists a recomputed record that already exists. When a record that
// was canonical turns into a duplicate, records pointing at it are moved to
// its new canonical so chains stay one hop long.
func (p *Processor) Save(ctx context.Context, record *entity.BusinessRecord, wasDuplicate bool) error {
	if err := p.businesses.Update(ctx, record); err != nil {
		return eris.Wrapf(err, "update business %s", record.ID)
	}

	if !wasDuplicate && record.IsDuplicate && record.DuplicateOfID != nil {
		moved, err := p.businesses.RepointDuplicates(ctx, record.ID, *record.DuplicateOfID)
		if err != nil {
			return eris.Wrapf(err, "repoint duplicates of %s", record.ID)
		}
		if moved > 0 {
			zap.L().Info("repointed duplicate chain",
				zap.String("business_id", record.ID.String()),
				zap.String("canonical_id", record.DuplicateOfID.String()),
				zap.Int64("moved", moved),
			)
		}
	}

	p.raiseHighPriorityAlert(ctx, record, true)
	return nil
}

// ProcessBatch recomputes records that have never been scored, chunk by
// chunk, until none are left. A failing record is logged, counted and
// skipped for the rest of the run; the error return is reserved for the
// listing query itself.
func (p *Processor) ProcessBatch(ctx context.Context, chunkSize int) (BatchSummary, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var (
		summary BatchSummary
		failed  []uuid.UUID
	)
	for {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "batch cancelled")
		}

		records, err := p.businesses.ListUnprocessed(ctx, chunkSize, failed)
		if err != nil {
			return summary, eris.Wrap(err, "list unprocessed businesses")
		}
		if len(records) == 0 {
			break
		}

		for i := range records {
			record := &records[i]
			wasDuplicate := record.IsDuplicate

			err := p.Recompute(ctx, record)
			if err == nil {
				err = p.Save(ctx, record, wasDuplicate)
			}
			if err != nil {
				summary.Errors++
				failed = append(failed, record.ID)
				metrics.RecordsProcessed.WithLabelValues(modeBatch, metrics.OutcomeError).Inc()
				zap.L().Error("batch record failed",
					zap.String("business_id", record.ID.String()),
					zap.Error(err),
				)
				continue
			}

			summary.Processed++
			if record.IsDuplicate {
				summary.Duplicates++
			}
			if isHighPriority(record) {
				summary.HighPriority++
			}
			p.countOutcome(modeBatch, record)
		}
	}

	zap.L().Info("batch processing finished",
		zap.Int("processed", summary.Processed),
		zap.Int("errors", summary.Errors),
		zap.Int("high_priority", summary.HighPriority),
		zap.Int("duplicates", summary.Duplicates),
	)
	return summary, nil
}

// validateInput checks field limits. Updates may omit the business name and
// keep the stored one.
func (p *Processor) validateInput(input BusinessInput, requireName bool) error {
	var err error
	if !requireName && input.BusinessName == nil {
		err = p.validate.StructExcept(input, "BusinessName")
	} else {
		err = p.validate.Struct(input)
	}
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{Field: jsonFieldName(fe.Field()), Message: fmt.Sprintf("failed %q check", fe.Tag())}
		}
		return ValidationError{Message: err.Error()}
	}
	if (requireName || input.BusinessName != nil) && normalize.BusinessName(input.BusinessName) == nil {
		return ValidationError{Field: "business_name", Message: "is required"}
	}
	return nil
}

func (p *Processor) checkWebsite(ctx context.Context, log *zap.Logger, record *entity.BusinessRecord) {
	record.DomainValid = nil
	record.DomainActive = nil

	if normalize.Text(record.Website) == nil {
		return
	}
	domain := identity.ExtractDomain(*record.Website)
	valid := domain != nil && validate.IsValidDomainFormat(*domain)
	record.DomainValid = &valid
	if !valid || p.domains == nil {
		return
	}

	active, err := p.domains.IsDomainActive(ctx, *domain)
	if err != nil {
		log.Warn("domain liveness probe failed", zap.String("domain", *domain), zap.Error(err))
		return
	}
	record.DomainActive = &active
}

// raiseHighPriorityAlert records a high_priority_lead alert for a canonical
// high-priority record. In update mode an existing alert suppresses it.
// Failures are logged; the record itself is already stored.
func (p *Processor) raiseHighPriorityAlert(ctx context.Context, record *entity.BusinessRecord, onlyIfMissing bool) {
	if p.alerts == nil || record.IsDuplicate || !isHighPriority(record) {
		return
	}
	log := zap.L().With(zap.String("business_id", record.ID.String()))

	if onlyIfMissing {
		exists, err := p.alerts.Exists(ctx, record.ID, entity.AlertHighPriorityLead)
		if err != nil {
			log.Error("check existing alert", zap.Error(err))
			return
		}
		if exists {
			return
		}
	}

	alert := &entity.LeadAlert{
		BusinessID: record.ID,
		AlertType:  entity.AlertHighPriorityLead,
		Priority:   entity.PriorityHigh,
		Message:    highPriorityMessage(record),
	}
	if err := p.alerts.Create(ctx, alert); err != nil {
		log.Error("create high priority alert", zap.Error(err))
		return
	}
	metrics.AlertsCreated.WithLabelValues(entity.AlertHighPriorityLead).Inc()
}

func (p *Processor) countOutcome(mode string, record *entity.BusinessRecord) {
	metrics.RecordsProcessed.WithLabelValues(mode, metrics.OutcomeOK).Inc()
	if isHighPriority(record) && !record.IsDuplicate {
		metrics.HighPriorityLeads.Inc()
	}
}

func highPriorityMessage(record *entity.BusinessRecord) string {
	score := 0
	if record.RelevanceScore != nil {
		score = *record.RelevanceScore
	}
	return fmt.Sprintf("High priority lead: %s (relevance %d/100)", displayName(record), score)
}

func displayName(record *entity.BusinessRecord) string {
	if record.NormalizedBusinessName != nil {
		return *record.NormalizedBusinessName
	}
	if record.BusinessName != nil {
		return strings.TrimSpace(*record.BusinessName)
	}
	return record.ID.String()
}

func isHighPriority(record *entity.BusinessRecord) bool {
	return record.LeadPriority != nil && *record.LeadPriority == entity.PriorityHigh
}

func inputPatch(input BusinessInput) *entity.BusinessPatch {
	return &entity.BusinessPatch{
		BusinessName: input.BusinessName,
		BusinessType: input.BusinessType,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		Zip:          input.Zip,
		Country:      input.Country,
		Phone:        input.Phone,
		Email:        input.Email,
		Website:      input.Website,
		Industry:     input.Industry,
	}
}

// jsonFieldName converts a Go field name such as BusinessName to business_name.
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseBusinessID parses a lead id from a path parameter.
func ParseBusinessID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidBusinessID
	}
	return id, nil
}
