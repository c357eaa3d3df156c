package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/enrichment"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/metrics"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service/scoring"
)

// EnrichOutcome reports what one enrichment pass did to a record.
type EnrichOutcome struct {
	Record    *entity.BusinessRecord `json:"record"`
	Enhanced  scoring.EnhancedScore  `json:"enhanced_score"`
	Providers map[string]string      `json:"providers"`
}

// EnrichSummary tallies one enrichment batch.
type EnrichSummary struct {
	Enriched    int `json:"enriched"`
	Errors      int `json:"errors"`
	HighQuality int `json:"high_quality"`
}

// EnrichmentService runs the configured providers against stored leads and
// folds their answers back into the pipeline.
type EnrichmentService struct {
	businesses repository.BusinessesRepository
	alerts     repository.AlertsRepository
	processor  *Processor
	clients    []enrichment.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewEnrichmentService wires the providers. delay spaces consecutive records
// in a batch; zero disables throttling.
func NewEnrichmentService(businesses repository.BusinessesRepository, alerts repository.AlertsRepository, processor *Processor, clients []enrichment.Client, delay time.Duration) *EnrichmentService {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &EnrichmentService{
		businesses: businesses,
		alerts:     alerts,
		processor:  processor,
		clients:    clients,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// Providers lists the registered provider names.
func (s *EnrichmentService) Providers() []string {
	names := make([]string, 0, len(s.clients))
	for _, c := range s.clients {
		names = append(names, c.Name())
	}
	return names
}

// Enrich runs every provider for one lead, merges what they return without
// overwriting known values, rescores and persists the record.
func (s *EnrichmentService) Enrich(ctx context.Context, id uuid.UUID) (*EnrichOutcome, error) {
	record, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "load business %s", id)
	}
	return s.enrichRecord(ctx, record)
}

// EnrichBatch walks records that were never enriched, one at a time with
// the configured delay between them, until limit records were attempted or
// none remain.
func (s *EnrichmentService) EnrichBatch(ctx context.Context, limit int) (EnrichSummary, error) {
	if limit <= 0 {
		limit = defaultChunkSize
	}

	var (
		summary   EnrichSummary
		attempted []uuid.UUID
	)
	for len(attempted) < limit {
		chunk := min(defaultChunkSize, limit-len(attempted))
		records, err := s.businesses.ListUnenriched(ctx, chunk, attempted)
		if err != nil {
			return summary, eris.Wrap(err, "list unenriched businesses")
		}
		if len(records) == 0 {
			break
		}

		for i := range records {
			if err := s.limiter.Wait(ctx); err != nil {
				return summary, eris.Wrap(err, "enrichment batch cancelled")
			}
			record := &records[i]
			attempted = append(attempted, record.ID)

			outcome, err := s.enrichRecord(ctx, record)
			if err != nil {
				summary.Errors++
				zap.L().Error("batch enrichment failed",
					zap.String("business_id", record.ID.String()),
					zap.Error(err),
				)
				continue
			}
			summary.Enriched++
			if outcome.Enhanced.Priority == entity.PriorityHigh {
				summary.HighQuality++
			}
		}
	}

	zap.L().Info("batch enrichment finished",
		zap.Int("enriched", summary.Enriched),
		zap.Int("errors", summary.Errors),
		zap.Int("high_quality", summary.HighQuality),
	)
	return summary, nil
}

// SaveWorkerResult merges a crawl result pushed back by the worker.
func (s *EnrichmentService) SaveWorkerResult(ctx context.Context, payload dto.EnrichResultRequest) (*EnrichOutcome, error) {
	id, err := ParseBusinessID(payload.BusinessID)
	if err != nil {
		return nil, err
	}
	record, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "load business %s", id)
	}

	wasDuplicate := record.IsDuplicate
	record.MergeEnrichment(workerPatch(payload))
	return s.finish(ctx, record, wasDuplicate, []string{"linkedin_worker"}, map[string]string{"linkedin_worker": "ok"})
}

func (s *EnrichmentService) enrichRecord(ctx context.Context, record *entity.BusinessRecord) (*EnrichOutcome, error) {
	log := zap.L().With(zap.String("business_id", record.ID.String()))
	wasDuplicate := record.IsDuplicate

	var succeeded []string
	providers := make(map[string]string, len(s.clients))
	for _, client := range s.clients {
		name := client.Name()
		res := client.Enrich(ctx, record)
		switch {
		case !res.Success:
			providers[name] = res.Error
			metrics.EnrichmentCalls.WithLabelValues(name, metrics.OutcomeError).Inc()
			log.Warn("enrichment provider failed", zap.String("provider", name), zap.String("error", res.Error))
			continue
		case res.Data == nil:
			providers[name] = "no_match"
			metrics.EnrichmentCalls.WithLabelValues(name, metrics.OutcomeSkipped).Inc()
		default:
			providers[name] = "ok"
			metrics.EnrichmentCalls.WithLabelValues(name, metrics.OutcomeOK).Inc()
			record.MergeEnrichment(res.Data)
		}
		succeeded = append(succeeded, name)
	}

	return s.finish(ctx, record, wasDuplicate, succeeded, providers)
}

// finish stamps the enrichment, recomputes everything derived, persists and
// raises the high-quality alert once. A record no provider answered for is
// left unstamped so a later batch retries it.
func (s *EnrichmentService) finish(ctx context.Context, record *entity.BusinessRecord, wasDuplicate bool, services []string, providers map[string]string) (*EnrichOutcome, error) {
	now := s.now()
	if len(services) > 0 {
		by := strings.Join(services, ",")
		record.EnrichedAt = &now
		record.EnrichedByService = &by
	}

	if err := s.processor.Recompute(ctx, record); err != nil {
		return nil, err
	}
	if err := s.processor.Save(ctx, record, wasDuplicate); err != nil {
		return nil, err
	}

	enhanced := s.processor.Scorer().Enhanced(record, now)
	if enhanced.Priority == entity.PriorityHigh && !record.IsDuplicate {
		s.raiseHighQualityAlert(ctx, record, enhanced)
	}

	return &EnrichOutcome{Record: record, Enhanced: enhanced, Providers: providers}, nil
}

func (s *EnrichmentService) raiseHighQualityAlert(ctx context.Context, record *entity.BusinessRecord, score scoring.EnhancedScore) {
	if s.alerts == nil {
		return
	}
	log := zap.L().With(zap.String("business_id", record.ID.String()))

	exists, err := s.alerts.Exists(ctx, record.ID, entity.AlertHighQualityEnriched)
	if err != nil {
		log.Error("check existing alert", zap.Error(err))
		return
	}
	if exists {
		return
	}

	alert := &entity.LeadAlert{
		BusinessID: record.ID,
		AlertType:  entity.AlertHighQualityEnriched,
		Priority:   entity.PriorityHigh,
		Message:    fmt.Sprintf("High quality enriched lead: %s (enhanced %d/100)", displayName(record), score.Total),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		log.Error("create high quality alert", zap.Error(err))
		return
	}
	metrics.AlertsCreated.WithLabelValues(entity.AlertHighQualityEnriched).Inc()
}

func workerPatch(payload dto.EnrichResultRequest) *entity.BusinessPatch {
	patch := &entity.BusinessPatch{
		Email:    firstNonBlank(payload.Emails),
		Phone:    firstNonBlank(payload.Phones),
		Website:  normalizeString(payload.Website),
		Industry: payload.Industry,
	}
	patch.ContactName = payload.ContactName
	patch.ContactPosition = payload.ContactPosition
	patch.ContactSeniority = payload.ContactSeniority
	patch.ContactDepartment = payload.ContactDepartment
	patch.ContactLinkedIn = payload.ContactLinkedIn
	patch.CompanySize = payload.CompanySize
	patch.LinkedInURL = firstNonBlank(payload.Socials["linkedin"])
	patch.TwitterURL = firstNonBlank(payload.Socials["twitter"])
	patch.FacebookURL = firstNonBlank(payload.Socials["facebook"])
	patch.InstagramURL = firstNonBlank(payload.Socials["instagram"])
	return patch
}

func firstNonBlank(values []string) *string {
	for _, v := range values {
		if p := normalizeString(v); p != nil {
			return p
		}
	}
	return nil
}
