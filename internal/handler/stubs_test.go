package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
	"github.com/octobees/leadscan/internal/service/dedup"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubBusinessesRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]entity.BusinessRecord
	listErr error
}

func newStubBusinessesRepo() *stubBusinessesRepo {
	return &stubBusinessesRepo{records: make(map[uuid.UUID]entity.BusinessRecord)}
}

func (s *stubBusinessesRepo) Create(ctx context.Context, record *entity.BusinessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = uuid.New()
	record.CreatedAt = time.Date(2024, 5, 1, 0, len(s.records), 0, 0, time.UTC)
	s.records[record.ID] = *record
	return nil
}

func (s *stubBusinessesRepo) Update(ctx context.Context, record *entity.BusinessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return repository.ErrBusinessNotFound
	}
	s.records[record.ID] = *record
	return nil
}

func (s *stubBusinessesRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	return &r, nil
}

func (s *stubBusinessesRepo) FindCanonicalByHash(ctx context.Context, kind dedup.Kind, hash string, excludeID *uuid.UUID) ([]dedup.Canonical, error) {
	return nil, nil
}

func (s *stubBusinessesRepo) RepointDuplicates(ctx context.Context, from, to uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubBusinessesRepo) ListUnprocessed(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return nil, nil
}

func (s *stubBusinessesRepo) ListUnenriched(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return nil, nil
}

func (s *stubBusinessesRepo) List(ctx context.Context, filter dto.LeadFilter) ([]entity.BusinessRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.BusinessRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubBusinessesRepo) SetReviewStatus(ctx context.Context, id uuid.UUID, status string) (*entity.BusinessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	r.ReviewStatus = status
	s.records[id] = r
	return &r, nil
}

func (s *stubBusinessesRepo) seed(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.records[id] = entity.BusinessRecord{ID: id, BusinessName: &name, ReviewStatus: entity.ReviewPending}
	return id
}

type stubAlertsRepo struct {
	created []entity.LeadAlert
}

func (s *stubAlertsRepo) Create(ctx context.Context, alert *entity.LeadAlert) error {
	alert.ID = uuid.New()
	s.created = append(s.created, *alert)
	return nil
}

func (s *stubAlertsRepo) Exists(ctx context.Context, businessID uuid.UUID, alertType string) (bool, error) {
	return false, nil
}

func (s *stubAlertsRepo) ListUnsent(ctx context.Context, limit int) ([]entity.LeadAlert, error) {
	return s.created, nil
}

func (s *stubAlertsRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubUsersRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	if s.create != nil {
		return s.create(ctx, email, passwordHash, role)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return nil
}

// pipeline bundles the services the lead handlers depend on.
type pipeline struct {
	repo      *stubBusinessesRepo
	alerts    *stubAlertsRepo
	processor *service.Processor
	leads     *service.LeadsService
	enrich    *service.EnrichmentService
}

func newPipeline() *pipeline {
	repo := newStubBusinessesRepo()
	alerts := &stubAlertsRepo{}
	processor := service.NewProcessor(repo, alerts)
	return &pipeline{
		repo:      repo,
		alerts:    alerts,
		processor: processor,
		leads:     service.NewLeadsService(repo, processor),
		enrich:    service.NewEnrichmentService(repo, alerts, processor, nil, 0),
	}
}

func jsonRequest(t *testing.T, method, target string, payload any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body io.Reader = http.NoBody
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func multipartRequest(t *testing.T, field, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/upload-csv", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req, httptest.NewRecorder()
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) APIResponse {
	t.Helper()
	var raw struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return raw.APIResponse
}
