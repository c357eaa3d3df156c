package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service/dedup"
)

// memoryBusinesses is an in-memory BusinessesRepository ordered by creation.
type memoryBusinesses struct {
	mu        sync.Mutex
	records   map[uuid.UUID]entity.BusinessRecord
	order     []uuid.UUID
	base      time.Time
	createErr error
	updateErr map[uuid.UUID]error
	updates   int
}

func newMemoryBusinesses() *memoryBusinesses {
	return &memoryBusinesses{
		records:   make(map[uuid.UUID]entity.BusinessRecord),
		base:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		updateErr: make(map[uuid.UUID]error),
	}
}

// seed stores a record as-is, bypassing the pipeline.
func (m *memoryBusinesses) seed(r entity.BusinessRecord) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = m.base.Add(time.Duration(len(m.order)) * time.Minute)
	m.records[r.ID] = r
	m.order = append(m.order, r.ID)
	return r.ID
}

func (m *memoryBusinesses) get(id uuid.UUID) entity.BusinessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func (m *memoryBusinesses) Create(ctx context.Context, record *entity.BusinessRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	record.ID = uuid.New()
	record.CreatedAt = m.base.Add(time.Duration(len(m.order)) * time.Minute)
	record.UpdatedAt = record.CreatedAt
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = *record
	m.order = append(m.order, record.ID)
	return nil
}

func (m *memoryBusinesses) Update(ctx context.Context, record *entity.BusinessRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[record.ID]; err != nil {
		return err
	}
	if _, ok := m.records[record.ID]; !ok {
		return repository.ErrBusinessNotFound
	}
	m.updates++
	m.records[record.ID] = *record
	return nil
}

func (m *memoryBusinesses) GetByID(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	return &r, nil
}

func (m *memoryBusinesses) FindCanonicalByHash(ctx context.Context, kind dedup.Kind, hash string, excludeID *uuid.UUID) ([]dedup.Canonical, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dedup.Canonical
	for _, id := range m.order {
		r := m.records[id]
		if r.IsDuplicate || (excludeID != nil && *excludeID == id) {
			continue
		}
		var value *string
		switch kind {
		case dedup.KindEmail:
			value = r.EmailHash
		case dedup.KindPhone:
			value = r.PhoneHash
		case dedup.KindDomain:
			value = r.DomainHash
		}
		if value != nil && *value == hash {
			out = append(out, dedup.Canonical{ID: id, NormalizedBusinessName: r.NormalizedBusinessName})
		}
	}
	return out, nil
}

func (m *memoryBusinesses) RepointDuplicates(ctx context.Context, from, to uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var moved int64
	for id, r := range m.records {
		if id == to || r.DuplicateOfID == nil || *r.DuplicateOfID != from {
			continue
		}
		target := to
		r.DuplicateOfID = &target
		m.records[id] = r
		moved++
	}
	return moved, nil
}

func (m *memoryBusinesses) ListUnprocessed(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return m.pending(limit, exclude, func(r entity.BusinessRecord) bool { return r.LeadPriority == nil })
}

func (m *memoryBusinesses) ListUnenriched(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return m.pending(limit, exclude, func(r entity.BusinessRecord) bool { return r.EnrichedAt == nil && !r.IsDuplicate })
}

func (m *memoryBusinesses) pending(limit int, exclude []uuid.UUID, match func(entity.BusinessRecord) bool) ([]entity.BusinessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []entity.BusinessRecord
	for _, id := range m.order {
		r := m.records[id]
		if skip[id] || !match(r) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryBusinesses) List(ctx context.Context, filter dto.LeadFilter) ([]entity.BusinessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.BusinessRecord, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		if filter.Priority != "" && (r.LeadPriority == nil || *r.LeadPriority != filter.Priority) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryBusinesses) SetReviewStatus(ctx context.Context, id uuid.UUID, status string) (*entity.BusinessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	r.ReviewStatus = status
	now := m.base.Add(24 * time.Hour)
	switch status {
	case entity.ReviewApproved:
		r.ApprovedAt = &now
	case entity.ReviewArchived:
		r.ArchivedAt = &now
	}
	m.records[id] = r
	return &r, nil
}

// memoryAlerts is an in-memory AlertsRepository.
type memoryAlerts struct {
	mu     sync.Mutex
	alerts []entity.LeadAlert
}

func (m *memoryAlerts) Create(ctx context.Context, alert *entity.LeadAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = uuid.New()
	alert.CreatedAt = time.Date(2024, 1, 1, 0, len(m.alerts), 0, 0, time.UTC)
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *memoryAlerts) Exists(ctx context.Context, businessID uuid.UUID, alertType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.BusinessID == businessID && a.AlertType == alertType {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAlerts) ListUnsent(ctx context.Context, limit int) ([]entity.LeadAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.LeadAlert
	for _, a := range m.alerts {
		if !a.Sent {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryAlerts) MarkSent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			now := time.Now()
			m.alerts[i].Sent = true
			m.alerts[i].SentAt = &now
			return nil
		}
	}
	return repository.ErrAlertNotFound
}

func (m *memoryAlerts) ofType(alertType string) []entity.LeadAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.LeadAlert
	for _, a := range m.alerts {
		if a.AlertType == alertType {
			out = append(out, a)
		}
	}
	return out
}

type stubDomainChecker struct {
	active bool
	err    error
	calls  []string
}

func (s *stubDomainChecker) IsDomainActive(ctx context.Context, domain string) (bool, error) {
	s.calls = append(s.calls, domain)
	return s.active, s.err
}

func strPtr(s string) *string {
	return &s
}
