package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/service/dedup"
)

func newMockBusinesses(t *testing.T) (*PGXBusinessesRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PGXBusinessesRepository{pool: mock}, mock
}

func businessColumns() []string {
	cols := append([]string{"id"}, businessWriteColumns...)
	return append(cols, "created_at", "updated_at", "approved_at", "archived_at")
}

// businessValues returns a row with every nullable column NULL, then applies
// overrides by column name.
func businessValues(id uuid.UUID, created time.Time, overrides map[string]any) []any {
	cols := businessColumns()
	values := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			values[i] = id.String()
		case "is_disposable_email", "is_generic_email", "is_duplicate":
			values[i] = false
		case "review_status":
			values[i] = entity.ReviewPending
		case "created_at", "updated_at":
			values[i] = created
		}
		if v, ok := overrides[col]; ok {
			values[i] = v
		}
	}
	return values
}

// anyArgs matches n query arguments of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestBusinessWriteArgsMatchColumns(t *testing.T) {
	assert.Len(t, businessWriteArgs(&entity.BusinessRecord{}), len(businessWriteColumns))
}

func TestPGXBusinessesRepository_Create(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	id := uuid.New()
	now := time.Now()
	name := "Acme Corp"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO businesses (business_name, business_type")).
		WithArgs(anyArgs(len(businessWriteColumns))...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))

	record := &entity.BusinessRecord{BusinessName: &name}
	require.NoError(t, repo.Create(context.Background(), record))

	assert.Equal(t, id, record.ID)
	assert.Equal(t, entity.ReviewPending, record.ReviewStatus)
	assert.Equal(t, now, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_CreateNil(t *testing.T) {
	repo, _ := newMockBusinesses(t)
	assert.Error(t, repo.Create(context.Background(), nil))
}

func TestPGXBusinessesRepository_UpdateNotFound(t *testing.T) {
	repo, mock := newMockBusinesses(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE businesses SET business_name = $2")).
		WithArgs(anyArgs(len(businessWriteColumns)+1)...).
		WillReturnError(pgx.ErrNoRows)

	err := repo.Update(context.Background(), &entity.BusinessRecord{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrBusinessNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_GetByID(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	id := uuid.New()
	canonical := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := pgxmock.NewRows(businessColumns()).AddRow(businessValues(id, created, map[string]any{
		"business_name":    "Acme Corp",
		"normalized_email": "info@acme.com",
		"email_valid":      true,
		"is_generic_email": true,
		"is_duplicate":     true,
		"duplicate_of_id":  canonical.String(),
		"relevance_score":  int64(35),
		"lead_priority":    entity.PriorityLow,
		"rating":           4.5,
		"review_count":     int64(120),
		"enriched_at":      created,
	})...)
	mock.ExpectQuery(regexp.QuoteMeta("FROM businesses WHERE id = $1")).WithArgs(id).WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, record.ID)
	assert.Equal(t, "Acme Corp", *record.BusinessName)
	assert.Equal(t, "info@acme.com", *record.NormalizedEmail)
	assert.True(t, *record.EmailValid)
	assert.Nil(t, record.PhoneValid)
	assert.True(t, record.IsGenericEmail)
	assert.True(t, record.IsDuplicate)
	assert.Equal(t, canonical, *record.DuplicateOfID)
	assert.Equal(t, 35, *record.RelevanceScore)
	assert.Equal(t, 4.5, *record.Rating)
	assert.Equal(t, 120, *record.ReviewCount)
	assert.Equal(t, created, *record.EnrichedAt)
	assert.Nil(t, record.ApprovedAt)
	assert.Equal(t, created, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	mock.ExpectQuery("FROM businesses WHERE id").WithArgs(pgxmock.AnyArg()).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestPGXBusinessesRepository_FindCanonicalByHash(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	first, second := uuid.New(), uuid.New()
	exclude := uuid.New()

	mock.ExpectQuery(`WHERE domain_hash = \$1\s+AND is_duplicate = FALSE`).
		WithArgs("abc", &exclude).
		WillReturnRows(pgxmock.NewRows([]string{"id", "normalized_business_name"}).
			AddRow(first.String(), "Acme Corp").
			AddRow(second.String(), nil))

	matches, err := repo.FindCanonicalByHash(context.Background(), dedup.KindDomain, "abc", &exclude)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, first, matches[0].ID)
	assert.Equal(t, "Acme Corp", *matches[0].NormalizedBusinessName)
	assert.Nil(t, matches[1].NormalizedBusinessName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_FindCanonicalByHashUnknownKind(t *testing.T) {
	repo, _ := newMockBusinesses(t)
	_, err := repo.FindCanonicalByHash(context.Background(), dedup.Kind("fax"), "abc", nil)
	assert.Error(t, err)
}

func TestPGXBusinessesRepository_RepointDuplicates(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	from, to := uuid.New(), uuid.New()

	mock.ExpectExec("SET duplicate_of_id = \\$2").
		WithArgs(from, to).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.RepointDuplicates(context.Background(), from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_ListUnprocessed(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	id := uuid.New()
	failed := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lead_priority IS NULL AND NOT (id::text = ANY($2::text[]))")).
		WithArgs(10, []string{failed.String()}).
		WillReturnRows(pgxmock.NewRows(businessColumns()).AddRow(businessValues(id, time.Now(), nil)...))

	records, err := repo.ListUnprocessed(context.Background(), 10, []uuid.UUID{failed})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Nil(t, records[0].LeadPriority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_ListUnenrichedDefaultsLimit(t *testing.T) {
	repo, mock := newMockBusinesses(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE enriched_at IS NULL AND is_duplicate = FALSE")).
		WithArgs(50, []string{}).
		WillReturnRows(pgxmock.NewRows(businessColumns()))

	records, err := repo.ListUnenriched(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_ListBuildsFilters(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	minScore := 60

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lead_priority = LOWER($1) AND review_status = LOWER($2) AND relevance_score >= $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("high", "approved", 60, 100, 100).
		WillReturnRows(pgxmock.NewRows(businessColumns()))

	_, err := repo.List(context.Background(), dto.LeadFilter{
		Priority:     "high",
		ReviewStatus: "approved",
		MinScore:     &minScore,
		Sort:         "recent",
		Page:         2,
		PerPage:      500,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGXBusinessesRepository_SetReviewStatus(t *testing.T) {
	repo, mock := newMockBusinesses(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SET\\s+review_status = \\$2").
		WithArgs(id, entity.ReviewApproved).
		WillReturnRows(pgxmock.NewRows(businessColumns()).AddRow(businessValues(id, now, map[string]any{
			"review_status": entity.ReviewApproved,
			"approved_at":   now,
		})...))

	record, err := repo.SetReviewStatus(context.Background(), id, entity.ReviewApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.ReviewApproved, record.ReviewStatus)
	require.NotNil(t, record.ApprovedAt)
	assert.Nil(t, record.ArchivedAt)

	mock.ExpectQuery("SET\\s+review_status").WithArgs(id, entity.ReviewArchived).WillReturnError(errors.New("boom"))
	_, err = repo.SetReviewStatus(context.Background(), id, entity.ReviewArchived)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
