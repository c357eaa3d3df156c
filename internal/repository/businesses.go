package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/service/dedup"
)

// ErrBusinessNotFound is returned when no business matches the id.
var ErrBusinessNotFound = errors.New("business not found")

// maxCanonicalCandidates bounds the rows returned for one hash lookup.
const maxCanonicalCandidates = 20

// BusinessesRepository describes persistence operations for lead records.
type BusinessesRepository interface {
	Create(ctx context.Context, record *entity.BusinessRecord) error
	Update(ctx context.Context, record *entity.BusinessRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error)
	FindCanonicalByHash(ctx context.Context, kind dedup.Kind, hash string, excludeID *uuid.UUID) ([]dedup.Canonical, error)
	RepointDuplicates(ctx context.Context, from, to uuid.UUID) (int64, error)
	ListUnprocessed(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error)
	ListUnenriched(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error)
	List(ctx context.Context, filter dto.LeadFilter) ([]entity.BusinessRecord, error)
	SetReviewStatus(ctx context.Context, id uuid.UUID, status string) (*entity.BusinessRecord, error)
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

// Columns written by Create and Update, in argument order.
var businessWriteColumns = []string{
	"business_name", "business_type", "address", "city", "state", "zip", "country",
	"phone", "email", "website", "source",
	"normalized_email", "normalized_phone", "normalized_business_name", "normalized_address",
	"email_hash", "phone_hash", "domain_hash",
	"email_valid", "is_disposable_email", "is_generic_email", "phone_valid", "domain_valid", "domain_active",
	"is_duplicate", "duplicate_of_id",
	"service_segment", "industry",
	"relevance_score", "lead_priority", "lead_status", "enhanced_score", "enhanced_priority", "review_status",
	"contact_name", "contact_position", "contact_seniority", "contact_department", "contact_linkedin", "contact_twitter",
	"company_size", "company_revenue", "founded_year",
	"linkedin_url", "twitter_url", "facebook_url", "instagram_url",
	"place_id", "rating", "review_count",
	"hunter_verification_status", "hunter_deliverability", "hunter_confidence", "hunter_emails_count",
	"enriched_at", "enriched_by_service",
}

var businessSelectColumns = "id, " + strings.Join(businessWriteColumns, ", ") +
	", created_at, updated_at, approved_at, archived_at"

var (
	insertBusinessSQL = buildInsertBusinessSQL()
	updateBusinessSQL = buildUpdateBusinessSQL()
)

func buildInsertBusinessSQL() string {
	placeholders := make([]string, len(businessWriteColumns))
	for i := range businessWriteColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO businesses (%s) VALUES (%s) RETURNING id, created_at, updated_at",
		strings.Join(businessWriteColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

func buildUpdateBusinessSQL() string {
	sets := make([]string, len(businessWriteColumns))
	for i, col := range businessWriteColumns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}
	return fmt.Sprintf(
		"UPDATE businesses SET %s, updated_at = NOW() WHERE id = $1 RETURNING updated_at",
		strings.Join(sets, ", "),
	)
}

func businessWriteArgs(b *entity.BusinessRecord) []any {
	e := &b.Enrichment
	reviewStatus := b.ReviewStatus
	if reviewStatus == "" {
		reviewStatus = entity.ReviewPending
	}
	return []any{
		b.BusinessName, b.BusinessType, b.Address, b.City, b.State, b.Zip, b.Country,
		b.Phone, b.Email, b.Website, b.Source,
		b.NormalizedEmail, b.NormalizedPhone, b.NormalizedBusinessName, b.NormalizedAddress,
		b.EmailHash, b.PhoneHash, b.DomainHash,
		b.EmailValid, b.IsDisposableEmail, b.IsGenericEmail, b.PhoneValid, b.DomainValid, b.DomainActive,
		b.IsDuplicate, b.DuplicateOfID,
		b.ServiceSegment, b.Industry,
		b.RelevanceScore, b.LeadPriority, b.LeadStatus, b.EnhancedScore, b.EnhancedPriority, reviewStatus,
		e.ContactName, e.ContactPosition, e.ContactSeniority, e.ContactDepartment, e.ContactLinkedIn, e.ContactTwitter,
		e.CompanySize, e.CompanyRevenue, e.FoundedYear,
		e.LinkedInURL, e.TwitterURL, e.FacebookURL, e.InstagramURL,
		e.PlaceID, e.Rating, e.ReviewCount,
		e.HunterVerificationStatus, e.HunterDeliverability, e.HunterConfidence, e.HunterEmailsCount,
		e.EnrichedAt, e.EnrichedByService,
	}
}

// Create inserts a new record and fills in its id and timestamps.
func (r *PGXBusinessesRepository) Create(ctx context.Context, record *entity.BusinessRecord) error {
	if record == nil {
		return eris.New("business payload is nil")
	}
	if record.ReviewStatus == "" {
		record.ReviewStatus = entity.ReviewPending
	}
	row := r.pool.QueryRow(ctx, insertBusinessSQL, businessWriteArgs(record)...)
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return eris.Wrap(err, "insert business")
	}
	return nil
}

// Update writes every mutable column of an existing record.
func (r *PGXBusinessesRepository) Update(ctx context.Context, record *entity.BusinessRecord) error {
	if record == nil {
		return eris.New("business payload is nil")
	}
	args := append([]any{record.ID}, businessWriteArgs(record)...)
	if err := r.pool.QueryRow(ctx, updateBusinessSQL, args...).Scan(&record.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBusinessNotFound
		}
		return eris.Wrapf(err, "update business %s", record.ID)
	}
	return nil
}

// GetByID fetches a single record.
func (r *PGXBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error) {
	query := "SELECT " + businessSelectColumns + " FROM businesses WHERE id = $1"
	record, err := scanBusiness(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, eris.Wrapf(err, "get business %s", id)
	}
	return record, nil
}

// FindCanonicalByHash returns non-duplicate records sharing the hash, oldest
// first, skipping excludeID.
func (r *PGXBusinessesRepository) FindCanonicalByHash(ctx context.Context, kind dedup.Kind, hash string, excludeID *uuid.UUID) ([]dedup.Canonical, error) {
	column, err := hashColumn(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
        SELECT id, normalized_business_name
        FROM businesses
        WHERE %s = $1
          AND is_duplicate = FALSE
          AND ($2::uuid IS NULL OR id <> $2::uuid)
        ORDER BY created_at ASC, id ASC
        LIMIT %d
    `, column, maxCanonicalCandidates)

	rows, err := r.pool.Query(ctx, query, hash, excludeID)
	if err != nil {
		return nil, eris.Wrapf(err, "find canonical by %s hash", kind)
	}
	defer rows.Close()

	var matches []dedup.Canonical
	for rows.Next() {
		var (
			match dedup.Canonical
			name  sql.NullString
		)
		if err := rows.Scan(&match.ID, &name); err != nil {
			return nil, eris.Wrap(err, "scan canonical row")
		}
		match.NormalizedBusinessName = stringPtr(name)
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate canonical rows")
	}
	return matches, nil
}

// RepointDuplicates moves every record marked as a duplicate of from onto to.
func (r *PGXBusinessesRepository) RepointDuplicates(ctx context.Context, from, to uuid.UUID) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE businesses
        SET duplicate_of_id = $2, updated_at = NOW()
        WHERE duplicate_of_id = $1 AND id <> $2
    `, from, to)
	if err != nil {
		return 0, eris.Wrapf(err, "repoint duplicates of %s", from)
	}
	return cmd.RowsAffected(), nil
}

// ListUnprocessed returns records that have not been scored yet.
func (r *PGXBusinessesRepository) ListUnprocessed(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return r.listPending(ctx, "lead_priority IS NULL", limit, exclude)
}

// ListUnenriched returns records no provider has enriched yet.
func (r *PGXBusinessesRepository) ListUnenriched(ctx context.Context, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	return r.listPending(ctx, "enriched_at IS NULL AND is_duplicate = FALSE", limit, exclude)
}

func (r *PGXBusinessesRepository) listPending(ctx context.Context, condition string, limit int, exclude []uuid.UUID) ([]entity.BusinessRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + businessSelectColumns + " FROM businesses WHERE " + condition +
		" AND NOT (id::text = ANY($2::text[])) ORDER BY created_at ASC, id ASC LIMIT $1"

	rows, err := r.pool.Query(ctx, query, limit, uuidSlice(exclude))
	if err != nil {
		return nil, eris.Wrap(err, "list pending businesses")
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// List retrieves records matching the filter.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.LeadFilter) ([]entity.BusinessRecord, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(business_name ILIKE $%d OR email ILIKE $%d OR website ILIKE $%d)", idx, idx, idx))
		args = append(args, pattern)
		idx++
	}
	if filter.Priority != "" {
		clauses = append(clauses, fmt.Sprintf("lead_priority = LOWER($%d)", idx))
		args = append(args, filter.Priority)
		idx++
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("lead_status = LOWER($%d)", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.ReviewStatus != "" {
		clauses = append(clauses, fmt.Sprintf("review_status = LOWER($%d)", idx))
		args = append(args, filter.ReviewStatus)
		idx++
	}
	if filter.ServiceSegment != "" {
		clauses = append(clauses, fmt.Sprintf("service_segment = LOWER($%d)", idx))
		args = append(args, filter.ServiceSegment)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.MinScore != nil {
		clauses = append(clauses, fmt.Sprintf("relevance_score >= $%d", idx))
		args = append(args, *filter.MinScore)
		idx++
	}

	query := strings.Builder{}
	query.WriteString("SELECT " + businessSelectColumns + " FROM businesses")
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "relevance_score DESC NULLS LAST, created_at DESC"
	switch strings.ToLower(filter.Sort) {
	case "recent":
		orderClause = "created_at DESC"
	case "enhanced":
		orderClause = "enhanced_score DESC NULLS LAST, relevance_score DESC NULLS LAST, created_at DESC"
	}
	query.WriteString(" ORDER BY ")
	query.WriteString(orderClause)

	if filter.Limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	} else {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		perPage := filter.PerPage
		if perPage <= 0 {
			perPage = 20
		}
		if perPage > 100 {
			perPage = 100
		}
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
		args = append(args, perPage, (page-1)*perPage)
	}

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "list businesses")
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// SetReviewStatus records an operator review decision, stamping approved_at
// or archived_at on the matching transition.
func (r *PGXBusinessesRepository) SetReviewStatus(ctx context.Context, id uuid.UUID, status string) (*entity.BusinessRecord, error) {
	query := `
        UPDATE businesses SET
            review_status = $2,
            approved_at = CASE WHEN $2 = 'approved' THEN NOW() ELSE approved_at END,
            archived_at = CASE WHEN $2 = 'archived' THEN NOW() ELSE archived_at END,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + businessSelectColumns

	record, err := scanBusiness(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, eris.Wrapf(err, "set review status of %s", id)
	}
	return record, nil
}

func hashColumn(kind dedup.Kind) (string, error) {
	switch kind {
	case dedup.KindEmail:
		return "email_hash", nil
	case dedup.KindPhone:
		return "phone_hash", nil
	case dedup.KindDomain:
		return "domain_hash", nil
	default:
		return "", eris.Errorf("unknown hash kind %q", kind)
	}
}

// businessRow holds nullable scan targets for one businesses row.
type businessRow struct {
	id                                                 uuid.UUID
	name, bizType, address, city, state, zip, country  sql.NullString
	phone, email, website, source                      sql.NullString
	normEmail, normPhone, normName, normAddress        sql.NullString
	emailHash, phoneHash, domainHash                   sql.NullString
	emailValid                                         sql.NullBool
	isDisposable, isGeneric                            bool
	phoneValid, domainValid, domainActive              sql.NullBool
	isDuplicate                                        bool
	duplicateOf                                        sql.NullString
	segment, industry                                  sql.NullString
	relevance                                          sql.NullInt64
	priority, status                                   sql.NullString
	enhanced                                           sql.NullInt64
	enhancedPriority                                   sql.NullString
	reviewStatus                                       string
	contactName, contactPosition, contactSeniority     sql.NullString
	contactDepartment, contactLinkedIn, contactTwitter sql.NullString
	companySize, companyRevenue                        sql.NullString
	foundedYear                                        sql.NullInt64
	linkedIn, twitter, facebook, instagram             sql.NullString
	placeID                                            sql.NullString
	rating                                             sql.NullFloat64
	reviewCount                                        sql.NullInt64
	hunterStatus, hunterDeliverability                 sql.NullString
	hunterConfidence, hunterEmails                     sql.NullInt64
	enrichedAt                                         sql.NullTime
	enrichedBy                                         sql.NullString
	createdAt, updatedAt                               sql.NullTime
	approvedAt, archivedAt                             sql.NullTime
}

func (b *businessRow) dest() []any {
	return []any{
		&b.id,
		&b.name, &b.bizType, &b.address, &b.city, &b.state, &b.zip, &b.country,
		&b.phone, &b.email, &b.website, &b.source,
		&b.normEmail, &b.normPhone, &b.normName, &b.normAddress,
		&b.emailHash, &b.phoneHash, &b.domainHash,
		&b.emailValid, &b.isDisposable, &b.isGeneric, &b.phoneValid, &b.domainValid, &b.domainActive,
		&b.isDuplicate, &b.duplicateOf,
		&b.segment, &b.industry,
		&b.relevance, &b.priority, &b.status, &b.enhanced, &b.enhancedPriority, &b.reviewStatus,
		&b.contactName, &b.contactPosition, &b.contactSeniority, &b.contactDepartment, &b.contactLinkedIn, &b.contactTwitter,
		&b.companySize, &b.companyRevenue, &b.foundedYear,
		&b.linkedIn, &b.twitter, &b.facebook, &b.instagram,
		&b.placeID, &b.rating, &b.reviewCount,
		&b.hunterStatus, &b.hunterDeliverability, &b.hunterConfidence, &b.hunterEmails,
		&b.enrichedAt, &b.enrichedBy,
		&b.createdAt, &b.updatedAt, &b.approvedAt, &b.archivedAt,
	}
}

func (b *businessRow) record() (*entity.BusinessRecord, error) {
	duplicateOf, err := uuidPtr(b.duplicateOf)
	if err != nil {
		return nil, eris.Wrap(err, "parse duplicate_of_id")
	}
	return &entity.BusinessRecord{
		ID:                     b.id,
		BusinessName:           stringPtr(b.name),
		BusinessType:           stringPtr(b.bizType),
		Address:                stringPtr(b.address),
		City:                   stringPtr(b.city),
		State:                  stringPtr(b.state),
		Zip:                    stringPtr(b.zip),
		Country:                stringPtr(b.country),
		Phone:                  stringPtr(b.phone),
		Email:                  stringPtr(b.email),
		Website:                stringPtr(b.website),
		Source:                 stringPtr(b.source),
		NormalizedEmail:        stringPtr(b.normEmail),
		NormalizedPhone:        stringPtr(b.normPhone),
		NormalizedBusinessName: stringPtr(b.normName),
		NormalizedAddress:      stringPtr(b.normAddress),
		EmailHash:              stringPtr(b.emailHash),
		PhoneHash:              stringPtr(b.phoneHash),
		DomainHash:             stringPtr(b.domainHash),
		EmailValid:             boolPtr(b.emailValid),
		IsDisposableEmail:      b.isDisposable,
		IsGenericEmail:         b.isGeneric,
		PhoneValid:             boolPtr(b.phoneValid),
		DomainValid:            boolPtr(b.domainValid),
		DomainActive:           boolPtr(b.domainActive),
		IsDuplicate:            b.isDuplicate,
		DuplicateOfID:          duplicateOf,
		ServiceSegment:         stringPtr(b.segment),
		Industry:               stringPtr(b.industry),
		RelevanceScore:         intPtr(b.relevance),
		LeadPriority:           stringPtr(b.priority),
		LeadStatus:             stringPtr(b.status),
		EnhancedScore:          intPtr(b.enhanced),
		EnhancedPriority:       stringPtr(b.enhancedPriority),
		ReviewStatus:           b.reviewStatus,
		Enrichment: entity.Enrichment{
			ContactName:              stringPtr(b.contactName),
			ContactPosition:          stringPtr(b.contactPosition),
			ContactSeniority:         stringPtr(b.contactSeniority),
			ContactDepartment:        stringPtr(b.contactDepartment),
			ContactLinkedIn:          stringPtr(b.contactLinkedIn),
			ContactTwitter:           stringPtr(b.contactTwitter),
			CompanySize:              stringPtr(b.companySize),
			CompanyRevenue:           stringPtr(b.companyRevenue),
			FoundedYear:              intPtr(b.foundedYear),
			LinkedInURL:              stringPtr(b.linkedIn),
			TwitterURL:               stringPtr(b.twitter),
			FacebookURL:              stringPtr(b.facebook),
			InstagramURL:             stringPtr(b.instagram),
			PlaceID:                  stringPtr(b.placeID),
			Rating:                   floatPtr(b.rating),
			ReviewCount:              intPtr(b.reviewCount),
			HunterVerificationStatus: stringPtr(b.hunterStatus),
			HunterDeliverability:     stringPtr(b.hunterDeliverability),
			HunterConfidence:         intPtr(b.hunterConfidence),
			HunterEmailsCount:        intPtr(b.hunterEmails),
			EnrichedAt:               timePtr(b.enrichedAt),
			EnrichedByService:        stringPtr(b.enrichedBy),
		},
		CreatedAt:  b.createdAt.Time,
		UpdatedAt:  b.updatedAt.Time,
		ApprovedAt: timePtr(b.approvedAt),
		ArchivedAt: timePtr(b.archivedAt),
	}, nil
}

func scanBusiness(row pgx.Row) (*entity.BusinessRecord, error) {
	var b businessRow
	if err := row.Scan(b.dest()...); err != nil {
		return nil, err
	}
	return b.record()
}

func scanBusinesses(rows pgx.Rows) ([]entity.BusinessRecord, error) {
	var records []entity.BusinessRecord
	for rows.Next() {
		var b businessRow
		if err := rows.Scan(b.dest()...); err != nil {
			return nil, eris.Wrap(err, "scan business row")
		}
		record, err := b.record()
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate businesses")
	}
	return records, nil
}
