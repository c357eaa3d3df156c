package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
)

// ErrAlertNotFound is returned when marking an unknown alert.
var ErrAlertNotFound = errors.New("alert not found")

// AlertsRepository persists lead alerts.
type AlertsRepository interface {
	Create(ctx context.Context, alert *entity.LeadAlert) error
	Exists(ctx context.Context, businessID uuid.UUID, alertType string) (bool, error)
	ListUnsent(ctx context.Context, limit int) ([]entity.LeadAlert, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// PGXAlertsRepository implements AlertsRepository using pgx.
type PGXAlertsRepository struct {
	pool pgxPool
}

// NewPGXAlertsRepository wires a pgx backed repository.
func NewPGXAlertsRepository(pool *pgxpool.Pool) *PGXAlertsRepository {
	return &PGXAlertsRepository{pool: pool}
}

// Create inserts an unsent alert and fills in its id and creation time.
func (r *PGXAlertsRepository) Create(ctx context.Context, alert *entity.LeadAlert) error {
	if alert == nil {
		return eris.New("alert payload is nil")
	}
	row := r.pool.QueryRow(ctx, `
        INSERT INTO lead_alerts (business_id, alert_type, priority, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, alert.BusinessID, alert.AlertType, alert.Priority, alert.Message)
	if err := row.Scan(&alert.ID, &alert.CreatedAt); err != nil {
		return eris.Wrapf(err, "insert %s alert for %s", alert.AlertType, alert.BusinessID)
	}
	return nil
}

// Exists reports whether an alert of the given type was already recorded.
func (r *PGXAlertsRepository) Exists(ctx context.Context, businessID uuid.UUID, alertType string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lead_alerts WHERE business_id = $1 AND alert_type = $2)`,
		businessID, alertType,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "check alert existence")
	}
	return exists, nil
}

// ListUnsent returns pending alerts, oldest first.
func (r *PGXAlertsRepository) ListUnsent(ctx context.Context, limit int) ([]entity.LeadAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, business_id, alert_type, priority, message, sent, sent_at, created_at
        FROM lead_alerts
        WHERE sent = FALSE
        ORDER BY created_at ASC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, eris.Wrap(err, "list unsent alerts")
	}
	defer rows.Close()

	var alerts []entity.LeadAlert
	for rows.Next() {
		var (
			alert  entity.LeadAlert
			sentAt sql.NullTime
		)
		if err := rows.Scan(&alert.ID, &alert.BusinessID, &alert.AlertType, &alert.Priority, &alert.Message, &alert.Sent, &sentAt, &alert.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "scan alert row")
		}
		alert.SentAt = timePtr(sentAt)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate alerts")
	}
	return alerts, nil
}

// MarkSent flags an alert as delivered.
func (r *PGXAlertsRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE lead_alerts SET sent = TRUE, sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "mark alert %s sent", id)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
