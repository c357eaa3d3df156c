package entity

import (
	"time"

	"github.com/google/uuid"
)

// Alert types emitted by the pipeline.
const (
	AlertHighPriorityLead    = "high_priority_lead"
	AlertHighQualityEnriched = "high_quality_enriched"
)

// LeadAlert is a notification waiting to be delivered for a business record.
type LeadAlert struct {
	ID         uuid.UUID  `json:"id"`
	BusinessID uuid.UUID  `json:"business_id"`
	AlertType  string     `json:"alert_type"`
	Priority   string     `json:"priority"`
	Message    string     `json:"message"`
	Sent       bool       `json:"sent"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
