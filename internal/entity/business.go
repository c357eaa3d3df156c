package entity

import (
	"time"

	"github.com/google/uuid"
)

// Lead priority tiers.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Lead status values derived by the pipeline.
const (
	StatusNew       = "new"
	StatusDuplicate = "duplicate"
)

// Review status values set by operators.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewArchived = "archived"
)

// BusinessRecord is a lead captured from intake and refined by the pipeline.
type BusinessRecord struct {
	ID uuid.UUID `json:"id"`

	BusinessName *string `json:"business_name,omitempty"`
	BusinessType *string `json:"business_type,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	Country      *string `json:"country,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Website      *string `json:"website,omitempty"`
	Source       *string `json:"source,omitempty"`

	NormalizedEmail        *string `json:"normalized_email,omitempty"`
	NormalizedPhone        *string `json:"normalized_phone,omitempty"`
	NormalizedBusinessName *string `json:"normalized_business_name,omitempty"`
	NormalizedAddress      *string `json:"normalized_address,omitempty"`

	EmailHash  *string `json:"email_hash,omitempty"`
	PhoneHash  *string `json:"phone_hash,omitempty"`
	DomainHash *string `json:"domain_hash,omitempty"`

	EmailValid        *bool `json:"email_valid"`
	IsDisposableEmail bool  `json:"is_disposable_email"`
	IsGenericEmail    bool  `json:"is_generic_email"`
	PhoneValid        *bool `json:"phone_valid"`
	DomainValid       *bool `json:"domain_valid"`
	DomainActive      *bool `json:"domain_active"`

	IsDuplicate   bool       `json:"is_duplicate"`
	DuplicateOfID *uuid.UUID `json:"duplicate_of_id,omitempty"`

	ServiceSegment *string `json:"service_segment,omitempty"`
	Industry       *string `json:"industry,omitempty"`

	RelevanceScore   *int    `json:"relevance_score,omitempty"`
	LeadPriority     *string `json:"lead_priority,omitempty"`
	LeadStatus       *string `json:"lead_status,omitempty"`
	EnhancedScore    *int    `json:"enhanced_score,omitempty"`
	EnhancedPriority *string `json:"enhanced_priority,omitempty"`
	ReviewStatus     string  `json:"review_status"`

	Enrichment

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Enrichment groups fields filled in by third-party providers after intake.
type Enrichment struct {
	ContactName       *string `json:"contact_name,omitempty"`
	ContactPosition   *string `json:"contact_position,omitempty"`
	ContactSeniority  *string `json:"contact_seniority,omitempty"`
	ContactDepartment *string `json:"contact_department,omitempty"`
	ContactLinkedIn   *string `json:"contact_linkedin,omitempty"`
	ContactTwitter    *string `json:"contact_twitter,omitempty"`

	CompanySize    *string `json:"company_size,omitempty"`
	CompanyRevenue *string `json:"company_revenue,omitempty"`
	FoundedYear    *int    `json:"founded_year,omitempty"`

	LinkedInURL  *string `json:"linkedin_url,omitempty"`
	TwitterURL   *string `json:"twitter_url,omitempty"`
	FacebookURL  *string `json:"facebook_url,omitempty"`
	InstagramURL *string `json:"instagram_url,omitempty"`

	PlaceID     *string  `json:"place_id,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`

	HunterVerificationStatus *string `json:"hunter_verification_status,omitempty"`
	HunterDeliverability     *string `json:"hunter_deliverability,omitempty"`
	HunterConfidence         *int    `json:"hunter_confidence,omitempty"`
	HunterEmailsCount        *int    `json:"hunter_emails_count,omitempty"`

	EnrichedAt        *time.Time `json:"enriched_at,omitempty"`
	EnrichedByService *string    `json:"enriched_by_service,omitempty"`
}

// BusinessPatch is a partial record. Nil fields carry no information.
type BusinessPatch struct {
	BusinessName *string `json:"business_name,omitempty"`
	BusinessType *string `json:"business_type,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	Country      *string `json:"country,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Website      *string `json:"website,omitempty"`
	Industry     *string `json:"industry,omitempty"`

	Enrichment
}
