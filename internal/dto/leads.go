package dto

// LeadRequest is the intake payload for creating or updating a lead. Only the
// business name is required.
type LeadRequest struct {
	BusinessName *string `json:"business_name" validate:"required,min=1,max=255"`
	BusinessType *string `json:"business_type,omitempty" validate:"omitempty,max=255"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=120"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=120"`
	Zip          *string `json:"zip,omitempty" validate:"omitempty,max=32"`
	Country      *string `json:"country,omitempty" validate:"omitempty,max=120"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=64"`
	Email        *string `json:"email,omitempty" validate:"omitempty,max=320"`
	Website      *string `json:"website,omitempty" validate:"omitempty,max=2048"`
	Industry     *string `json:"industry,omitempty" validate:"omitempty,max=255"`
	Source       *string `json:"source,omitempty" validate:"omitempty,max=64"`
}

// LeadFilter contains query parameters for lead listing and export.
type LeadFilter struct {
	Q              string
	Priority       string
	Status         string
	ReviewStatus   string
	ServiceSegment string
	City           string
	MinScore       *int
	Sort           string
	Page           int
	PerPage        int
	Limit          int
}

// ReviewRequest changes a lead's review status.
type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved archived"`
}

// BatchRequest bounds an administrative batch run.
type BatchRequest struct {
	ChunkSize int `json:"chunk_size,omitempty" validate:"omitempty,min=1,max=500"`
	Limit     int `json:"limit,omitempty" validate:"omitempty,min=1,max=5000"`
}
