package dto

// EnrichResultRequest is the payload the crawl worker posts after looking up
// a business website and its LinkedIn presence.
type EnrichResultRequest struct {
	BusinessID        string              `json:"business_id"`
	Emails            []string            `json:"emails"`
	Phones            []string            `json:"phones"`
	Socials           map[string][]string `json:"socials"`
	ContactName       *string             `json:"contact_name,omitempty"`
	ContactPosition   *string             `json:"contact_position,omitempty"`
	ContactSeniority  *string             `json:"contact_seniority,omitempty"`
	ContactDepartment *string             `json:"contact_department,omitempty"`
	ContactLinkedIn   *string             `json:"contact_linkedin,omitempty"`
	CompanySize       *string             `json:"company_size,omitempty"`
	Industry          *string             `json:"industry,omitempty"`
	Website           string              `json:"website"`
	PagesCrawled      int                 `json:"pages_crawled"`
}

// EnrichJobRequest is sent to the crawl worker to start a lookup.
type EnrichJobRequest struct {
	BusinessID   string `json:"business_id"`
	BusinessName string `json:"business_name"`
	Website      string `json:"website,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
}
