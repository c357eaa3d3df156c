package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	clearbitName           = "clearbit"
	defaultClearbitBaseURL = "https://company.clearbit.com"
)

// Clearbit looks up firmographics by company domain.
type Clearbit struct {
	httpProvider
}

// NewClearbit builds a Clearbit company API client.
func NewClearbit(apiKey string, opts ...Option) *Clearbit {
	return &Clearbit{httpProvider: newHTTPProvider(apiKey, defaultClearbitBaseURL, opts)}
}

// Name implements Client.
func (c *Clearbit) Name() string {
	return clearbitName
}

type clearbitCompany struct {
	Name     string `json:"name"`
	Category struct {
		Industry string `json:"industry"`
		Sector   string `json:"sector"`
	} `json:"category"`
	Metrics struct {
		EmployeesRange         string `json:"employeesRange"`
		EstimatedAnnualRevenue string `json:"estimatedAnnualRevenue"`
	} `json:"metrics"`
	FoundedYear *int           `json:"foundedYear"`
	LinkedIn    clearbitHandle `json:"linkedin"`
	Twitter     clearbitHandle `json:"twitter"`
	Facebook    clearbitHandle `json:"facebook"`
	Site        clearbitSite   `json:"site"`
	Geo         clearbitGeo    `json:"geo"`
}

type clearbitGeo struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type clearbitHandle struct {
	Handle string `json:"handle"`
}

type clearbitSite struct {
	PhoneNumbers   []string `json:"phoneNumbers"`
	EmailAddresses []string `json:"emailAddresses"`
}

// Enrich calls /v2/companies/find for the lead's domain. Unknown domains
// and queued lookups (202) are a successful empty result.
func (c *Clearbit) Enrich(ctx context.Context, record *entity.BusinessRecord) Result {
	domain := leadDomain(record)
	if domain == "" {
		return failure(eris.New("clearbit: no company domain"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/companies/find?domain="+url.QueryEscape(domain), nil)
	if err != nil {
		return failure(eris.Wrap(err, "clearbit: create request"))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var company clearbitCompany
	if err := c.getJSON(req, clearbitName, &company); err != nil {
		if errors.Is(err, errNotFound) {
			return noMatch()
		}
		return failure(err)
	}
	if company.Name == "" {
		return noMatch()
	}

	industry := company.Category.Industry
	if industry == "" {
		industry = company.Category.Sector
	}
	patch := &entity.BusinessPatch{
		Industry: optional(industry),
		City:     optional(company.Geo.City),
		State:    optional(company.Geo.State),
		Country:  optional(company.Geo.Country),
	}
	patch.CompanySize = optional(company.Metrics.EmployeesRange)
	patch.CompanyRevenue = optional(company.Metrics.EstimatedAnnualRevenue)
	patch.FoundedYear = company.FoundedYear
	patch.LinkedInURL = socialURL("https://www.linkedin.com/", company.LinkedIn.Handle)
	patch.TwitterURL = socialURL("https://twitter.com/", company.Twitter.Handle)
	patch.FacebookURL = socialURL("https://www.facebook.com/", company.Facebook.Handle)
	if len(company.Site.PhoneNumbers) > 0 {
		patch.Phone = optional(company.Site.PhoneNumbers[0])
	}
	if len(company.Site.EmailAddresses) > 0 {
		patch.Email = optional(company.Site.EmailAddresses[0])
	}
	return success(patch)
}
