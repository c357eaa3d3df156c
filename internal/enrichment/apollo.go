package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	apolloName           = "apollo"
	defaultApolloBaseURL = "https://api.apollo.io/api/v1"
)

// Apollo enriches the organization behind a lead's domain.
type Apollo struct {
	httpProvider
}

// NewApollo builds an Apollo.io organization enrichment client.
func NewApollo(apiKey string, opts ...Option) *Apollo {
	return &Apollo{httpProvider: newHTTPProvider(apiKey, defaultApolloBaseURL, opts)}
}

// Name implements Client.
func (a *Apollo) Name() string {
	return apolloName
}

type apolloResponse struct {
	Organization *struct {
		Name                  string `json:"name"`
		Industry              string `json:"industry"`
		EstimatedNumEmployees int    `json:"estimated_num_employees"`
		AnnualRevenuePrinted  string `json:"annual_revenue_printed"`
		FoundedYear           *int   `json:"founded_year"`
		LinkedInURL           string `json:"linkedin_url"`
		TwitterURL            string `json:"twitter_url"`
		FacebookURL           string `json:"facebook_url"`
		Phone                 string `json:"phone"`
		WebsiteURL            string `json:"website_url"`
		City                  string `json:"city"`
		State                 string `json:"state"`
		Country               string `json:"country"`
	} `json:"organization"`
}

// Enrich calls /organizations/enrich for the lead's domain.
func (a *Apollo) Enrich(ctx context.Context, record *entity.BusinessRecord) Result {
	domain := leadDomain(record)
	if domain == "" {
		return failure(eris.New("apollo: no company domain"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/organizations/enrich?domain="+url.QueryEscape(domain), nil)
	if err != nil {
		return failure(eris.Wrap(err, "apollo: create request"))
	}
	req.Header.Set("X-Api-Key", a.apiKey)
	req.Header.Set("Cache-Control", "no-cache")

	var out apolloResponse
	if err := a.getJSON(req, apolloName, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return noMatch()
		}
		return failure(err)
	}
	org := out.Organization
	if org == nil {
		return noMatch()
	}

	patch := &entity.BusinessPatch{
		Industry: optional(org.Industry),
		Phone:    optional(org.Phone),
		Website:  optional(org.WebsiteURL),
		City:     optional(org.City),
		State:    optional(org.State),
		Country:  optional(org.Country),
	}
	if org.EstimatedNumEmployees > 0 {
		patch.CompanySize = optional(strconv.Itoa(org.EstimatedNumEmployees))
	}
	patch.CompanyRevenue = optional(org.AnnualRevenuePrinted)
	patch.FoundedYear = org.FoundedYear
	patch.LinkedInURL = optional(org.LinkedInURL)
	patch.TwitterURL = optional(org.TwitterURL)
	patch.FacebookURL = optional(org.FacebookURL)
	return success(patch)
}
