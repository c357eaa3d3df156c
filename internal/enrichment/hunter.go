package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	hunterName           = "hunter"
	defaultHunterBaseURL = "https://api.hunter.io/v2"
	hunterDomainLimit    = 10
)

// Hunter verifies the lead's email and searches its domain for contacts.
type Hunter struct {
	httpProvider
}

// NewHunter builds a Hunter.io client.
func NewHunter(apiKey string, opts ...Option) *Hunter {
	return &Hunter{httpProvider: newHTTPProvider(apiKey, defaultHunterBaseURL, opts)}
}

// Name implements Client.
func (h *Hunter) Name() string {
	return hunterName
}

type hunterVerification struct {
	Data struct {
		Status string `json:"status"`
		Result string `json:"result"`
		Score  *int   `json:"score"`
	} `json:"data"`
}

type hunterDomainSearch struct {
	Data struct {
		Organization string        `json:"organization"`
		Industry     string        `json:"industry"`
		Headcount    string        `json:"headcount"`
		LinkedIn     string        `json:"linkedin"`
		Twitter      string        `json:"twitter"`
		Facebook     string        `json:"facebook"`
		Instagram    string        `json:"instagram"`
		Emails       []hunterEmail `json:"emails"`
	} `json:"data"`
	Meta struct {
		Results int `json:"results"`
	} `json:"meta"`
}

type hunterEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	Seniority  string `json:"seniority"`
	Department string `json:"department"`
	LinkedIn   string `json:"linkedin"`
	Twitter    string `json:"twitter"`
}

// Enrich verifies a known email and runs a domain search when a company
// domain is available. A failure in one lookup does not discard the other.
func (h *Hunter) Enrich(ctx context.Context, record *entity.BusinessRecord) Result {
	email := emailOf(record)
	domain := leadDomain(record)
	if email == "" && domain == "" {
		return failure(eris.New("hunter: no email or domain to look up"))
	}

	patch := &entity.BusinessPatch{}
	var errs []error

	if email != "" {
		if err := h.verify(ctx, email, patch); err != nil {
			errs = append(errs, err)
		}
	}
	if domain != "" {
		if err := h.searchDomain(ctx, domain, patch); err != nil && !errors.Is(err, errNotFound) {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 && isEmpty(patch) {
		return failure(errors.Join(errs...))
	}
	if isEmpty(patch) {
		return noMatch()
	}
	return success(patch)
}

func (h *Hunter) verify(ctx context.Context, email string, patch *entity.BusinessPatch) error {
	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", h.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/email-verifier?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create verifier request")
	}

	var out hunterVerification
	if err := h.getJSON(req, hunterName, &out); err != nil {
		return err
	}

	patch.HunterVerificationStatus = optional(out.Data.Status)
	patch.HunterDeliverability = optional(out.Data.Result)
	patch.HunterConfidence = out.Data.Score
	return nil
}

func (h *Hunter) searchDomain(ctx context.Context, domain string, patch *entity.BusinessPatch) error {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", h.apiKey)
	q.Set("limit", strconv.Itoa(hunterDomainLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/domain-search?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create domain search request")
	}

	var out hunterDomainSearch
	if err := h.getJSON(req, hunterName, &out); err != nil {
		return err
	}

	d := out.Data
	count := out.Meta.Results
	if count == 0 {
		count = len(d.Emails)
	}
	patch.HunterEmailsCount = &count
	patch.Industry = optional(d.Industry)
	patch.CompanySize = optional(d.Headcount)
	patch.LinkedInURL = socialURL("https://www.linkedin.com/company/", d.LinkedIn)
	patch.TwitterURL = socialURL("https://twitter.com/", d.Twitter)
	patch.FacebookURL = socialURL("https://www.facebook.com/", d.Facebook)
	patch.InstagramURL = socialURL("https://www.instagram.com/", d.Instagram)

	if contact, ok := bestContact(d.Emails); ok {
		patch.Email = optional(contact.Value)
		patch.ContactName = optional(strings.TrimSpace(contact.FirstName + " " + contact.LastName))
		patch.ContactPosition = optional(contact.Position)
		patch.ContactSeniority = optional(contact.Seniority)
		patch.ContactDepartment = optional(contact.Department)
		patch.ContactLinkedIn = optional(contact.LinkedIn)
		patch.ContactTwitter = socialURL("https://twitter.com/", contact.Twitter)
	}
	return nil
}

// bestContact prefers personal addresses, then higher confidence, within
// the first hunterDomainLimit results.
func bestContact(emails []hunterEmail) (hunterEmail, bool) {
	if len(emails) > hunterDomainLimit {
		emails = emails[:hunterDomainLimit]
	}
	best, found := hunterEmail{}, false
	for _, e := range emails {
		if strings.TrimSpace(e.Value) == "" {
			continue
		}
		switch {
		case !found:
		case e.Type == "personal" && best.Type != "personal":
		case e.Type == best.Type && e.Confidence > best.Confidence:
		default:
			continue
		}
		best, found = e, true
	}
	return best, found
}

func emailOf(record *entity.BusinessRecord) string {
	if record.NormalizedEmail != nil {
		return *record.NormalizedEmail
	}
	if record.Email != nil {
		return strings.ToLower(strings.TrimSpace(*record.Email))
	}
	return ""
}
