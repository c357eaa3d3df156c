// Package enrichment wraps third-party data providers behind one contract:
// given a lead, return a partial record that can be merged onto it.
package enrichment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/service/identity"
)

const defaultTimeout = 10 * time.Second

// Result is what every provider returns. Data is nil when the provider had
// nothing to add; Error is set when the call failed.
type Result struct {
	Success bool                  `json:"success"`
	Data    *entity.BusinessPatch `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Client is implemented by every provider.
type Client interface {
	Name() string
	Enrich(ctx context.Context, record *entity.BusinessRecord) Result
}

// HTTPClient abstracts http.Client for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the HTTP based providers.
type Option func(*httpProvider)

// WithBaseURL overrides the provider's API base URL.
func WithBaseURL(url string) Option {
	return func(p *httpProvider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(client HTTPClient) Option {
	return func(p *httpProvider) {
		if client != nil {
			p.http = client
		}
	}
}

type httpProvider struct {
	apiKey  string
	baseURL string
	http    HTTPClient
}

func newHTTPProvider(apiKey, baseURL string, opts []Option) httpProvider {
	p := httpProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// errNotFound marks a provider answer that has no data for the lead.
var errNotFound = eris.New("no match")

// getJSON performs req and decodes a 200 answer into out. 404 maps to
// errNotFound.
func (p httpProvider) getJSON(req *http.Request, provider string, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s: send request", provider)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "%s: read response", provider)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("%s: unexpected status %d: %s", provider, resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: unmarshal response", provider)
	}
	return nil
}

func success(patch *entity.BusinessPatch) Result {
	return Result{Success: true, Data: patch}
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}

// noMatch is a successful call that found nothing to merge.
func noMatch() Result {
	return Result{Success: true}
}

// leadDomain picks the domain a company lookup should use.
func leadDomain(record *entity.BusinessRecord) string {
	email := record.NormalizedEmail
	if email == nil {
		email = record.Email
	}
	if d := identity.DomainSource(record.Website, email); d != nil {
		return *d
	}
	return ""
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func socialURL(prefix, handle string) *string {
	handle = strings.Trim(strings.TrimSpace(handle), "/")
	if handle == "" {
		return nil
	}
	if strings.HasPrefix(handle, "http://") || strings.HasPrefix(handle, "https://") {
		return &handle
	}
	url := prefix + handle
	return &url
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func isEmpty(p *entity.BusinessPatch) bool {
	return p == nil || *p == (entity.BusinessPatch{})
}
