package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
)

const (
	workerName       = "linkedin_worker"
	workerEnrichPath = "/enrich"
)

// WorkerPoster posts JSON payloads to worker endpoints.
type WorkerPoster interface {
	PostJSON(ctx context.Context, path string, payload any, requestID string) (map[string]any, error)
}

// WorkerClient talks to the crawl worker over HTTP.
type WorkerClient struct {
	client  HTTPClient
	baseURL string
}

// NewWorkerClient builds a worker client. With a nil client it tries an ID
// token client for audience (or the base URL) and falls back to a plain
// client when no Google credentials are available.
func NewWorkerClient(ctx context.Context, client HTTPClient, workerBaseURL, audience string) (*WorkerClient, error) {
	workerBaseURL = strings.TrimRight(strings.TrimSpace(workerBaseURL), "/")
	if workerBaseURL == "" {
		return nil, eris.New("worker base URL must not be empty")
	}
	if audience == "" {
		audience = workerBaseURL
	}
	if client == nil {
		idc, err := idtoken.NewClient(ctx, audience)
		if err != nil {
			zap.L().Warn("worker id token unavailable, using unauthenticated client", zap.Error(err))
			client = &http.Client{Timeout: defaultTimeout}
		} else {
			client = idc
		}
	}
	return &WorkerClient{client: client, baseURL: workerBaseURL}, nil
}

// PostJSON posts the payload to the worker and returns the "data" object.
func (c *WorkerClient) PostJSON(ctx context.Context, path string, payload any, requestID string) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "marshal worker payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "create worker request")
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "worker request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("worker error: %s", extractWorkerError(resp.Body))
	}

	var workerResp struct {
		Data  map[string]any `json:"data"`
		Error string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&workerResp); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "decode worker response")
	}
	if workerResp.Error != "" {
		return nil, eris.Errorf("worker error: %s", workerResp.Error)
	}
	return workerResp.Data, nil
}

func extractWorkerError(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "worker returned an error"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return truncate(string(data), 200)
}

// LinkedInWorker asks the crawl worker for the lead's key contact. The
// worker either answers inline or queues the job and posts the result back
// to /enrich-result later.
type LinkedInWorker struct {
	poster WorkerPoster
}

// NewLinkedInWorker wraps a worker poster as an enrichment client.
func NewLinkedInWorker(poster WorkerPoster) *LinkedInWorker {
	return &LinkedInWorker{poster: poster}
}

// Name implements Client.
func (w *LinkedInWorker) Name() string {
	return workerName
}

type workerContact struct {
	ContactName       string `json:"contact_name"`
	ContactPosition   string `json:"contact_position"`
	ContactSeniority  string `json:"contact_seniority"`
	ContactDepartment string `json:"contact_department"`
	ContactLinkedIn   string `json:"contact_linkedin"`
	CompanyLinkedIn   string `json:"linkedin_url"`
	CompanySize       string `json:"company_size"`
	Industry          string `json:"industry"`
}

// Enrich implements Client.
func (w *LinkedInWorker) Enrich(ctx context.Context, record *entity.BusinessRecord) Result {
	job := dto.EnrichJobRequest{BusinessID: record.ID.String()}
	if record.NormalizedBusinessName != nil {
		job.BusinessName = *record.NormalizedBusinessName
	} else if record.BusinessName != nil {
		job.BusinessName = *record.BusinessName
	}
	if job.BusinessName == "" {
		return failure(eris.New("linkedin worker: business name is missing"))
	}
	if record.Website != nil {
		job.Website = strings.TrimSpace(*record.Website)
	}
	if record.City != nil {
		job.City = *record.City
	}
	if record.Country != nil {
		job.Country = *record.Country
	}

	data, err := w.poster.PostJSON(ctx, workerEnrichPath, job, requestIDFrom(ctx))
	if err != nil {
		return failure(err)
	}
	if len(data) == 0 {
		return noMatch()
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return failure(eris.Wrap(err, "linkedin worker: re-encode data"))
	}
	var contact workerContact
	if err := json.Unmarshal(raw, &contact); err != nil {
		return failure(eris.Wrap(err, "linkedin worker: decode contact"))
	}

	patch := &entity.BusinessPatch{Industry: optional(contact.Industry)}
	patch.ContactName = optional(contact.ContactName)
	patch.ContactPosition = optional(contact.ContactPosition)
	patch.ContactSeniority = optional(contact.ContactSeniority)
	patch.ContactDepartment = optional(contact.ContactDepartment)
	patch.ContactLinkedIn = optional(contact.ContactLinkedIn)
	patch.LinkedInURL = optional(contact.CompanyLinkedIn)
	patch.CompanySize = optional(contact.CompanySize)
	if isEmpty(patch) {
		return noMatch()
	}
	return success(patch)
}

type requestIDKey struct{}

// WithRequestID tags ctx so worker calls carry the caller's request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

var (
	_ WorkerPoster = (*WorkerClient)(nil)
	_ Client       = (*LinkedInWorker)(nil)
	_ Client       = (*Hunter)(nil)
	_ Client       = (*Places)(nil)
	_ Client       = (*Clearbit)(nil)
	_ Client       = (*Apollo)(nil)
)

