package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/leadscan/internal/alert"
	"github.com/octobees/leadscan/internal/service"
)

type capturingSender struct {
	messages []alert.Message
}

func (s *capturingSender) Name() string { return "capture" }

func (s *capturingSender) Send(ctx context.Context, msg alert.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func newAdminHandler(p *pipeline, dispatcher *alert.Dispatcher) *AdminHandler {
	return NewAdminHandler(p.leads, p.processor, p.enrich, dispatcher)
}

func TestAdminHandler_UploadCSV(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		req, rec := jsonRequest(t, http.MethodPost, "/admin/upload-csv", nil)
		require.NoError(t, newAdminHandler(newPipeline(), nil).UploadCSV(echo.New().NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing name column", func(t *testing.T) {
		req, rec := multipartRequest(t, "file", "leads.csv", "email,phone\na@b.com,1\n")
		require.NoError(t, newAdminHandler(newPipeline(), nil).UploadCSV(echo.New().NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeResponse(t, rec, nil).Message, "business_name")
	})

	t.Run("success", func(t *testing.T) {
		p := newPipeline()
		req, rec := multipartRequest(t, "file", "leads.csv", "Company,Email\nAcme,info@acme.com\n,orphan@x.com\nGlobex,sales@globex.com\n")
		require.NoError(t, newAdminHandler(p, nil).UploadCSV(echo.New().NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)

		var summary service.UploadSummary
		decodeResponse(t, rec, &summary)
		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 2, summary.Created)
		assert.Equal(t, 1, summary.Failed)
		assert.Len(t, p.repo.records, 2)
	})
}

func TestAdminHandler_ProcessBatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/process-batch", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, newAdminHandler(newPipeline(), nil).ProcessBatch(echo.New().NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary service.BatchSummary
	decodeResponse(t, rec, &summary)
	assert.Equal(t, service.BatchSummary{}, summary)
}

func TestAdminHandler_DispatchAlerts(t *testing.T) {
	t.Run("no channels", func(t *testing.T) {
		req, rec := jsonRequest(t, http.MethodPost, "/admin/dispatch-alerts", nil)
		require.NoError(t, newAdminHandler(newPipeline(), nil).DispatchAlerts(echo.New().NewContext(req, rec)))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("delivers pending alerts", func(t *testing.T) {
		p := newPipeline()
		_, err := p.processor.Process(context.Background(), service.BusinessInput{
			BusinessName: strPtr("Harper & Cole Law"),
			BusinessType: strPtr("Law Firm"),
			Email:        strPtr("jane@harpercole.com"),
			Phone:        strPtr("+1 415 555 2671"),
			Website:      strPtr("https://www.harpercole.com"),
			Industry:     strPtr("Legal"),
			City:         strPtr("San Francisco"),
		}, nil)
		require.NoError(t, err)
		require.Len(t, p.alerts.created, 1)

		sender := &capturingSender{}
		dispatcher := alert.NewDispatcher(p.alerts, p.repo, sender, "US")

		req, rec := jsonRequest(t, http.MethodPost, "/admin/dispatch-alerts", map[string]int{"limit": 10})
		require.NoError(t, newAdminHandler(p, dispatcher).DispatchAlerts(echo.New().NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)

		var summary alert.Summary
		decodeResponse(t, rec, &summary)
		assert.Equal(t, alert.Summary{Sent: 1}, summary)
		require.Len(t, sender.messages, 1)
		assert.Contains(t, sender.messages[0].HTML, "Harper &amp; Cole Law")
	})
}

func TestAdminHandler_EnrichBatchWithoutProviders(t *testing.T) {
	req, rec := jsonRequest(t, http.MethodPost, "/admin/enrich-batch", nil)
	require.NoError(t, newAdminHandler(newPipeline(), nil).EnrichBatch(echo.New().NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func strPtr(s string) *string { return &s }
