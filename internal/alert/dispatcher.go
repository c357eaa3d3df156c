package alert

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/metrics"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service/validate"
)

const defaultDispatchLimit = 50

// Summary tallies one dispatch run.
type Summary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// BusinessLookup loads the record an alert refers to.
type BusinessLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BusinessRecord, error)
}

// Dispatcher delivers unsent alerts and marks them sent.
type Dispatcher struct {
	alerts      repository.AlertsRepository
	businesses  BusinessLookup
	sender      Sender
	phoneRegion string
}

// NewDispatcher builds a dispatcher. phoneRegion is used to render phone
// numbers stored without a country code.
func NewDispatcher(alerts repository.AlertsRepository, businesses BusinessLookup, sender Sender, phoneRegion string) *Dispatcher {
	return &Dispatcher{alerts: alerts, businesses: businesses, sender: sender, phoneRegion: phoneRegion}
}

// DispatchPending sends up to limit unsent alerts, oldest first. An alert
// whose delivery fails stays unsent for the next run.
func (d *Dispatcher) DispatchPending(ctx context.Context, limit int) (Summary, error) {
	if limit <= 0 {
		limit = defaultDispatchLimit
	}

	pending, err := d.alerts.ListUnsent(ctx, limit)
	if err != nil {
		return Summary{}, eris.Wrap(err, "list unsent alerts")
	}

	var summary Summary
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "alert dispatch cancelled")
		}
		a := &pending[i]
		log := zap.L().With(
			zap.String("alert_id", a.ID.String()),
			zap.String("business_id", a.BusinessID.String()),
			zap.String("alert_type", a.AlertType),
		)

		record, err := d.businesses.GetByID(ctx, a.BusinessID)
		if err != nil {
			log.Warn("load business for alert", zap.Error(err))
		}

		if err := d.sender.Send(ctx, d.Render(a, record)); err != nil {
			summary.Failed++
			metrics.AlertsSent.WithLabelValues(metrics.OutcomeError).Inc()
			log.Error("alert delivery failed", zap.Error(err))
			continue
		}
		if err := d.alerts.MarkSent(ctx, a.ID); err != nil {
			summary.Failed++
			metrics.AlertsSent.WithLabelValues(metrics.OutcomeError).Inc()
			log.Error("mark alert sent", zap.Error(err))
			continue
		}
		summary.Sent++
		metrics.AlertsSent.WithLabelValues(metrics.OutcomeOK).Inc()
	}

	zap.L().Info("alert dispatch finished", zap.Int("sent", summary.Sent), zap.Int("failed", summary.Failed))
	return summary, nil
}

// Render formats an alert with whatever is known about the business.
func (d *Dispatcher) Render(a *entity.LeadAlert, record *entity.BusinessRecord) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(a.Message))

	if record != nil {
		line := func(label string, value *string) {
			if value != nil && strings.TrimSpace(*value) != "" {
				fmt.Fprintf(&b, "%s: %s\n", label, html.EscapeString(*value))
			}
		}
		line("Business", firstSet(record.NormalizedBusinessName, record.BusinessName))
		line("Segment", record.ServiceSegment)
		line("Email", firstSet(record.NormalizedEmail, record.Email))
		if record.Phone != nil {
			phone := validate.FormatE164(*record.Phone, d.phoneRegion)
			line("Phone", &phone)
		}
		line("Website", record.Website)
		line("City", record.City)
		line("Contact", record.ContactName)
		if record.RelevanceScore != nil {
			fmt.Fprintf(&b, "Relevance: %d/100\n", *record.RelevanceScore)
		}
		if record.EnhancedScore != nil {
			fmt.Fprintf(&b, "Enhanced: %d/100\n", *record.EnhancedScore)
		}
	}
	fmt.Fprintf(&b, "Lead ID: <code>%s</code>", a.BusinessID)

	return Message{
		Subject: fmt.Sprintf("[%s] %s", strings.ToUpper(a.Priority), a.Message),
		HTML:    b.String(),
	}
}

func firstSet(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}
