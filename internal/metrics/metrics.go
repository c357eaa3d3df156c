// Package metrics holds the Prometheus collectors shared by the pipeline and
// the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Records run through the processor, by mode (create/update/batch) and outcome.
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_records_processed_total",
			Help: "Business records processed by the pipeline",
		},
		[]string{"mode", "outcome"},
	)

	DuplicatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_duplicates_found_total",
			Help: "Records marked duplicate, by matched key",
		},
		[]string{"matched_on"},
	)

	HighPriorityLeads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscan_high_priority_leads_total",
			Help: "Records that scored into the high priority tier",
		},
	)

	// Domain liveness probe outcomes: active, inactive, error, cache_hit.
	DomainProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_domain_probes_total",
			Help: "Domain liveness probe outcomes",
		},
		[]string{"outcome"},
	)

	EnrichmentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_enrichment_calls_total",
			Help: "Enrichment provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_alerts_created_total",
			Help: "Lead alerts recorded",
		},
		[]string{"alert_type"},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscan_alerts_sent_total",
			Help: "Lead alert delivery attempts",
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeActive   = "active"
	OutcomeInactive = "inactive"
	OutcomeCacheHit = "cache_hit"
)
