// Package metrics exposes the ledger's Prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docledger"

const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusError    = "error"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	IngestionsTotal     *prometheus.CounterVec
	DiffsTotal          *prometheus.CounterVec
	DiffDuration        prometheus.Histogram
	DiffEntries         *prometheus.HistogramVec
	OrphanedVersions    prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IngestionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Ingestion and reprocess requests by outcome",
		}, []string{"operation", "status"}),
		DiffsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diffs_total",
			Help:      "Diff requests by outcome",
		}, []string{"status"}),
		DiffDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diff_duration_seconds",
			Help:      "Time to resolve both versions and compute a diff",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		DiffEntries: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diff_entries",
			Help:      "Entries per diff report by kind",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}, []string{"kind"}),
		OrphanedVersions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_versions_total",
			Help:      "Committed versions whose ingestion job could not be published",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) RecordIngestion(operation, status string) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) RecordOrphanedVersion() {
	if m == nil {
		return
	}
	m.OrphanedVersions.Inc()
}

func (m *Metrics) RecordDiff(status string, elapsed time.Duration, actionItems, chunks int) {
	if m == nil {
		return
	}
	m.DiffsTotal.WithLabelValues(status).Inc()
	if status != StatusSuccess {
		return
	}
	m.DiffDuration.Observe(elapsed.Seconds())
	m.DiffEntries.WithLabelValues("action_items").Observe(float64(actionItems))
	m.DiffEntries.WithLabelValues("chunks").Observe(float64(chunks))
}

func (m *Metrics) RecordHTTPRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
