package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestRecordIngestion(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordIngestion("ingest", StatusSuccess)
	m.RecordIngestion("ingest", StatusSuccess)
	m.RecordIngestion("reprocess", StatusNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues("ingest", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues("reprocess", StatusNotFound)))
}

func TestRecordOrphanedVersion(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordOrphanedVersion()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrphanedVersions))
}

func TestRecordDiff(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDiff(StatusSuccess, 3*time.Millisecond, 4, 10)
	m.RecordDiff(StatusNotFound, time.Millisecond, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiffsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiffsTotal.WithLabelValues(StatusNotFound)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DiffDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DiffEntries))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordHTTPRequest("GET", "/api/v1/documents/:id", 404, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/documents/:id", "404")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIngestion("ingest", StatusSuccess)
		m.RecordOrphanedVersion()
		m.RecordDiff(StatusSuccess, time.Millisecond, 1, 1)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}
