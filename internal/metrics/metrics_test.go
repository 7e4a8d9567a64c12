package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestObserveInvoice(t *testing.T) {
	m := newTestMetrics()

	m.ObserveInvoice("pdf", "", time.Second)
	m.ObserveInvoice("pdf", "", time.Second)
	m.ObserveInvoice("qr", "missing_field", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invoicesProcessed.WithLabelValues("pdf", OutcomeSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invoicesProcessed.WithLabelValues("qr", OutcomeFailure, "missing_field")))
}

func TestObserveRateLookup(t *testing.T) {
	m := newTestMetrics()

	m.ObserveRateLookup("fixed", nil)
	m.ObserveRateLookup("exchangerate-api", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLookups.WithLabelValues("fixed", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLookups.WithLabelValues("exchangerate-api", OutcomeFailure)))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveInvoice("pdf", "", time.Second)
		m.ObserveRateLookup("fixed", nil)
		m.SetSummaryFailed(3)
		m.ObserveHTTP(http.MethodGet, "/invoices", http.StatusOK, time.Millisecond)
	})
}

func TestHandlerExposesInstruments(t *testing.T) {
	m := newTestMetrics()
	m.SetSummaryFailed(2)
	m.ObserveHTTP(http.MethodGet, "/summary", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "invoicehub_summary_failed_records 2")
	assert.Contains(t, body, `invoicehub_http_requests_total{method="GET",route="/summary",status="200"} 1`)
}
