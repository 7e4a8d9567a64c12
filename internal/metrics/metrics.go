// Package metrics holds the prometheus instruments of the invoice pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded on invoice and rate lookup counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics exposes application-level instruments. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	invoicesProcessed  *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
	rateLookups        *prometheus.CounterVec
	summaryFailed      prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers the instruments on a private registry. The handler also
// serves the default registry, which carries the Go runtime and process
// collectors and the gorm database pool collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, prometheus.Gatherers{reg, prometheus.DefaultGatherer})
}

// NewWithRegistry registers the instruments on registerer and serves them from gatherer.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		invoicesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicehub_invoices_processed_total",
			Help: "Uploaded documents by recognizer source and outcome.",
		}, []string{"source", "outcome", "kind"}),
		processingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "invoicehub_invoice_processing_seconds",
			Help:    "Time from upload to persisted invoice.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"source"}),
		rateLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicehub_rate_lookups_total",
			Help: "Exchange rate lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		summaryFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "invoicehub_summary_failed_records",
			Help: "Records excluded from the last computed summary.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicehub_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "invoicehub_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		m.invoicesProcessed,
		m.processingDuration,
		m.rateLookups,
		m.summaryFailed,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveInvoice records one processed upload. kind is the failure kind, or "" on success.
func (m *Metrics) ObserveInvoice(source, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	if source == "" {
		source = "unknown"
	}
	m.invoicesProcessed.WithLabelValues(source, outcome, kind).Inc()
	m.processingDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRateLookup records one exchange rate lookup.
func (m *Metrics) ObserveRateLookup(provider string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.rateLookups.WithLabelValues(provider, outcome).Inc()
}

// SetSummaryFailed records the failed-record count of the latest summary.
func (m *Metrics) SetSummaryFailed(n int) {
	if m == nil {
		return
	}
	m.summaryFailed.Set(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
