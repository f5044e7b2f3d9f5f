// Package metrics exposes ledger, HTTP and backup counters in the Prometheus
// text format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kas/internal/core"
	"kas/internal/ledger"
)

const namespace = "kas"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	revision   prometheus.Gauge
	records    *prometheus.GaugeVec
	balance    prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
	backups      *prometheus.CounterVec
}

var _ ledger.Recorder = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_revision",
			Help:      "Number of commits since the process started.",
		}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_records",
			Help:      "Records held by the ledger by kind.",
		}, []string{"kind"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_balance",
			Help:      "All-time income minus expenses, in whole currency units.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backup pushes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
	m.registry.MustRegister(
		m.operations, m.revision, m.records, m.balance,
		m.httpRequests, m.httpDuration, m.cacheLookups, m.backups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Operation counts a ledger operation under the outcome derived from err.
func (m *Metrics) Operation(name string, err error) {
	m.operations.WithLabelValues(name, Outcome(err)).Inc()
}

func (m *Metrics) Committed(revision int64, t ledger.TotalsView) {
	m.revision.Set(float64(revision))
	m.records.WithLabelValues("members").Set(float64(t.Members))
	m.records.WithLabelValues("payments").Set(float64(t.Payments))
	m.records.WithLabelValues("expenses").Set(float64(t.Expenses))
	m.balance.Set(float64(t.Balance))
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Backup(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backups.WithLabelValues(sink, outcome).Inc()
}

// Outcome classifies an operation error for labelling.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case core.IsValidation(err):
		return "validation"
	case core.IsNotFound(err):
		return "not_found"
	case core.IsImport(err):
		return "import"
	case core.IsPersistence(err):
		return "persistence"
	default:
		return "error"
	}
}
