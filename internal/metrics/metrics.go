// Package metrics holds the daemon's Prometheus collectors. Every method is
// safe to call on a nil *Metrics, so components can run without metrics in
// tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quarterlog"

// Metrics is one registry with the collectors registered on it.
//
// Exposed series:
//   - quarterlog_entries_logged_total{outcome,category}
//   - quarterlog_classifications_total{source}
//   - quarterlog_ai_request_duration_seconds{kind}
//   - quarterlog_reports_generated_total{period,status}
//   - quarterlog_jobs_processed_total{type,status}
//   - quarterlog_http_requests_total{method,route,code}
//   - quarterlog_http_request_duration_seconds{method,route}
type Metrics struct {
	Registry *prometheus.Registry

	EntriesLogged    *prometheus.CounterVec
	Classifications  *prometheus.CounterVec
	AIRequestSeconds *prometheus.HistogramVec
	ReportsGenerated *prometheus.CounterVec
	JobsProcessed    *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPSeconds      *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		EntriesLogged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_logged_total",
			Help:      "Journal entries recorded.",
		}, []string{"outcome", "category"}),
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Entry classifications by where the answer came from.",
		}, []string{"source"}),
		AIRequestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Latency of local model calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"}),
		ReportsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Coach reports generated.",
		}, []string{"period", "status"}),
		JobsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Background jobs finished.",
		}, []string{"type", "status"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "code"}),
		HTTPSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) EntryLogged(outcome, category string) {
	if m == nil {
		return
	}
	m.EntriesLogged.WithLabelValues(outcome, category).Inc()
}

// Classified counts one classification. source is "ai", "heuristic",
// "fallback" or "explicit".
func (m *Metrics) Classified(source string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveAI(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.AIRequestSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) ReportGenerated(period string, err error) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(period, status(err)).Inc()
}

func (m *Metrics) JobProcessed(typ string, err error) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(typ, status(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
