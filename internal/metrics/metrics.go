// Package metrics exposes Prometheus counters for the HTTP surface and the
// template services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"docbuilder/internal/domain"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docbuilder"

// Metrics implements domain.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	storageOps       *prometheus.CounterVec
	storageRecovered prometheus.Counter
	imports          *prometheus.CounterVec
	exports          *prometheus.CounterVec
	commands         *prometheus.CounterVec
	sessions         prometheus.Gauge
	compliance       *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
}

var _ domain.Metrics = (*Metrics)(nil)

// New creates and registers every collector on reg. A nil reg gets a fresh
// registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Template storage operations by result",
		}, []string{"op", "result"}),
		storageRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_recovered_total",
			Help:      "Corrupt storage envelopes replaced with an empty one",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_imports_total",
			Help:      "Template imports by source and result",
		}, []string{"source", "result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_exports_total",
			Help:      "Template exports by format",
		}, []string{"format"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_commands_total",
			Help:      "Editor commands applied by result",
		}, []string{"op", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_sessions_active",
			Help:      "Open editor sessions",
		}),
		compliance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compliance_requests_total",
			Help:      "Requests to the compliance service by outcome",
		}, []string{"op", "outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_webhooks_total",
			Help:      "Sync webhook deliveries by event and result",
		}, []string{"event", "result"}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpDuration, m.storageOps, m.storageRecovered,
		m.imports, m.exports, m.commands, m.sessions, m.compliance, m.webhooks,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) StorageOperation(op string, err error) {
	m.storageOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) StorageRecovered() {
	m.storageRecovered.Inc()
}

func (m *Metrics) TemplateImported(source string, success bool) {
	r := "ok"
	if !success {
		r = "error"
	}
	m.imports.WithLabelValues(source, r).Inc()
}

func (m *Metrics) TemplateExported(format string) {
	m.exports.WithLabelValues(format).Inc()
}

func (m *Metrics) EditorCommand(op string, err error) {
	m.commands.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) SessionsActive(n int) {
	m.sessions.Set(float64(n))
}

func (m *Metrics) ComplianceRequest(op string, outcome string) {
	m.compliance.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) WebhookDelivery(event string, success bool) {
	r := "ok"
	if !success {
		r = "error"
	}
	m.webhooks.WithLabelValues(event, r).Inc()
}

// Middleware records request counts and latency per route template, so
// ids in paths do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
