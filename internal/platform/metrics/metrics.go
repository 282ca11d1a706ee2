package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process registry and the transport-level series. Domain
// packages register their own collectors on Registry.
type Metrics struct {
	Registry    *prometheus.Registry
	HTTPLatency *prometheus.HistogramVec
	Sessions    *prometheus.CounterVec

	AuditEntries    *prometheus.CounterVec
	OutboxPublished prometheus.Counter
	OutboxLag       prometheus.Gauge
}

// New creates a registry with the Go and process collectors installed.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxdesk_sessions_total",
			Help: "Sign-in outcomes",
		}, []string{"outcome"}),
		AuditEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxdesk_audit_entries_total",
			Help: "Audit entries recorded by action category",
		}, []string{"category"}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "taxdesk_audit_outbox_published_total",
			Help: "Audit outbox records delivered to the broker",
		}),
		OutboxLag: f.NewGauge(prometheus.GaugeOpts{
			Name: "taxdesk_audit_outbox_lag_seconds",
			Help: "Seconds between commit and publication of the newest relayed record",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) IncrementSession(outcome string) {
	m.Sessions.WithLabelValues(outcome).Inc()
}
