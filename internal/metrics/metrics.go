// Package metrics exposes Prometheus counters for storage writes, session
// transitions and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

const namespace = "gestao"

type Metrics struct {
	registry *prometheus.Registry

	StorageWrites      *prometheus.CounterVec
	SessionTransitions *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	Backups            *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StorageWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_writes_total",
			Help:      "Storage mutations by area and operation.",
		}, []string{"area", "op"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state changes.",
		}, []string{"from", "to"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups written, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StorageWrites,
		m.SessionTransitions,
		m.HTTPRequests,
		m.HTTPDuration,
		m.Backups,
	)
	return m
}

// ObserveStore counts every mutation n reports until the returned func is called.
func (m *Metrics) ObserveStore(n engine.Notifier) (unsubscribe func()) {
	return n.Subscribe(func(ev engine.StorageEvent) {
		op := "set"
		if ev.NewValue == "" {
			op = "remove"
		}
		m.StorageWrites.WithLabelValues(ev.Area, op).Inc()
	})
}

// SessionTransition records a state change.
func (m *Metrics) SessionTransition(from, to string) {
	m.SessionTransitions.WithLabelValues(from, to).Inc()
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Backup records a backup attempt.
func (m *Metrics) Backup(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Backups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
