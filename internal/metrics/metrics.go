// Package metrics exposes prometheus counters for workflow transitions and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"precinct/internal/apperr"
)

// Metrics holds the registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	transitions  *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "precinct_workflow_transitions_total",
			Help: "Workflow state transitions by entity and from/to status.",
		}, []string{"entity", "from", "to"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "precinct_workflow_rejections_total",
			Help: "Rejected workflow operations by entity and error kind.",
		}, []string{"entity", "kind"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "precinct_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "precinct_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Transition counts a successful state change. A nil receiver is a no-op so
// services can run without metrics in tests.
func (m *Metrics) Transition(entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

// Rejection counts an operation that failed with err.
func (m *Metrics) Rejection(entity string, err error) {
	if m == nil || err == nil {
		return
	}
	m.rejections.WithLabelValues(entity, string(apperr.KindOf(err))).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
