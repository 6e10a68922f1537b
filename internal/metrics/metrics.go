package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry        *prometheus.Registry
	decisions       *prometheus.CounterVec
	storeFailures   *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "second_brain",
			Subsystem: "rate_limit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by category, scope and outcome.",
		}, []string{"category", "scope", "outcome"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "second_brain",
			Subsystem: "rate_limit",
			Name:      "store_failures_total",
			Help:      "Store operations that failed open.",
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "second_brain",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "second_brain",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.storeFailures,
		m.requests,
		m.requestDuration,
	)

	return m
}

func (m *Metrics) RecordDecision(category, scope string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.decisions.WithLabelValues(category, scope, outcome).Inc()
}

func (m *Metrics) RecordStoreFailure(operation string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(latency.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
