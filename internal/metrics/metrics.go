// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the auth counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics contains the englishhub collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	LoginAttempts    *prometheus.CounterVec
	PasswordChanges  *prometheus.CounterVec
	ContentMutations *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics bound to a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetrics(reg)
}

// NewMetrics creates and registers the englishhub collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englishhub_login_attempts_total",
				Help: "Admin login attempts by result",
			},
			[]string{"result"},
		),
		PasswordChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englishhub_password_changes_total",
				Help: "Admin password change attempts by result",
			},
			[]string{"result"},
		),
		ContentMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englishhub_content_mutations_total",
				Help: "Catalog writes by operation",
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englishhub_http_requests_total",
				Help: "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "englishhub_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.PasswordChanges, m.ContentMutations, m.HTTPRequests, m.HTTPDuration)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveLogin counts a login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// ObservePasswordChange counts a password change attempt.
func (m *Metrics) ObservePasswordChange(result string) {
	if m == nil {
		return
	}
	m.PasswordChanges.WithLabelValues(result).Inc()
}

// ObserveContentMutation counts a catalog write.
func (m *Metrics) ObserveContentMutation(operation string) {
	if m == nil {
		return
	}
	m.ContentMutations.WithLabelValues(operation).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
