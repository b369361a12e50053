package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
)

// Metrics holds the Prometheus collectors of the HTTP surface.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	challenges prometheus.Counter
	logins     *prometheus.CounterVec
	guard      *prometheus.CounterVec
}

// NewMetrics creates the collectors on a dedicated registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletauth_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "walletauth_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		challenges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletauth_challenges_issued_total",
			Help: "Number of sign-in challenges issued",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletauth_logins_total",
			Help: "Sign-in attempts by result",
		}, []string{"result"}),
		guard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletauth_session_guard_decisions_total",
			Help: "Session guard outcomes",
		}, []string{"decision"}),
	}

	m.registry.MustRegister(m.requests, m.duration, m.challenges, m.logins, m.guard)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observeChallenge() {
	if m == nil {
		return
	}
	m.challenges.Inc()
}

func (m *Metrics) observeLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) observeGuard(decision service.GuardDecision) {
	if m == nil {
		return
	}
	m.guard.WithLabelValues(decision.String()).Inc()
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, core.ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, core.ErrChallengeExpired):
		return "challenge_expired"
	case errors.Is(err, core.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, core.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}
