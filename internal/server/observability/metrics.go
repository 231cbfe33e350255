// Package observability holds the Prometheus collectors exported by the
// server on /metrics.
package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Auth flows.
const (
	FlowRegister = "register"
	FlowLogin    = "login"
	FlowRefresh  = "refresh"
	FlowLogout   = "logout"
)

// Auth results.
const (
	ResultSuccess      = "success"
	ResultRejected     = "rejected"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// AuthRequests counts auth flow outcomes.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "postboard_auth_requests_total",
		Help: "Total number of auth flow invocations by outcome",
	},
	[]string{"flow", "result"},
)

// RefreshReuse counts presented refresh tokens that were valid but no longer
// on file.
var RefreshReuse = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "postboard_refresh_token_reuse_total",
		Help: "Total number of rotated-out refresh tokens presented",
	},
)

// HTTPRequests counts handled HTTP requests.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "postboard_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "code"},
)

// HTTPDuration observes HTTP handler latency.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "postboard_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// RegisterMetrics registers the server collectors. Panics if registration
// fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthRequests)
	reg.MustRegister(RefreshReuse)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
}

// ResultFor classifies an auth flow error.
func ResultFor(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, common.ErrorUnauthorized):
		return ResultUnauthorized
	case errors.Is(err, common.ErrorBadRequest):
		return ResultRejected
	default:
		return ResultError
	}
}

// RecordAuth increments AuthRequests for flow with the outcome of err.
func RecordAuth(flow string, err error) {
	AuthRequests.WithLabelValues(flow, ResultFor(err)).Inc()
}

func RecordRefreshReuse() {
	RefreshReuse.Inc()
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route string, code int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
