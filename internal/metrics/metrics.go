// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeSuccess labels audits that produced a report.
const OutcomeSuccess = "success"

var (
	auditsTotal                *prometheus.CounterVec
	auditDurationSeconds       prometheus.Histogram
	fetchBytesTotal            prometheus.Counter
	fetchTruncatedTotal        prometheus.Counter
	issuesTotal                *prometheus.CounterVec
	rateLimitedTotal           prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		auditsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepulse_audits_total",
				Help: "Total number of audits, labeled by outcome (success or error code).",
			},
			[]string{"outcome"},
		)

		auditDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitepulse_audit_duration_seconds",
				Help:    "Histogram of end-to-end audit latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 6, 10},
			},
		)

		fetchBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_fetch_bytes_total",
				Help: "Total number of HTML bytes captured by the fetcher.",
			},
		)

		fetchTruncatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_fetch_truncated_total",
				Help: "Total number of fetches truncated at the byte cap.",
			},
		)

		issuesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepulse_issues_total",
				Help: "Total number of issues derived, labeled by issue id.",
			},
			[]string{"id"},
		)

		rateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_rate_limited_total",
				Help: "Total number of audit requests rejected by the throttle.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAudit records one finished audit.
func ObserveAudit(outcome string, duration time.Duration) {
	auditsTotal.WithLabelValues(outcome).Inc()
	auditDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetch records the captured body size and truncation state.
func ObserveFetch(bytesFetched int, truncated bool) {
	if bytesFetched > 0 {
		fetchBytesTotal.Add(float64(bytesFetched))
	}
	if truncated {
		fetchTruncatedTotal.Inc()
	}
}

// ObserveIssues increments the per-rule issue counters.
func ObserveIssues(ids []string) {
	for _, id := range ids {
		issuesTotal.WithLabelValues(id).Inc()
	}
}

// ObserveRateLimited counts a throttled request.
func ObserveRateLimited() {
	rateLimitedTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, routePattern, rec.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
