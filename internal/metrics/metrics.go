// Package metrics exposes Prometheus collectors for the insight service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal          *prometheus.CounterVec
	credentialsInvalidatedTotal prometheus.Counter
	poolExhaustedTotal          prometheus.Counter
	fallbackServedTotal         prometheus.Counter
	summaryFailuresTotal        prometheus.Counter
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec
	ownerRateLimitDelaySeconds  prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_fetch_attempts_total",
				Help: "Total fetch attempts, labeled by normalized outcome.",
			},
			[]string{"outcome"},
		)

		credentialsInvalidatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_credentials_invalidated_total",
				Help: "Total credentials retired by the circuit breaker.",
			},
		)

		poolExhaustedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_pool_exhausted_total",
				Help: "Total selections that found no active credential.",
			},
		)

		fallbackServedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_fallback_served_total",
				Help: "Total requests answered with stand-in content.",
			},
		)

		summaryFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_summary_failures_total",
				Help: "Total summarization calls that returned an error.",
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

		ownerRateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "insight_owner_rate_limit_delay_seconds",
				Help:    "Histogram of per-owner rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchAttempt increments the attempt counter for the given outcome.
func ObserveFetchAttempt(outcome string) {
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCredentialInvalidated increments the invalidation counter.
func ObserveCredentialInvalidated() {
	credentialsInvalidatedTotal.Inc()
}

// ObservePoolExhausted increments the pool-exhausted counter.
func ObservePoolExhausted() {
	poolExhaustedTotal.Inc()
}

// ObserveFallbackServed increments the fallback counter.
func ObserveFallbackServed() {
	fallbackServedTotal.Inc()
}

// ObserveSummaryFailure increments the summarization failure counter.
func ObserveSummaryFailure() {
	summaryFailuresTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveOwnerRateLimitDelay records the duration of an owner rate limit wait.
func ObserveOwnerRateLimitDelay(duration time.Duration) {
	ownerRateLimitDelaySeconds.Observe(duration.Seconds())
}
