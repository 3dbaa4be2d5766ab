package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP surface
var (
	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kpoint_gateway_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpoint_gateway_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kpoint_gateway_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Upstream KPOINT API
var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpoint_upstream_requests_total",
			Help: "Requests sent to the KPOINT API by auth mode and status.",
		},
		[]string{"method", "mode", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kpoint_upstream_request_duration_seconds",
			Help:    "KPOINT API request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "mode"},
	)

	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpoint_bearer_token_refresh_total",
			Help: "Bearer credential exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	challengeMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kpoint_challenge_tokens_minted_total",
		Help: "Sealed challenge tokens minted.",
	})

	catalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpoint_catalog_cache_lookups_total",
			Help: "Remote catalog cache lookups by result.",
		},
		[]string{"result"},
	)
)

// StatusNetworkError labels upstream calls that never produced a response.
const StatusNetworkError = "network_error"

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveUpstream(method, mode, status string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(method, mode, status).Inc()
	upstreamRequestDuration.WithLabelValues(method, mode).Observe(elapsed.Seconds())
}

// TokenRefresh records a bearer exchange; outcome is "success" or "failure".
func TokenRefresh(outcome string) {
	tokenRefreshTotal.WithLabelValues(outcome).Inc()
}

func ChallengeMinted() {
	challengeMintedTotal.Inc()
}

func CatalogCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	catalogCacheTotal.WithLabelValues(result).Inc()
}

// Instrument measures in-flight count, totals and latency per route
// pattern. The pattern is read after the handler runs so mux matching has
// already happened.
func Instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := NewStatusWriter(w)
		next(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
	}
}

// StatusWriter remembers the status code written through it.
type StatusWriter struct {
	http.ResponseWriter
	code int
}

func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	if sw, ok := w.(*StatusWriter); ok {
		return sw
	}
	return &StatusWriter{ResponseWriter: w, code: http.StatusOK}
}

func (w *StatusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Status() int { return w.code }

func (w *StatusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
