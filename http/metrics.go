package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

// Metrics holds the router's Prometheus collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bucketgate_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bucketgate_http_request_duration_seconds",
			Help:    "HTTP request latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bucketgate_cache_lookups_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
	}
	for _, result := range []string{lookupHit, lookupMiss, lookupError} {
		m.cacheLookups.WithLabelValues(result)
	}
	return m
}

// Middleware counts requests and observes their latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		method := methodLabel(r.Method)
		m.requests.WithLabelValues(method, strconv.Itoa(statusOf(ww))).Inc()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) cacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// methodLabel bounds label cardinality; arbitrary methods collapse to OTHER.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "OTHER"
	}
}
