// Package metrics exposes Prometheus collectors for the HTTP layer and the
// marketplace operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "garderoba"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.002, 2, 12),
	}, []string{"method", "route"})

	favoriteToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "items",
		Name:      "favorite_toggles_total",
		Help:      "Favorite toggles by resulting state.",
	}, []string{"state"})

	interests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "items",
		Name:      "interests_total",
		Help:      "Interest requests by outcome.",
	}, []string{"outcome"})

	exchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exchanges",
		Name:      "completed_total",
		Help:      "Exchange attempts by outcome.",
	}, []string{"outcome"})

	pointsTransferred = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exchanges",
		Name:      "points_transferred_total",
		Help:      "Points moved between users by completed exchanges.",
	})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"route"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		favoriteToggles,
		interests,
		exchanges,
		pointsTransferred,
		rateLimited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency. Requests are labelled
// by their ServeMux pattern so item IDs do not explode label cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordFavorite counts a favorite toggle.
func RecordFavorite(favorited bool) {
	state := "removed"
	if favorited {
		state = "added"
	}
	favoriteToggles.WithLabelValues(state).Inc()
}

// RecordInterest counts an interest request. outcome is one of "created",
// "duplicate", "unavailable" and "error".
func RecordInterest(outcome string) {
	interests.WithLabelValues(outcome).Inc()
}

// RecordExchange counts an exchange attempt and, when it completed, the
// points it moved.
func RecordExchange(outcome string, points int) {
	exchanges.WithLabelValues(outcome).Inc()
	if outcome == "completed" && points > 0 {
		pointsTransferred.Add(float64(points))
	}
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
