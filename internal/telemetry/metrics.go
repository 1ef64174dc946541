// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the battery service.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Range query outcomes.
const (
	RangeOutcomeMatched = "matched"
	RangeOutcomeEmpty   = "empty"
	RangeOutcomeInvalid = "invalid"
	RangeOutcomeError   = "error"
)

const unmatchedRoute = "unmatched"

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	rangeQueries  *prometheus.CounterVec
	rangeMatches  prometheus.Histogram
	batteriesMade prometheus.Counter
}

// NewMetrics registers the service collectors on reg. A nil reg gets a fresh
// registry. Collectors already present in reg are reused.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{registry: reg}

	requests, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpp",
		Subsystem: "battery",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"}))
	if err != nil {
		return nil, err
	}
	latency, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vpp",
		Subsystem: "battery",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"}))
	if err != nil {
		return nil, err
	}
	rangeQueries, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpp",
		Subsystem: "battery",
		Name:      "range_queries_total",
		Help:      "Battery range queries by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	rangeMatches, err := registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vpp",
		Subsystem: "battery",
		Name:      "range_query_matches",
		Help:      "Number of batteries matched by successful range queries.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}))
	if err != nil {
		return nil, err
	}
	created, err := registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vpp",
		Subsystem: "battery",
		Name:      "batteries_created_total",
		Help:      "Batteries registered since start.",
	}))
	if err != nil {
		return nil, err
	}
	if _, err := registerOrReuse(reg, collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if _, err := registerOrReuse(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	m.requests = requests
	m.latency = latency
	m.rangeQueries = rangeQueries
	m.rangeMatches = rangeMatches
	m.batteriesMade = created
	return m, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// RecordRangeQuery counts one range query and, when it matched, the number of
// batteries returned. Safe on a nil receiver.
func (m *Metrics) RecordRangeQuery(outcome string, matches int) {
	if m == nil {
		return
	}
	m.rangeQueries.WithLabelValues(outcome).Inc()
	if outcome == RangeOutcomeMatched {
		m.rangeMatches.Observe(float64(matches))
	}
}

// RecordBatteryCreated counts a stored battery. Safe on a nil receiver.
func (m *Metrics) RecordBatteryCreated() {
	if m == nil {
		return
	}
	m.batteriesMade.Inc()
}
