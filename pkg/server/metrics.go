package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// outcomes of the request dispatching
const (
	outcomeMatched     = "matched"
	outcomeNotFound    = "not_found"
	outcomeMalformed   = "malformed_body"
	outcomeUnavailable = "unavailable"
	outcomeRejected    = "rejected"
	outcomeError       = "error"
)

type metrics struct {
	registry *prometheus.Registry

	httpReqs *prometheus.CounterVec
	httpDur  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		httpReqs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "restmock",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "restmock",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "restmock",
				Name:      "dispatch_total",
				Help:      "Dispatched requests by outcome",
			},
			[]string{"method", "outcome"},
		),
	}

	m.registry.MustRegister(m.httpReqs, m.httpDur, m.outcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// observe counts the outcome of a dispatched request, nil-safe.
func (m *metrics) observe(method, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(method, outcome).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		m.httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		m.httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
