// Package metrics provides Prometheus metrics for the supervisor and the frontend server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	processUp       *prometheus.GaugeVec
	processStarts   *prometheus.CounterVec
	processExits    *prometheus.CounterVec
	processRestarts *prometheus.CounterVec
	backendReady    *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	proxyErrors         prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		processUp: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hsdesk_process_up",
				Help: "Whether a supervised backend process is running (1) or not (0)",
			},
			[]string{"process"},
		),
		processStarts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hsdesk_process_starts_total",
				Help: "Total number of backend process launches",
			},
			[]string{"process", "result"},
		),
		processExits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hsdesk_process_exits_total",
				Help: "Total number of backend process exits by status",
			},
			[]string{"process", "status"},
		),
		processRestarts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hsdesk_process_restarts_total",
				Help: "Total number of automatic restarts after a failure",
			},
			[]string{"process"},
		),
		backendReady: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hsdesk_backend_ready_seconds",
				Help:    "Time from launch until the backend answered its health check",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"process"},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hsdesk_http_requests_total",
				Help: "Total number of HTTP requests served by the frontend server",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hsdesk_http_request_duration_seconds",
				Help:    "Frontend server request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		proxyErrors: f.NewCounter(
			prometheus.CounterOpts{
				Name: "hsdesk_proxy_errors_total",
				Help: "Total number of API requests the backend could not serve",
			},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordStart records a launch attempt.
func (m *Metrics) RecordStart(process string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.processStarts.WithLabelValues(process, result).Inc()
	if ok {
		m.processUp.WithLabelValues(process).Set(1)
	}
}

// RecordExit records how a process ended.
func (m *Metrics) RecordExit(process, status string) {
	m.processUp.WithLabelValues(process).Set(0)
	m.processExits.WithLabelValues(process, status).Inc()
}

func (m *Metrics) RecordRestart(process string) {
	m.processRestarts.WithLabelValues(process).Inc()
}

func (m *Metrics) RecordReady(process string, d time.Duration) {
	m.backendReady.WithLabelValues(process).Observe(d.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordProxyError() {
	m.proxyErrors.Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request metrics. route maps a request to a low-cardinality label.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)
			m.RecordHTTPRequest(r.Method, route(r), rw.statusCode, time.Since(start))
		})
	}
}
