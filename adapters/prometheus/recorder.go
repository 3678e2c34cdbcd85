// Package prometheus exports Deliverect operation metrics through
// prometheus/client_golang.
package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-deliverect/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deliverect"

var operationLabels = []string{"operation", "status", "resource", "event_type"}

// Recorder implements core.MetricsRecorder. Names emitted by core.Observer
// ("deliverect.<op>.total", "deliverect.<op>.duration_ms") fold into two
// vectors labelled by operation.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	recorder := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Deliverect operations by outcome.",
		}, operationLabels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_ms",
			Help:      "Deliverect operation latency in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, operationLabels),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Inbound HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Inbound HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	recorder.registry.MustRegister(
		recorder.operations,
		recorder.durations,
		recorder.requests,
		recorder.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return recorder
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	r.operations.WithLabelValues(labelValues(name, ".total", tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.durations.WithLabelValues(labelValues(name, ".duration_ms", tags)...).Observe(value)
}

// Middleware counts inbound requests handled by next.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, req)
		status := strconv.Itoa(rw.status)
		r.requests.WithLabelValues(req.Method, req.URL.Path, status).Inc()
		r.latency.WithLabelValues(req.Method, req.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

func labelValues(name string, suffix string, tags map[string]string) []string {
	operation := strings.TrimSpace(tags["operation"])
	if operation == "" {
		operation = strings.TrimSuffix(strings.TrimPrefix(name, core.MetricPrefix), suffix)
	}
	return []string{
		operation,
		tags["status"],
		tags["resource"],
		tags["event_type"],
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

var _ core.MetricsRecorder = (*Recorder)(nil)
