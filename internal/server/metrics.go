package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferrum_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferrum_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	documentsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferrum_documents_saved_total",
			Help: "Total number of document saves",
		},
		[]string{"status"},
	)

	documentsMissingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ferrum_documents_missing_total",
			Help: "Total number of loads for documents that do not exist",
		},
	)

	bytesUploadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ferrum_upload_bytes_total",
			Help: "Total bytes received through uploadFile",
		},
	)

	configPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferrum_config_pushes_total",
			Help: "Total number of setConfig calls",
		},
		[]string{"status"},
	)

	streamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ferrum_sysinfo_streams_active",
			Help: "Number of open sysinfo stream connections",
		},
	)
)

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// metricsHandler returns the Prometheus metrics HTTP handler
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument counts and times requests to one endpoint
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		httpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
