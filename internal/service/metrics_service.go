package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/booking-page/internal/models"
)

// Fetch result labels.
const (
	fetchResultOK    = "ok"
	fetchResultError = "error"
)

// Submission outcome labels.
const (
	submitPrevented = "prevented"
	submitForwarded = "forwarded"
	submitFailed    = "failed"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	fetchDuration      prometheus.Observer
	fetchTotal         *prometheus.CounterVec
	staleTotal         prometheus.Counter
	validationFailures *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	activePages        prometheus.Gauge

	requestCount       uint64
	fetchCount         uint64
	fetchFailures      uint64
	fetchDurationTotal uint64
	staleCount         uint64
	preventedCount     uint64
	forwardedCount     uint64
	activePageCount    int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	fetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_fetch_duration_seconds",
		Help:    "Latency of availability reads against the booking backend",
		Buckets: prometheus.DefBuckets,
	})

	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_fetch_total",
		Help: "Availability reads by result",
	}, []string{"result"})

	staleTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_stale_total",
		Help: "Availability responses discarded because a newer date was selected",
	})

	validationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "field_validation_failures_total",
		Help: "Field validation failures by field",
	}, []string{"field"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_submissions_total",
		Help: "Booking form submissions by outcome",
	}, []string{"outcome"})

	activePages := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pages_active",
		Help: "Booking pages currently hosted",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fetchDuration, fetchTotal, staleTotal, validationFailures, submissions, activePages, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		fetchDuration:      fetchDuration,
		fetchTotal:         fetchTotal,
		staleTotal:         staleTotal,
		validationFailures: validationFailures,
		submissions:        submissions,
		activePages:        activePages,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveFetch records one availability read.
func (m *MetricsService) ObserveFetch(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.fetchCount, 1)
	atomic.AddUint64(&m.fetchDurationTotal, uint64(duration.Nanoseconds()))
	if ok {
		m.fetchTotal.WithLabelValues(fetchResultOK).Inc()
		return
	}
	m.fetchTotal.WithLabelValues(fetchResultError).Inc()
	atomic.AddUint64(&m.fetchFailures, 1)
}

// RecordStaleResponse counts a superseded availability response.
func (m *MetricsService) RecordStaleResponse() {
	if m == nil {
		return
	}
	m.staleTotal.Inc()
	atomic.AddUint64(&m.staleCount, 1)
}

// RecordValidationFailure counts a failed field check.
func (m *MetricsService) RecordValidationFailure(field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

// RecordSubmission counts a submit attempt by outcome.
func (m *MetricsService) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	switch outcome {
	case submitPrevented:
		atomic.AddUint64(&m.preventedCount, 1)
	case submitForwarded:
		atomic.AddUint64(&m.forwardedCount, 1)
	}
}

// SetActivePages publishes the number of hosted pages.
func (m *MetricsService) SetActivePages(n int) {
	if m == nil {
		return
	}
	m.activePages.Set(float64(n))
	atomic.StoreInt64(&m.activePageCount, int64(n))
}

// Snapshot returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Snapshot() models.PageHostMetrics {
	if m == nil {
		return models.PageHostMetrics{}
	}
	fetches := atomic.LoadUint64(&m.fetchCount)
	fetchDuration := atomic.LoadUint64(&m.fetchDurationTotal)

	var avgFetchMs float64
	if fetches > 0 {
		avgFetchMs = float64(fetchDuration) / float64(fetches) / float64(time.Millisecond)
	}

	return models.PageHostMetrics{
		ActivePages:            atomic.LoadInt64(&m.activePageCount),
		RequestsTotal:          atomic.LoadUint64(&m.requestCount),
		AvailabilityFetches:    fetches,
		AvailabilityFailures:   atomic.LoadUint64(&m.fetchFailures),
		StaleResponses:         atomic.LoadUint64(&m.staleCount),
		SubmissionsPrevented:   atomic.LoadUint64(&m.preventedCount),
		SubmissionsForwarded:   atomic.LoadUint64(&m.forwardedCount),
		AverageFetchDurationMs: avgFetchMs,
		Goroutines:             runtime.NumGoroutine(),
		GeneratedAt:            time.Now().UTC(),
	}
}
