package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the portal's metrics.
type MetricsService struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	submissionsTotal *prometheus.CounterVec
	reviewsTotal     *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	goroutines prometheus.GaugeFunc
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	s := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "report_portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, path and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_portal",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_portal",
			Name:      "submissions_total",
			Help:      "Submissions created, labelled by report type.",
		}, []string{"report_type"}),
		reviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_portal",
			Name:      "reviews_total",
			Help:      "Review decisions, labelled by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "report_portal",
			Name:      "cache_hits_total",
			Help:      "Dashboard cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "report_portal",
			Name:      "cache_misses_total",
			Help:      "Dashboard cache misses.",
		}),
		goroutines: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "report_portal",
			Name:      "goroutines",
			Help:      "Current goroutine count.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	}

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		s.requestDuration,
		s.requestTotal,
		s.submissionsTotal,
		s.reviewsTotal,
		s.cacheHits,
		s.cacheMisses,
		s.goroutines,
	)
	return s
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if s == nil {
		return
	}
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSubmission counts one created submission.
func (s *MetricsService) RecordSubmission(reportTypeID string) {
	if s == nil {
		return
	}
	s.submissionsTotal.WithLabelValues(reportTypeID).Inc()
}

// RecordReview counts one review decision.
func (s *MetricsService) RecordReview(outcome string) {
	if s == nil {
		return
	}
	s.reviewsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit counts a dashboard cache hit or miss.
func (s *MetricsService) RecordCacheHit(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// Handler exposes the registry for scraping.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
