package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edubloom/study-planner-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the planner.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	planGenerated *prometheus.CounterVec
	planFallback  *prometheus.CounterVec
	planDuration  prometheus.Histogram
	cardReviews   *prometheus.CounterVec
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

	planGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_generation_total",
		Help: "Study plans generated, by source",
	}, []string{"source"})

	planFallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_fallback_total",
		Help: "Generation-service failures recovered by the fallback allocator, by reason",
	}, []string{"reason"})

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_generation_duration_seconds",
		Help:    "End-to-end plan generation latency",
		Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 45, 60},
	})

	cardReviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flashcard_reviews_total",
		Help: "Flashcard reviews graded, by grade",
	}, []string{"grade"})

	registry.MustRegister(requestDuration, requestTotal, planGenerated, planFallback, planDuration, cardReviews)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		planGenerated:   planGenerated,
		planFallback:    planFallback,
		planDuration:    planDuration,
		cardReviews:     cardReviews,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// Middleware records request counts and latency per route.
func (m *MetricsService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// PlanGenerated records one finished generation attempt.
func (m *MetricsService) PlanGenerated(source models.PlanSource, elapsed time.Duration) {
	m.planGenerated.WithLabelValues(string(source)).Inc()
	m.planDuration.Observe(elapsed.Seconds())
}

// FallbackUsed records a draft rejection recovered by the allocator.
func (m *MetricsService) FallbackUsed(reason string) {
	m.planFallback.WithLabelValues(reason).Inc()
}

// CardReviewed records one graded flashcard review.
func (m *MetricsService) CardReviewed(grade string) {
	m.cardReviews.WithLabelValues(grade).Inc()
}
