package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 30, 60, 90},
		},
		[]string{"method", "endpoint"},
	)

	OracleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "LLM oracle calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	OracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of LLM oracle calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"purpose"},
	)

	FallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_fallback_total",
			Help: "Generated tests that used fallback bank content",
		},
		[]string{"variant", "reason"},
	)

	GradeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_grade_outcomes_total",
			Help: "Per-answer grading terminal states",
		},
		[]string{"variant", "state"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(OracleRequests)
		prometheus.MustRegister(OracleDuration)
		prometheus.MustRegister(FallbackCounter)
		prometheus.MustRegister(GradeOutcomes)
	})
}

func ObserveOracleCall(purpose, outcome string, elapsed time.Duration) {
	OracleRequests.WithLabelValues(purpose, outcome).Inc()
	OracleDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func RecordFallback(variant, reason string) {
	FallbackCounter.WithLabelValues(variant, reason).Inc()
}

func RecordGradeOutcome(variant, state string) {
	GradeOutcomes.WithLabelValues(variant, state).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
