package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// AnalysisCount counts analysis runs by outcome
	AnalysisCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagiarism_analyses_total",
			Help: "Total number of plagiarism analysis runs",
		},
		[]string{"status"},
	)

	// AnalysisDuration measures a full batch analysis
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plagiarism_analysis_duration_seconds",
			Help:    "Plagiarism analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	// PairsReported counts flagged pairs across all runs
	PairsReported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plagiarism_pairs_reported_total",
			Help: "Total number of submission pairs reported above threshold",
		},
	)

	// FilesUploaded counts stored notebooks by source
	FilesUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagiarism_files_uploaded_total",
			Help: "Total number of notebooks stored",
		},
		[]string{"source"},
	)

	registerOnce sync.Once
)

// InitPrometheus registers every collector with the default registry
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AnalysisCount)
		prometheus.MustRegister(AnalysisDuration)
		prometheus.MustRegister(PairsReported)
		prometheus.MustRegister(FilesUploaded)
	})
}

// Handler returns Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request count and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCount.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
