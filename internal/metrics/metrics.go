// Package metrics exposes Prometheus instrumentation for the definition
// service and the submission pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DefinitionsCreated counts definitions accepted by the builder.
	DefinitionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobforge_definitions_created_total",
		Help: "Number of workflow definitions validated and stored.",
	})

	// ValidationFailures counts rejected definitions by error code.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobforge_validation_failures_total",
		Help: "Number of definitions rejected by local validation, by error code.",
	}, []string{"code"})

	// Submissions counts terminal submission outcomes.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobforge_submissions_total",
		Help: "Number of Jobs API submissions by terminal outcome.",
	}, []string{"outcome"})

	// SubmissionRetries counts re-queued submissions after retryable
	// upstream failures.
	SubmissionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobforge_submission_retries_total",
		Help: "Number of submissions re-queued after a retryable upstream failure.",
	})

	// JobsAPIRequestDuration observes create-job round trips against the
	// remote Jobs API, by response status.
	JobsAPIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobforge_jobs_api_request_duration_seconds",
		Help:    "Jobs API create-job request latency by status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	// HTTPRequestDuration observes the HTTP API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobforge_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Middleware records request duration for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
