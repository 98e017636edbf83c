// Package metrics exposes Prometheus collectors for the tutor core. Methods are
// safe on a nil *Metrics so callers can run with metrics disabled.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// Session metrics
	AttemptsTotal     *prometheus.CounterVec
	MasteryTransition *prometheus.CounterVec
	AttemptDuration   prometheus.Histogram

	// Scheduling metrics
	DueReviews prometheus.Gauge

	// Lifecycle metrics
	TasksCreated         *prometheus.CounterVec
	KnowledgePointsAdded prometheus.Counter
	TasksCompleted       prometheus.Counter

	// Strategy generation metrics
	StrategyRequests *prometheus.CounterVec
	StrategyLatency  prometheus.Histogram

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics on the default
// registry. Repeated calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			AttemptsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mastery_attempts_total",
					Help: "Total number of recorded review attempts",
				},
				[]string{"result"},
			),
			MasteryTransition: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mastery_level_transitions_total",
					Help: "Knowledge point mastery level changes",
				},
				[]string{"from", "to"},
			),
			AttemptDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mastery_attempt_duration_seconds",
					Help:    "Time to record one attempt, transaction included",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
				},
			),
			DueReviews: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "mastery_due_reviews",
					Help: "Knowledge points returned by the last due-review query",
				},
			),
			TasksCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mastery_tasks_created_total",
					Help: "Total number of tasks created",
				},
				[]string{"subject"},
			),
			KnowledgePointsAdded: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mastery_knowledge_points_added_total",
					Help: "Total number of knowledge points attached to tasks",
				},
			),
			TasksCompleted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mastery_tasks_completed_total",
					Help: "Total number of tasks marked completed",
				},
			),
			StrategyRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mastery_strategy_requests_total",
					Help: "Teaching strategy generation requests to the AI model",
				},
				[]string{"success"},
			),
			StrategyLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mastery_strategy_latency_seconds",
					Help:    "Latency of teaching strategy generation",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~13s
				},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mastery_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mastery_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return sharedMetrics
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAttempt records one attempt and, when the level moved, the transition.
func (m *Metrics) RecordAttempt(result, from, to string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(result).Inc()
	if from != to {
		m.MasteryTransition.WithLabelValues(from, to).Inc()
	}
	m.AttemptDuration.Observe(elapsed.Seconds())
}

// SetDue records the size of the latest due-review result.
func (m *Metrics) SetDue(n int) {
	if m == nil {
		return
	}
	m.DueReviews.Set(float64(n))
}

// RecordTaskCreated counts a new task.
func (m *Metrics) RecordTaskCreated(subject string) {
	if m == nil {
		return
	}
	m.TasksCreated.WithLabelValues(subject).Inc()
}

// RecordKnowledgePointsAdded counts attached knowledge points.
func (m *Metrics) RecordKnowledgePointsAdded(n int) {
	if m == nil {
		return
	}
	m.KnowledgePointsAdded.Add(float64(n))
}

// RecordTaskCompleted counts a task transition to completed.
func (m *Metrics) RecordTaskCompleted() {
	if m == nil {
		return
	}
	m.TasksCompleted.Inc()
}

// RecordStrategyRequest records one call to the AI model.
func (m *Metrics) RecordStrategyRequest(success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	successStr := "false"
	if success {
		successStr = "true"
	}
	m.StrategyRequests.WithLabelValues(successStr).Inc()
	m.StrategyLatency.Observe(elapsed.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
