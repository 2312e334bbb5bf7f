// Package metrics exports pool, request and retry activity as Prometheus metrics
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jzx17/gofetch/pkg/fetch"
	"github.com/jzx17/gofetch/pkg/pool"
	"github.com/jzx17/gofetch/pkg/retry"
)

const namespace = "gofetch"

var durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

var (
	_ pool.Observer      = (*Collector)(nil)
	_ fetch.Observer     = (*Collector)(nil)
	_ retry.EventHandler = (*Collector)(nil)
)

// Collector holds all Prometheus metrics
type Collector struct {
	// Pool metrics
	TasksInFlight prometheus.Gauge
	TasksTotal    *prometheus.CounterVec

	// HTTP metrics
	AttemptsTotal   *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Retry metrics
	RetriesTotal  prometheus.Counter
	RetryOutcomes *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		TasksInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_tasks_in_flight",
				Help:      "Number of pool tasks currently running",
			},
		),
		TasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_tasks_total",
				Help:      "Total number of finished pool tasks",
			},
			[]string{"result"},
		),

		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_attempts_total",
				Help:      "Total number of HTTP attempts",
			},
			[]string{"method", "status", "code"},
		),
		AttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_attempt_duration_seconds",
				Help:      "HTTP attempt duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"method"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of logical HTTP requests",
			},
			[]string{"method", "result"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Logical HTTP request duration in seconds, retries included",
				Buckets:   durationBuckets,
			},
			[]string{"method"},
		),

		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retry attempts",
			},
		),
		RetryOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_outcomes_total",
				Help:      "Outcomes of operations that needed more than one attempt or failed",
			},
			[]string{"outcome"},
		),
	}
}

// TaskStarted implements pool.Observer
func (c *Collector) TaskStarted() {
	c.TasksInFlight.Inc()
}

// TaskFinished implements pool.Observer
func (c *Collector) TaskFinished(err error) {
	c.TasksInFlight.Dec()
	c.TasksTotal.WithLabelValues(result(err)).Inc()
}

// ObserveAttempt implements fetch.Observer
func (c *Collector) ObserveAttempt(method string, statusCode int, code string, duration time.Duration) {
	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}
	c.AttemptsTotal.WithLabelValues(method, status, code).Inc()
	c.AttemptDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveRequest implements fetch.Observer
func (c *Collector) ObserveRequest(method string, err error, duration time.Duration) {
	c.RequestsTotal.WithLabelValues(method, result(err)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// OnRetryAttempt implements retry.EventHandler
func (c *Collector) OnRetryAttempt(ctx context.Context, attempt int, err error) {
	c.RetriesTotal.Inc()
}

// OnRetrySuccess implements retry.EventHandler
func (c *Collector) OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration) {
	c.RetryOutcomes.WithLabelValues("recovered").Inc()
}

// OnRetryFailure implements retry.EventHandler
func (c *Collector) OnRetryFailure(ctx context.Context, attempt int, err error) {
	c.RetryOutcomes.WithLabelValues("terminal").Inc()
}

// OnMaxAttemptsReached implements retry.EventHandler
func (c *Collector) OnMaxAttemptsReached(ctx context.Context, attempt int, err error) {
	c.RetryOutcomes.WithLabelValues("exhausted").Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
