// ============================================================================
// print-batcher Metrics - Prometheus instrumentation
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Count optimizer and min/max calls and describe the plans produced
//
// Metrics:
//
//   1. Counters:
//      - printbatch_optimize_requests_total{result}: optimize calls (ok / invalid)
//      - printbatch_jobs_scheduled_total: jobs placed into batches
//      - printbatch_batches_formed_total: batches produced
//      - printbatch_oversized_jobs_total: jobs larger than max_volume
//      - printbatch_minmax_requests_total{result}: min/max calls (ok / invalid)
//
//   2. Histograms:
//      - printbatch_plan_total_time: total_time of each plan
//      - printbatch_batch_items: jobs per batch
//      - printbatch_optimize_duration_seconds: time spent in Optimize
//
// Example queries:
//
//   # average jobs per batch over 5m
//   rate(printbatch_batch_items_sum[5m]) / rate(printbatch_batch_items_count[5m])
//
//   # rejected optimize calls
//   rate(printbatch_optimize_requests_total{result="invalid"}[5m])
//
// A nil *Collector is valid and records nothing, so callers can run with
// metrics disabled without branching.
//
// ============================================================================

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/print-batcher/pkg/types"
)

const (
	resultOK      = "ok"
	resultInvalid = "invalid"
)

// Collector holds the printbatch Prometheus metrics.
type Collector struct {
	optimizeRequests *prometheus.CounterVec
	jobsScheduled    prometheus.Counter
	batchesFormed    prometheus.Counter
	oversizedJobs    prometheus.Counter
	minmaxRequests   *prometheus.CounterVec

	planTotalTime    prometheus.Histogram
	batchItems       prometheus.Histogram
	optimizeDuration prometheus.Histogram
}

// NewCollector creates the metrics and registers them on reg.
// It panics if they are already registered there.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		optimizeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printbatch_optimize_requests_total",
			Help: "Total number of optimize calls by result",
		}, []string{"result"}),
		jobsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printbatch_jobs_scheduled_total",
			Help: "Total number of jobs placed into batches",
		}),
		batchesFormed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printbatch_batches_formed_total",
			Help: "Total number of batches formed",
		}),
		oversizedJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printbatch_oversized_jobs_total",
			Help: "Total number of jobs whose volume exceeded max_volume",
		}),
		minmaxRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printbatch_minmax_requests_total",
			Help: "Total number of min/max calls by result",
		}, []string{"result"}),
		planTotalTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "printbatch_plan_total_time",
			Help:    "Total print time of each optimized plan",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		}),
		batchItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "printbatch_batch_items",
			Help:    "Number of jobs in each batch",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		optimizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "printbatch_optimize_duration_seconds",
			Help:    "Time spent computing a batch plan in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.optimizeRequests,
		c.jobsScheduled,
		c.batchesFormed,
		c.oversizedJobs,
		c.minmaxRequests,
		c.planTotalTime,
		c.batchItems,
		c.optimizeDuration,
	)

	return c
}

// RecordOptimize records a successful plan.
func (c *Collector) RecordOptimize(res types.Result, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.optimizeRequests.WithLabelValues(resultOK).Inc()
	c.jobsScheduled.Add(float64(len(res.PrintOrder)))
	c.batchesFormed.Add(float64(len(res.Batches)))
	c.planTotalTime.Observe(res.TotalTime)
	c.optimizeDuration.Observe(elapsed.Seconds())

	for _, b := range res.Batches {
		c.batchItems.Observe(float64(b.Len()))
		if b.Oversized {
			c.oversizedJobs.Inc()
		}
	}
}

// RecordOptimizeError records an optimize call rejected for invalid input.
func (c *Collector) RecordOptimizeError() {
	if c == nil {
		return
	}
	c.optimizeRequests.WithLabelValues(resultInvalid).Inc()
}

// RecordMinMax records a min/max call.
func (c *Collector) RecordMinMax(ok bool) {
	if c == nil {
		return
	}
	result := resultOK
	if !ok {
		result = resultInvalid
	}
	c.minmaxRequests.WithLabelValues(result).Inc()
}
