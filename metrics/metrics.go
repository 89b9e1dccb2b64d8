// Package metrics provides Prometheus collectors for the symdiff
// simplification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IterationBuckets covers fixed-point runs from a single pass to the
// default iteration budget.
var IterationBuckets = []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 1000}

// Recorder holds the pipeline collectors.
type Recorder struct {
	// RuleApplications counts rewrite rule firings by rule name.
	RuleApplications *prometheus.CounterVec
	// ConvergeIterations records passes needed to reach a fixed point.
	ConvergeIterations prometheus.Histogram
	// ConvergeFailures counts simplifications that hit the iteration
	// budget or were cancelled.
	ConvergeFailures prometheus.Counter
	// CacheRequests counts simplification cache lookups by result.
	CacheRequests *prometheus.CounterVec
	// PipelineDuration records the wall time of one pipeline item.
	PipelineDuration prometheus.Histogram
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		RuleApplications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symdiff_rule_applications_total",
				Help: "Rewrite rule applications",
			},
			[]string{"rule"},
		),
		ConvergeIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "symdiff_converge_iterations",
				Help:    "Simplification passes until a fixed point",
				Buckets: IterationBuckets,
			},
		),
		ConvergeFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "symdiff_converge_failures_total",
				Help: "Simplifications that did not reach a fixed point",
			},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symdiff_cache_requests_total",
				Help: "Simplification cache lookups",
			},
			[]string{"result"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "symdiff_pipeline_duration_seconds",
				Help:    "Time to process one expression",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
}

// RecordRule counts one firing of the named rule.
func (r *Recorder) RecordRule(name string) {
	r.RuleApplications.WithLabelValues(name).Inc()
}

// RecordConvergence records a finished simplification.
func (r *Recorder) RecordConvergence(iterations int, err error) {
	if err != nil {
		r.ConvergeFailures.Inc()
		return
	}
	r.ConvergeIterations.Observe(float64(iterations))
}

// RecordCache counts a cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	if hit {
		r.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	r.CacheRequests.WithLabelValues("miss").Inc()
}

// RecordDuration records the processing time of one item in seconds.
func (r *Recorder) RecordDuration(seconds float64) {
	r.PipelineDuration.Observe(seconds)
}
