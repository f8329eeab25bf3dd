// Package metrics exposes engine counters on a dependency-injected
// Prometheus registry. A nil *Set is a valid no-op so the engine never
// branches on whether metrics are wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles every collector the engine and adjuster report into.
type Set struct {
	Classifications  *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      prometheus.Counter
	Degraded         prometheus.Counter
	Evaluations      prometheus.Counter
	EvalErrors       prometheus.Counter
	SamplesDropped   prometheus.CounterFunc
	WeightsPublished prometheus.Counter
	Latency          prometheus.Histogram
}

// New registers all collectors on reg. droppedFn reports the cumulative
// learning-sample drop count owned by the queue.
func New(reg prometheus.Registerer, droppedFn func() float64) *Set {
	s := &Set{
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualitygate_classifications_total",
			Help: "Classifications by resulting severity.",
		}, []string{"severity"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualitygate_cache_hits_total",
			Help: "Cache hits by layer (skip, result).",
		}, []string{"layer"}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualitygate_cache_misses_total",
			Help: "Lookups that missed every input-keyed cache layer.",
		}),
		Degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualitygate_degraded_verdicts_total",
			Help: "Verdicts truncated by budget exhaustion.",
		}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualitygate_patterns_evaluated_total",
			Help: "Individual pattern evaluations performed.",
		}),
		EvalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualitygate_pattern_eval_errors_total",
			Help: "Pattern evaluations that failed and were treated as non-matches.",
		}),
		WeightsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualitygate_weights_published_total",
			Help: "Weight updates published by the background adjuster.",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "qualitygate_classify_seconds",
			Help: "Classify latency.",
			// Budgets are sub-millisecond; buckets resolve from 50µs up.
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0015, .0025, .005, .01},
		}),
	}
	if droppedFn != nil {
		s.SamplesDropped = prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "qualitygate_learning_samples_dropped_total",
			Help: "Learning samples dropped because the queue was full.",
		}, droppedFn)
	}

	if reg != nil {
		reg.MustRegister(
			s.Classifications, s.CacheHits, s.CacheMisses, s.Degraded,
			s.Evaluations, s.EvalErrors, s.WeightsPublished, s.Latency,
		)
		if s.SamplesDropped != nil {
			reg.MustRegister(s.SamplesDropped)
		}
	}
	return s
}

// ObserveClassification records one finished classification.
func (s *Set) ObserveClassification(severity string, seconds float64, degraded bool) {
	if s == nil {
		return
	}
	s.Classifications.WithLabelValues(severity).Inc()
	s.Latency.Observe(seconds)
	if degraded {
		s.Degraded.Inc()
	}
}

// IncCacheHit records a hit on the named layer.
func (s *Set) IncCacheHit(layer string) {
	if s == nil {
		return
	}
	s.CacheHits.WithLabelValues(layer).Inc()
}

// IncCacheMiss records a full lookup miss.
func (s *Set) IncCacheMiss() {
	if s == nil {
		return
	}
	s.CacheMisses.Inc()
}

// AddEvaluations records pattern evaluations performed in one call.
func (s *Set) AddEvaluations(n int) {
	if s == nil || n == 0 {
		return
	}
	s.Evaluations.Add(float64(n))
}

// IncEvalError records a pattern evaluation failure.
func (s *Set) IncEvalError() {
	if s == nil {
		return
	}
	s.EvalErrors.Inc()
}

// AddWeightsPublished records adjuster publications.
func (s *Set) AddWeightsPublished(n int) {
	if s == nil || n == 0 {
		return
	}
	s.WeightsPublished.Add(float64(n))
}
