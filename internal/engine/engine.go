// Package engine orchestrates the pattern store, tier budget controller,
// and cache hierarchy into a single synchronous classification call with a
// soft deadline. Nothing on this path blocks on the background weight
// adjuster: the only shared state is an immutable store snapshot and the
// bounded, non-blocking sample queue.
package engine

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/qualitygate/qualitygate/internal/budget"
	"github.com/qualitygate/qualitygate/internal/cache"
	"github.com/qualitygate/qualitygate/internal/learning"
	"github.com/qualitygate/qualitygate/internal/metrics"
	"github.com/qualitygate/qualitygate/internal/normalize"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

// DefaultMaxEvalLen is the evaluation-length ceiling: longer inputs are
// condensed (head + risk-keyword windows + tail) before matching.
const DefaultMaxEvalLen = 8192

// ultraActivationMultiplier scales an ULTRA_CRITICAL pattern's weight into
// its activation check: weight × multiplier ≥ 1.0 establishes an
// unconditional block and stops the scan early (complete, not degraded).
const ultraActivationMultiplier = 1.25

// Engine classifies one input at a time; calls are independent and may run
// concurrently. Each call sees one consistent store snapshot.
type Engine struct {
	store      *pattern.Store
	controller *budget.Controller
	caches     *cache.Hierarchy[Verdict]
	queue      *learning.Queue
	metrics    *metrics.Set

	maxEvalLen int
	warnf      func(format string, args ...any)

	evaluations atomic.Int64
	group       singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithBudget overrides the tier budget limits.
func WithBudget(limits budget.Limits) Option {
	return func(e *Engine) { e.controller = budget.NewController(limits) }
}

// WithCacheCapacity sets the per-layer entry bound for the input-keyed
// caches.
func WithCacheCapacity(n int) Option {
	return func(e *Engine) {
		if h, err := cache.New[Verdict](n); err == nil {
			e.caches = h
		}
	}
}

// WithQueue injects the learning sample queue shared with the adjuster.
func WithQueue(q *learning.Queue) Option {
	return func(e *Engine) { e.queue = q }
}

// WithMetrics wires a metrics set. Nil is valid and means no-op.
func WithMetrics(m *metrics.Set) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxEvalLen sets the evaluation-length ceiling.
func WithMaxEvalLen(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxEvalLen = n
		}
	}
}

// WithWarnf routes per-pattern evaluation failures to a logger.
func WithWarnf(fn func(format string, args ...any)) Option {
	return func(e *Engine) { e.warnf = fn }
}

// New builds an engine around a pattern store.
func New(store *pattern.Store, opts ...Option) (*Engine, error) {
	caches, err := cache.New[Verdict](cache.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		store:      store,
		controller: budget.NewController(budget.DefaultLimits()),
		caches:     caches,
		queue:      learning.NewQueue(learning.DefaultQueueCapacity),
		maxEvalLen: DefaultMaxEvalLen,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.caches.SetVersion(store.Version())
	return e, nil
}

// Queue returns the learning sample queue (for wiring the adjuster).
func (e *Engine) Queue() *learning.Queue { return e.queue }

// Store returns the pattern store.
func (e *Engine) Store() *pattern.Store { return e.store }

// Evaluations returns the cumulative count of individual pattern
// evaluations. Cache hits perform zero evaluations.
func (e *Engine) Evaluations() int64 { return e.evaluations.Load() }

// ReloadPatterns replaces the pattern set. Safe to call concurrently with
// in-flight Classify calls: readers keep their snapshot, and the version
// bump logically invalidates every input-keyed cache entry.
func (e *Engine) ReloadPatterns(defs []pattern.Definition) (int64, []pattern.Excluded, error) {
	version, excluded, err := e.store.Load(defs)
	if err != nil {
		return version, excluded, err
	}
	e.caches.SetVersion(version)
	return version, excluded, nil
}

// Classify produces a verdict for one input. It returns within the overall
// budget plus bounded slack; budget exhaustion degrades the verdict, it
// never errors.
func (e *Engine) Classify(ctx context.Context, text string) Verdict {
	return e.classify(ctx, text, nil)
}

// ClassifyFiltered restricts evaluation to the given tiers (a hint from
// the host). Filtered calls bypass the input-keyed caches both ways: a
// partial verdict must not shadow or poison full ones.
func (e *Engine) ClassifyFiltered(ctx context.Context, text string, tiers []pattern.Tier) Verdict {
	if len(tiers) == 0 {
		return e.classify(ctx, text, nil)
	}
	filter := make(map[pattern.Tier]bool, len(tiers))
	for _, t := range tiers {
		filter[t] = true
	}
	return e.classify(ctx, text, filter)
}

func (e *Engine) classify(_ context.Context, text string, filter map[pattern.Tier]bool) Verdict {
	start := time.Now()
	fp := cache.Fingerprint(text)

	if filter == nil {
		if e.caches.LookupSkip(fp) {
			e.metrics.IncCacheHit(CacheLayerSkip)
			v := Verdict{
				Severity:   SeverityNone,
				Elapsed:    time.Since(start),
				CacheLayer: CacheLayerSkip,
				Version:    e.caches.Version(),
			}
			e.metrics.ObserveClassification(string(v.Severity), time.Since(start).Seconds(), false)
			return v
		}
		if v, ok := e.caches.LookupResult(fp); ok {
			e.metrics.IncCacheHit(CacheLayerResult)
			v.CacheLayer = CacheLayerResult
			v.Elapsed = time.Since(start)
			e.metrics.ObserveClassification(string(v.Severity), time.Since(start).Seconds(), false)
			return v
		}
		e.caches.Miss()
		e.metrics.IncCacheMiss()

		// Collapse concurrent identical inputs into one evaluation.
		res, _, _ := e.group.Do(strconv.FormatUint(fp, 16), func() (any, error) {
			return e.evaluate(text, fp, nil), nil
		})
		v := res.(Verdict)
		v.Elapsed = time.Since(start)
		e.metrics.ObserveClassification(string(v.Severity), time.Since(start).Seconds(), v.Degraded)
		return v
	}

	v := e.evaluate(text, fp, filter)
	v.Elapsed = time.Since(start)
	e.metrics.ObserveClassification(string(v.Severity), time.Since(start).Seconds(), v.Degraded)
	return v
}

// evaluate runs the tier loop under the budget controller.
func (e *Engine) evaluate(text string, fp uint64, filter map[pattern.Tier]bool) Verdict {
	snap := e.store.Snapshot()

	// Known-safe fast path: seed the skip cache without touching a
	// single pattern.
	if filter == nil && normalize.LikelySafe(text) {
		e.caches.StoreSkip(fp)
		return Verdict{Severity: SeverityNone, Version: snap.Version}
	}

	evalText, truncated := normalize.Condense(text, e.maxEvalLen)
	in := pattern.NewInput(evalText)

	run := e.controller.Begin()
	var matched []pattern.Match
	samples := make([]learning.Sample, 0, 16)
	degraded := false
	earlyStop := false
	evals := 0

tiers:
	for _, tier := range pattern.Tiers {
		if filter != nil && !filter[tier] {
			continue
		}
		if !run.Allow(tier) {
			degraded = true
			break
		}

		tierStart := time.Now()
		for _, p := range snap.TierPatterns(tier) {
			if run.Exceeded() {
				degraded = true
				run.Record(tier, time.Since(tierStart))
				break tiers
			}

			evalStart := time.Now()
			ok, err := p.Match(in)
			evals++
			samples = append(samples, learning.Sample{
				PatternID: p.ID,
				Tier:      tier,
				Matched:   ok && err == nil,
				Elapsed:   time.Since(evalStart),
			})
			if err != nil {
				// Fail open per rule: one bad matcher is a
				// non-match, never an aborted classification.
				e.metrics.IncEvalError()
				if e.warnf != nil {
					e.warnf("pattern evaluation failed: %v", err)
				}
				continue
			}
			if !ok {
				continue
			}

			matched = append(matched, pattern.Match{
				PatternID: p.ID,
				Tier:      tier,
				Weight:    p.Weight,
				Message:   p.Message,
			})
			if tier == pattern.TierUltraCritical &&
				p.Weight*ultraActivationMultiplier >= 1.0 {
				// Unconditional block established; the scan is
				// complete, not degraded.
				earlyStop = true
				run.Record(tier, time.Since(tierStart))
				break tiers
			}
		}
		if !earlyStop {
			run.Record(tier, time.Since(tierStart))
		}
	}

	e.evaluations.Add(int64(evals))
	e.metrics.AddEvaluations(evals)

	v := Verdict{
		Severity:  severityOf(matched),
		Matched:   matched,
		Degraded:  degraded,
		Truncated: truncated,
		Version:   snap.Version,
	}

	// Only complete verdicts are cacheable, and only unfiltered ones: a
	// timed-out partial scan must never be remembered as safe.
	if !degraded && filter == nil {
		if len(matched) == 0 {
			e.caches.StoreSkip(fp)
		} else {
			e.caches.StoreResult(fp, v)
		}
	}

	// Learning delivery is best effort; a full queue drops the oldest
	// samples and the caller never waits.
	e.queue.PushBatch(samples)

	return v
}

// Stats is a point-in-time view of engine counters for status surfaces.
type Stats struct {
	Version        int64       `json:"pattern_version"`
	Patterns       int         `json:"patterns"`
	Evaluations    int64       `json:"evaluations"`
	Cache          cache.Stats `json:"cache"`
	QueueDepth     int         `json:"learning_queue_depth"`
	SamplesDropped uint64      `json:"learning_samples_dropped"`
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	snap := e.store.Snapshot()
	return Stats{
		Version:        snap.Version,
		Patterns:       snap.Len(),
		Evaluations:    e.evaluations.Load(),
		Cache:          e.caches.Stats(),
		QueueDepth:     e.queue.Len(),
		SamplesDropped: e.queue.Dropped(),
	}
}
