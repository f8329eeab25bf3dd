// Package learning nudges pattern confidence weights from classification
// outcomes. The adjuster runs on its own goroutine, reads the bounded
// sample queue, and publishes weight updates through the pattern store's
// single-writer snapshot swap. It shares no clock with the synchronous
// path: an overloaded adjuster truncates its own batch, never a classify
// call.
package learning

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

// TierConfig controls adaptation speed per tier. High-severity tiers learn
// slowly: a false negative there is expensive, so their weights must not
// chase noise.
type TierConfig struct {
	// LearningRate is the EMA coefficient for weight updates.
	LearningRate float64
	// MinDelta coalesces updates: a weight change smaller than this is
	// dropped rather than thrashing the store snapshot.
	MinDelta float64
}

// DefaultTierConfigs mirrors the per-tier adaptation profile the default
// budgets were tuned against.
func DefaultTierConfigs() map[pattern.Tier]TierConfig {
	return map[pattern.Tier]TierConfig{
		pattern.TierUltraCritical: {LearningRate: 0.001, MinDelta: 0.0005},
		pattern.TierCriticalFast:  {LearningRate: 0.005, MinDelta: 0.001},
		pattern.TierHighNormal:    {LearningRate: 0.01, MinDelta: 0.002},
		pattern.TierInfo:          {LearningRate: 0.02, MinDelta: 0.005},
	}
}

const (
	// DefaultBatchSize bounds samples consumed per wake-up.
	DefaultBatchSize = 16
	// DefaultBatchBudget bounds wall-clock time per wake-up; the
	// remainder of the batch is deferred to the next one.
	DefaultBatchBudget = 2 * time.Millisecond
	// DefaultInterval is the fallback wake-up period when the queue is
	// quiet.
	DefaultInterval = 50 * time.Millisecond
)

// Stats is a snapshot of adjuster counters.
type Stats struct {
	Processed uint64 `json:"samples_processed"`
	Published uint64 `json:"weights_published"`
	Coalesced uint64 `json:"updates_coalesced"`
	Truncated uint64 `json:"batches_truncated"`
}

// Adjuster consumes learning samples and evolves pattern weights.
type Adjuster struct {
	store *pattern.Store
	queue *Queue

	batchSize int
	budget    time.Duration
	interval  time.Duration
	tiers     map[pattern.Tier]TierConfig

	onPublish func(n int)

	processed atomic.Uint64
	published atomic.Uint64
	coalesced atomic.Uint64
	truncated atomic.Uint64

	stop chan struct{}
	done chan struct{}
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithBatch overrides batch size and per-wake-up budget.
func WithBatch(size int, budget time.Duration) Option {
	return func(a *Adjuster) {
		if size > 0 {
			a.batchSize = size
		}
		if budget > 0 {
			a.budget = budget
		}
	}
}

// WithInterval overrides the idle wake-up period.
func WithInterval(d time.Duration) Option {
	return func(a *Adjuster) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithTierConfigs overrides the per-tier adaptation profile.
func WithTierConfigs(cfgs map[pattern.Tier]TierConfig) Option {
	return func(a *Adjuster) {
		if cfgs != nil {
			a.tiers = cfgs
		}
	}
}

// WithPublishHook registers a callback invoked with the number of weights
// published per wake-up. Used for metrics.
func WithPublishHook(fn func(n int)) Option {
	return func(a *Adjuster) { a.onPublish = fn }
}

// NewAdjuster wires an adjuster to a store and queue. Call Start to run it.
func NewAdjuster(store *pattern.Store, queue *Queue, opts ...Option) *Adjuster {
	a := &Adjuster{
		store:     store,
		queue:     queue,
		batchSize: DefaultBatchSize,
		budget:    DefaultBatchBudget,
		interval:  DefaultInterval,
		tiers:     DefaultTierConfigs(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the background goroutine.
func (a *Adjuster) Start() {
	go a.run()
}

// Stop terminates the background goroutine and waits for it to exit.
func (a *Adjuster) Stop() {
	close(a.stop)
	<-a.done
}

func (a *Adjuster) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-a.queue.Wake():
			a.RunOnce()
		case <-ticker.C:
			a.RunOnce()
		}
	}
}

// RunOnce drains at most one batch from the queue, computes EMA weight
// updates, and publishes them in a single snapshot swap. Exposed so hosts
// without a background goroutine (one-shot CLI hooks) can flush pending
// samples before exit.
func (a *Adjuster) RunOnce() int {
	start := time.Now()
	snap := a.store.Snapshot()
	updates := map[string]float64{}

	n := 0
	for n < a.batchSize {
		if time.Since(start) > a.budget {
			if a.queue.Len() > 0 {
				a.truncated.Add(1)
			}
			break
		}

		s, ok := a.queue.Pop()
		if !ok {
			break
		}
		n++
		a.processed.Add(1)

		p := snap.Find(s.PatternID)
		if p == nil {
			// Pattern set reloaded since the sample was queued.
			continue
		}

		cfg, ok := a.tiers[s.Tier]
		if !ok {
			cfg = TierConfig{LearningRate: 0.01, MinDelta: 0.002}
		}

		old := p.Weight
		if w, pending := updates[s.PatternID]; pending {
			old = w
		}

		signal := 0.0
		if s.Matched {
			signal = 1.0
		}
		next := old + cfg.LearningRate*(signal-old)

		if math.Abs(next-p.Weight) < cfg.MinDelta {
			a.coalesced.Add(1)
			continue
		}
		updates[s.PatternID] = next
	}

	if len(updates) > 0 {
		if err := a.store.ApplyWeights(updates); err == nil {
			a.published.Add(uint64(len(updates)))
			if a.onPublish != nil {
				a.onPublish(len(updates))
			}
		}
	}
	return n
}

// Stats returns current counters.
func (a *Adjuster) Stats() Stats {
	return Stats{
		Processed: a.processed.Load(),
		Published: a.published.Load(),
		Coalesced: a.coalesced.Load(),
		Truncated: a.truncated.Load(),
	}
}
