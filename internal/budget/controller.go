// Package budget time-boxes tiered pattern evaluation. The controller never
// preempts a matcher that already started; it decides whether remaining
// tiers may be attempted, and flags the run degraded when the overall
// ceiling is breached.
package budget

import (
	"sync"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

// emaAlpha weights new observations in the per-tier cost estimate.
const emaAlpha = 0.1

// Limits is the configured allowance per tier plus the overall ceiling.
type Limits struct {
	Overall time.Duration
	PerTier map[pattern.Tier]time.Duration
}

// DefaultLimits returns the stock budgets: 100µs for ULTRA_CRITICAL, 300µs
// for CRITICAL_FAST, 800µs for HIGH_NORMAL, 300µs for INFO, 1.5ms overall.
func DefaultLimits() Limits {
	return Limits{
		Overall: 1500 * time.Microsecond,
		PerTier: map[pattern.Tier]time.Duration{
			pattern.TierUltraCritical: 100 * time.Microsecond,
			pattern.TierCriticalFast:  300 * time.Microsecond,
			pattern.TierHighNormal:    800 * time.Microsecond,
			pattern.TierInfo:          300 * time.Microsecond,
		},
	}
}

// Controller owns the limits and the cross-call cost estimates. One
// controller is shared by all classification calls; each call opens its own
// Run.
type Controller struct {
	limits Limits

	mu       sync.Mutex
	estimate map[pattern.Tier]time.Duration
}

// NewController creates a controller. Tiers without a configured allowance
// fall back to the default for that tier.
func NewController(limits Limits) *Controller {
	def := DefaultLimits()
	if limits.Overall <= 0 {
		limits.Overall = def.Overall
	}
	if limits.PerTier == nil {
		limits.PerTier = map[pattern.Tier]time.Duration{}
	}
	for t, d := range def.PerTier {
		if limits.PerTier[t] <= 0 {
			limits.PerTier[t] = d
		}
	}

	est := make(map[pattern.Tier]time.Duration, len(limits.PerTier))
	for t, d := range limits.PerTier {
		est[t] = d
	}
	return &Controller{limits: limits, estimate: est}
}

// Limits returns the configured limits.
func (c *Controller) Limits() Limits { return c.limits }

// Begin opens a run with a fresh deadline clock.
func (c *Controller) Begin() *Run {
	return &Run{c: c, start: time.Now()}
}

// Record feeds a measured tier cost back into the estimate. The estimate is
// an exponential moving average clamped to the configured allowance, so it
// can shrink when a tier is consistently cheap but never grows past the
// ceiling the operator set.
func (c *Controller) Record(tier pattern.Tier, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.estimate[tier]
	next := time.Duration(emaAlpha*float64(elapsed) + (1-emaAlpha)*float64(prev))
	if max := c.limits.PerTier[tier]; next > max {
		next = max
	}
	if next < 0 {
		next = 0
	}
	c.estimate[tier] = next
}

func (c *Controller) estimateFor(tier pattern.Tier) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimate[tier]
}

// Run is the per-call deadline clock.
type Run struct {
	c     *Controller
	start time.Time
}

// Allow reports whether there is enough remaining overall budget to attempt
// the tier, based on the adaptive cost estimate.
func (r *Run) Allow(tier pattern.Tier) bool {
	remaining := r.c.limits.Overall - time.Since(r.start)
	if remaining <= 0 {
		return false
	}
	return remaining >= r.c.estimateFor(tier)
}

// Record forwards a measured tier cost to the controller.
func (r *Run) Record(tier pattern.Tier, elapsed time.Duration) {
	r.c.Record(tier, elapsed)
}

// Exceeded reports whether the overall ceiling has been breached.
func (r *Run) Exceeded() bool {
	return time.Since(r.start) > r.c.limits.Overall
}

// Elapsed returns time since the run began.
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.start)
}
