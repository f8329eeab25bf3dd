package budget

import (
	"testing"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()

	if limits.Overall != 1500*time.Microsecond {
		t.Errorf("Overall = %v, want 1.5ms", limits.Overall)
	}

	var sum time.Duration
	for _, tier := range pattern.Tiers {
		d, ok := limits.PerTier[tier]
		if !ok || d <= 0 {
			t.Errorf("tier %s has no allowance", tier)
		}
		sum += d
	}
	if sum > limits.Overall {
		t.Errorf("per-tier allowances sum to %v, exceeding overall %v", sum, limits.Overall)
	}
}

func TestNewControllerFillsMissingTiers(t *testing.T) {
	c := NewController(Limits{
		Overall: 2 * time.Millisecond,
		PerTier: map[pattern.Tier]time.Duration{
			pattern.TierUltraCritical: 200 * time.Microsecond,
		},
	})

	limits := c.Limits()
	if limits.PerTier[pattern.TierUltraCritical] != 200*time.Microsecond {
		t.Errorf("explicit allowance overridden: %v", limits.PerTier[pattern.TierUltraCritical])
	}
	if limits.PerTier[pattern.TierInfo] != 300*time.Microsecond {
		t.Errorf("missing tier not defaulted: %v", limits.PerTier[pattern.TierInfo])
	}
}

func TestAllowWithinBudget(t *testing.T) {
	c := NewController(DefaultLimits())
	run := c.Begin()

	// A fresh run has the whole budget; every tier must be attemptable.
	for _, tier := range pattern.Tiers {
		if !run.Allow(tier) {
			t.Errorf("fresh run disallowed tier %s", tier)
		}
	}
	if run.Exceeded() {
		t.Error("fresh run reported exceeded")
	}
}

func TestAllowAfterExhaustion(t *testing.T) {
	c := NewController(Limits{Overall: 1 * time.Nanosecond})
	run := c.Begin()
	time.Sleep(time.Millisecond)

	for _, tier := range pattern.Tiers {
		if run.Allow(tier) {
			t.Errorf("exhausted run allowed tier %s", tier)
		}
	}
	if !run.Exceeded() {
		t.Error("exhausted run not reported exceeded")
	}
}

func TestRecordShrinksEstimate(t *testing.T) {
	c := NewController(DefaultLimits())
	allowance := c.Limits().PerTier[pattern.TierHighNormal]

	// A consistently cheap tier should see its estimate decay below the
	// configured allowance.
	for i := 0; i < 50; i++ {
		c.Record(pattern.TierHighNormal, 10*time.Microsecond)
	}
	if est := c.estimateFor(pattern.TierHighNormal); est >= allowance {
		t.Errorf("estimate %v did not shrink below allowance %v", est, allowance)
	}
}

func TestRecordClampedToAllowance(t *testing.T) {
	c := NewController(DefaultLimits())
	allowance := c.Limits().PerTier[pattern.TierUltraCritical]

	// A pathological spike must not inflate the estimate past the
	// configured allowance.
	for i := 0; i < 50; i++ {
		c.Record(pattern.TierUltraCritical, time.Second)
	}
	if est := c.estimateFor(pattern.TierUltraCritical); est > allowance {
		t.Errorf("estimate %v exceeds allowance %v", est, allowance)
	}
}
