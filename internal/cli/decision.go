package cli

import (
	"github.com/qualitygate/qualitygate/internal/config"
	"github.com/qualitygate/qualitygate/internal/engine"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

// Decision is the host-facing outcome of a classification.
type Decision string

const (
	DecisionPass  Decision = "PASS"
	DecisionWarn  Decision = "WARN"
	DecisionBlock Decision = "BLOCK"
)

// decide maps a verdict to a gate decision.
//
// ULTRA_CRITICAL and CRITICAL_FAST matches block, even on a degraded
// verdict: the urgent tiers run first, so whatever they found, they found.
// HIGH_NORMAL warns; INFO and clean verdicts pass. A degraded verdict with
// no matches is inconclusive and follows the configured policy.
func decide(v engine.Verdict, cfg *config.Config) Decision {
	switch {
	case v.HasTier(pattern.TierUltraCritical), v.HasTier(pattern.TierCriticalFast):
		return DecisionBlock
	case v.HasTier(pattern.TierHighNormal):
		return DecisionWarn
	}

	if v.Degraded && cfg.OnInconclusive == config.InconclusiveWarn {
		return DecisionWarn
	}
	return DecisionPass
}
