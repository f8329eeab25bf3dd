package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

// Severity is the classification outcome level: the highest tier that
// matched, or NONE.
type Severity string

const SeverityNone Severity = "NONE"

// Cache layer names recorded on verdicts served without evaluation.
const (
	CacheLayerSkip   = "skip"
	CacheLayerResult = "result"
)

// Verdict is the result of classifying one input.
type Verdict struct {
	Severity Severity        `json:"severity"`
	Matched  []pattern.Match `json:"matched_patterns,omitempty"`
	Elapsed  time.Duration   `json:"elapsed_ns"`

	// Degraded is true when the budget ran out and evaluation was
	// truncated. A degraded verdict covers only the tiers evaluated
	// before the abort and is never cached as complete.
	Degraded bool `json:"degraded"`

	// Truncated is true when the input exceeded the evaluation-length
	// ceiling and was condensed before matching.
	Truncated bool `json:"truncated,omitempty"`

	// CacheLayer names the layer that served this verdict, if any.
	CacheLayer string `json:"cache_layer,omitempty"`

	// Version is the pattern-set version the verdict was computed under.
	Version int64 `json:"version"`
}

// MatchedIDs returns the ids of matched patterns in match order.
func (v Verdict) MatchedIDs() []string {
	ids := make([]string, len(v.Matched))
	for i, m := range v.Matched {
		ids[i] = m.PatternID
	}
	return ids
}

// HasTier reports whether any matched pattern belongs to the tier.
func (v Verdict) HasTier(t pattern.Tier) bool {
	for _, m := range v.Matched {
		if m.Tier == t {
			return true
		}
	}
	return false
}

// Explanation renders a human-readable summary of the verdict.
func (v Verdict) Explanation() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Severity: %s\n", v.Severity)

	if len(v.Matched) > 0 {
		fmt.Fprintf(&sb, "Matched patterns: %s\n", strings.Join(v.MatchedIDs(), ", "))
		sb.WriteString("Reasons:\n")
		for _, m := range v.Matched {
			fmt.Fprintf(&sb, "  - %s\n", m.Message)
		}
	}

	if v.Degraded {
		sb.WriteString("Note: evaluation was truncated by the time budget; low-severity tiers may be unchecked.\n")
	}

	return sb.String()
}

func severityOf(matched []pattern.Match) Severity {
	if len(matched) == 0 {
		return SeverityNone
	}
	// Tiers are evaluated most urgent first, so the first match carries
	// the highest severity.
	return Severity(matched[0].Tier)
}
