package pattern

// Tier is a severity class. Tiers are ordered by urgency: the most urgent
// tier gets the tightest evaluation budget and is always checked first.
type Tier string

const (
	TierUltraCritical Tier = "ULTRA_CRITICAL"
	TierCriticalFast  Tier = "CRITICAL_FAST"
	TierHighNormal    Tier = "HIGH_NORMAL"
	TierInfo          Tier = "INFO"
)

// Tiers lists all tiers in evaluation order, most urgent first. Evaluation
// always walks this order so that budget exhaustion can only drop findings
// from the low-severity end.
var Tiers = []Tier{TierUltraCritical, TierCriticalFast, TierHighNormal, TierInfo}

// Rank returns a numeric urgency for priority comparison.
// Higher number = more urgent tier.
func (t Tier) Rank() int {
	switch t {
	case TierUltraCritical:
		return 4
	case TierCriticalFast:
		return 3
	case TierHighNormal:
		return 2
	case TierInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t.Rank() > 0 }

// MatchKind selects how a pattern's expression is interpreted.
type MatchKind string

const (
	KindExact     MatchKind = "exact"
	KindPrefix    MatchKind = "prefix"
	KindSubstring MatchKind = "substring"
	KindRegex     MatchKind = "regex"

	// KindFunc is a programmatic matcher supplied in code. It cannot be
	// expressed in a YAML pack; Definition.Func must be set.
	KindFunc MatchKind = "func"
)

// Definition is the loadable form of a detection pattern, as it appears in
// a pattern pack. Compilation into a Pattern happens in Store.Load.
type Definition struct {
	ID      string    `yaml:"id"`
	Tier    Tier      `yaml:"tier"`
	Kind    MatchKind `yaml:"kind"`
	Pattern string    `yaml:"pattern"`
	Message string    `yaml:"message"`

	// Weight is the pattern's confidence in (0, 1]. Zero means "not set"
	// and compiles to 1.0; a pack cannot express a literal zero weight.
	// The adjuster can still drive a weight arbitrarily close to zero.
	Weight float64 `yaml:"weight,omitempty"`

	// Func backs KindFunc definitions. Never serialized.
	Func func(text string) (bool, error) `yaml:"-"`
}

// Excluded describes a definition dropped during Load because its matcher
// failed to compile or validate. Configuration is never treated as fatal;
// callers log these as warning events.
type Excluded struct {
	ID  string
	Err error
}

// Match is a single pattern hit recorded on a verdict.
type Match struct {
	PatternID string  `json:"pattern_id"`
	Tier      Tier    `json:"tier"`
	Weight    float64 `json:"weight"`
	Message   string  `json:"message"`
}
