package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Input is a classification input prepared once per call so that
// case-insensitive string matchers do not re-lower the text per pattern.
type Input struct {
	Text  string
	Lower string
}

// NewInput builds an Input from raw text.
func NewInput(text string) Input {
	return Input{Text: text, Lower: strings.ToLower(text)}
}

// Pattern is a compiled detection rule. The matcher is immutable after
// construction; only Weight changes, and only through the store's
// single-writer snapshot swap.
type Pattern struct {
	ID      string
	Tier    Tier
	Kind    MatchKind
	Weight  float64
	Message string

	re     *regexp.Regexp // KindRegex only
	needle string         // lowered expression for string kinds
	fn     func(string) (bool, error)
}

// compile validates a definition and builds its Pattern.
func compile(def Definition) (*Pattern, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("pattern has no id")
	}
	if !def.Tier.Valid() {
		return nil, fmt.Errorf("pattern %s: unknown tier %q", def.ID, def.Tier)
	}

	p := &Pattern{
		ID:      def.ID,
		Tier:    def.Tier,
		Kind:    def.Kind,
		Weight:  def.Weight,
		Message: def.Message,
	}
	// Zero is the "not set" sentinel, per the Definition contract.
	if p.Weight == 0 {
		p.Weight = 1.0
	}
	if p.Weight < 0 || p.Weight > 1 {
		return nil, fmt.Errorf("pattern %s: weight %v outside [0,1]", def.ID, def.Weight)
	}

	switch def.Kind {
	case KindExact, KindPrefix, KindSubstring:
		if def.Pattern == "" {
			return nil, fmt.Errorf("pattern %s: empty expression", def.ID)
		}
		p.needle = strings.ToLower(def.Pattern)
	case KindRegex:
		re, err := regexp.Compile("(?i)" + def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", def.ID, err)
		}
		p.re = re
	case KindFunc:
		if def.Func == nil {
			return nil, fmt.Errorf("pattern %s: func kind without func", def.ID)
		}
		p.fn = def.Func
	default:
		return nil, fmt.Errorf("pattern %s: unknown kind %q", def.ID, def.Kind)
	}

	return p, nil
}

// Match evaluates the pattern against the input. Matching is
// case-insensitive for every kind. A panicking matcher is converted to an
// error so one bad rule never aborts a classification.
func (p *Pattern) Match(in Input) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("pattern %s: matcher panic: %v", p.ID, r)
		}
	}()

	switch p.Kind {
	case KindExact:
		return in.Lower == p.needle, nil
	case KindPrefix:
		return strings.HasPrefix(in.Lower, p.needle), nil
	case KindSubstring:
		return strings.Contains(in.Lower, p.needle), nil
	case KindRegex:
		return p.re.MatchString(in.Text), nil
	case KindFunc:
		return p.fn(in.Text)
	default:
		return false, fmt.Errorf("pattern %s: unknown kind %q", p.ID, p.Kind)
	}
}

// clone returns a shallow copy; compiled matcher state is shared because it
// is immutable.
func (p *Pattern) clone() *Pattern {
	c := *p
	return &c
}
