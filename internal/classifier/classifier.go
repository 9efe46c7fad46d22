// Package classifier assigns a retrieval-size tier to a question from its
// surface features alone. It makes no external calls: classification is a
// pure function of the text, so it is free and deterministic.
package classifier

import (
	"fmt"
	"strings"
)

// Tier orders questions by expected answer complexity. Higher tiers never
// retrieve fewer documents than lower ones.
type Tier int

const (
	TierSimple Tier = iota
	TierModerate
	TierComplex
	TierExhaustive
)

func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierModerate:
		return "moderate"
	case TierComplex:
		return "complex"
	case TierExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Limits maps each tier to its retrieval count. Values come from
// configuration, not call sites.
type Limits struct {
	Simple     int
	Moderate   int
	Complex    int
	Exhaustive int
}

// Validate rejects non-monotonic or non-positive limits.
func (l Limits) Validate() error {
	if l.Simple <= 0 {
		return fmt.Errorf("simple tier limit must be positive, got %d", l.Simple)
	}
	if l.Moderate < l.Simple || l.Complex < l.Moderate || l.Exhaustive < l.Complex {
		return fmt.Errorf("tier limits must be monotonic: %d <= %d <= %d <= %d",
			l.Simple, l.Moderate, l.Complex, l.Exhaustive)
	}
	return nil
}

// Thresholds are the tunable word-count cutoffs for length-based signals.
type Thresholds struct {
	LongQuestionWords     int // at or above: moderate
	VeryLongQuestionWords int // at or above: complex
}

// Marker phrases per signal. Matching is case-insensitive on the whole
// question text.
var (
	exhaustiveMarkers = []string{
		"list all", "list every", "all the", "complete list",
		"everything", "every single", "full overview", "comprehensive",
	}
	complexMarkers = []string{
		"list", "overview", "summarize", "summarise", "history of",
		"every", "all of", "how many",
	}
	moderateMarkers = []string{
		"compare", "difference", "differences", "versus", " vs ", " vs.",
		"relationship", "connection", "between", "both",
	}
	lookupMarkers = []string{
		"who is", "who was", "what is", "what was", "where is", "when did",
		"which", "what does",
	}
)

// Classifier resolves questions to tiers using configured thresholds.
type Classifier struct {
	limits     Limits
	thresholds Thresholds
}

// New builds a classifier, validating tier monotonicity up front.
func New(limits Limits, thresholds Thresholds) (*Classifier, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if thresholds.LongQuestionWords <= 0 {
		thresholds.LongQuestionWords = 12
	}
	if thresholds.VeryLongQuestionWords <= thresholds.LongQuestionWords {
		thresholds.VeryLongQuestionWords = thresholds.LongQuestionWords * 2
	}
	return &Classifier{limits: limits, thresholds: thresholds}, nil
}

// Classify inspects the question's surface features. When signals conflict
// the higher tier wins: over-retrieval is cheaper than an incomplete answer.
func (c *Classifier) Classify(question string) Tier {
	q := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	words := len(strings.Fields(q))

	tier := TierSimple

	if containsAny(q, lookupMarkers) && words < c.thresholds.LongQuestionWords {
		tier = TierSimple
	} else if words >= c.thresholds.LongQuestionWords {
		tier = TierModerate
	}

	if containsAny(q, moderateMarkers) && tier < TierModerate {
		tier = TierModerate
	}
	if containsAny(q, complexMarkers) && tier < TierComplex {
		tier = TierComplex
	}
	if words >= c.thresholds.VeryLongQuestionWords && tier < TierComplex {
		tier = TierComplex
	}
	if containsAny(q, exhaustiveMarkers) && tier < TierExhaustive {
		tier = TierExhaustive
	}

	return tier
}

// Count maps a tier to its configured retrieval count.
func (c *Classifier) Count(t Tier) int {
	switch t {
	case TierSimple:
		return c.limits.Simple
	case TierModerate:
		return c.limits.Moderate
	case TierComplex:
		return c.limits.Complex
	default:
		return c.limits.Exhaustive
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
