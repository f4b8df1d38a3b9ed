package pattern

import (
	"github.com/nao1215/embedleak/internal/model"
)

// ConfidencePolicy maps a match rate in [0, 1] to a confidence level.
type ConfidencePolicy func(matchRate float64) model.Confidence

// Default confidence thresholds.
const (
	DefaultHighThreshold   = 0.8
	DefaultMediumThreshold = 0.5
)

// ThresholdPolicy is the threshold ladder: high at or above High, medium at or
// above Medium, low otherwise.
type ThresholdPolicy struct {
	High   float64
	Medium float64
}

// DefaultThresholdPolicy returns the 0.8 / 0.5 ladder.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}
}

// Confidence applies the ladder.
func (p ThresholdPolicy) Confidence(matchRate float64) model.Confidence {
	switch {
	case matchRate >= p.High:
		return model.ConfidenceHigh
	case matchRate >= p.Medium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// Policy returns the ladder as a ConfidencePolicy.
func (p ThresholdPolicy) Policy() ConfidencePolicy {
	return p.Confidence
}

// Validation is the outcome of re-applying a pattern set to its seed.
type Validation struct {
	// Matched lists the names of patterns that matched the seed, in set order.
	Matched []string `json:"matched"`

	// Missed lists the names of patterns that did not match the seed.
	Missed []string `json:"missed"`

	MatchRate  float64          `json:"match_rate"`
	Confidence model.Confidence `json:"confidence"`
}

// Validate re-applies every pattern to the seed text and scores the set.
// It has no side effects. A nil policy selects the default ladder.
func Validate(seed string, ps *model.PatternSet, policy ConfidencePolicy) Validation {
	if policy == nil {
		policy = DefaultThresholdPolicy().Policy()
	}

	v := Validation{
		Matched: make([]string, 0),
		Missed:  make([]string, 0),
	}
	if ps == nil || ps.Len() == 0 {
		v.Confidence = policy(0)
		return v
	}

	for _, spec := range ps.Patterns() {
		if spec.Regexp().MatchString(seed) {
			v.Matched = append(v.Matched, spec.Name)
		} else {
			v.Missed = append(v.Missed, spec.Name)
		}
	}

	v.MatchRate = float64(len(v.Matched)) / float64(ps.Len())
	v.Confidence = policy(v.MatchRate)
	return v
}
