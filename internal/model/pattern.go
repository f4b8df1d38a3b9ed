package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// Tier is the strictness level of a synthesized pattern, from 1 (broadest) to 6.
type Tier int

const (
	// TierOpeningStructure matches the opening structural markers only.
	TierOpeningStructure Tier = iota + 1
	// TierStructureField adds the first field name to the opening structure.
	TierStructureField
	// TierCooccurrence requires the first two field names within a bounded window.
	TierCooccurrence
	// TierValueAnchored is anchored on the literal value of a semantic field.
	TierValueAnchored
	// TierStrictSpan requires opening and closing markers around a minimum span.
	TierStrictSpan
	// TierFieldKey matches one field name key, for targeted diagnostics.
	TierFieldKey
)

// String returns a short label for the tier.
func (t Tier) String() string {
	switch t {
	case TierOpeningStructure:
		return "opening-structure"
	case TierStructureField:
		return "structure+field"
	case TierCooccurrence:
		return "co-occurrence"
	case TierValueAnchored:
		return "value-anchored"
	case TierStrictSpan:
		return "strict-span"
	case TierFieldKey:
		return "field-key"
	default:
		return fmt.Sprintf("tier-%d", int(t))
	}
}

// Confidence is the synthesis confidence of a pattern set.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PatternSpec is one synthesized detection pattern.
type PatternSpec struct {
	// Name is unique within a pattern set and starts with the tier ("t3_…").
	Name string

	// Tier is the strictness level.
	Tier Tier

	// Source is the regular expression. Every quote position is the quote-class
	// union, never a literal quote copied from the seed.
	Source string

	// Description says in words what the pattern looks for.
	Description string

	// Anchors are lower-cased literals that every match contains.
	// Scanners may skip the regular expression when an anchor is absent.
	Anchors []string

	re *regexp.Regexp
}

// Regexp returns the compiled expression. It is nil until the pattern has been
// added to a PatternSet.
func (p PatternSpec) Regexp() *regexp.Regexp {
	return p.re
}

// ErrDuplicatePatternName is returned when two patterns share a name.
var ErrDuplicatePatternName = errors.New("duplicate pattern name")

// PatternSet is an immutable, ordered set of uniquely named patterns plus the
// confidence computed when the set was validated against its seed.
// Iteration order is lexicographic by name. A PatternSet is safe for
// concurrent use by multiple scanners.
type PatternSet struct {
	specs           []PatternSpec
	index           map[string]int
	confidence      Confidence
	matchRate       float64
	seedFingerprint string
	window          int
	minSpan         int
}

// PatternSetMeta carries the validation result and synthesis parameters stored
// alongside the patterns.
type PatternSetMeta struct {
	Confidence      Confidence
	MatchRate       float64
	SeedFingerprint string
	Window          int
	MinSpan         int
}

// NewPatternSet compiles the specs and returns them as an ordered set.
// It fails when a name repeats or a source does not compile.
func NewPatternSet(specs []PatternSpec, meta PatternSetMeta) (*PatternSet, error) {
	ps := &PatternSet{
		specs:           make([]PatternSpec, 0, len(specs)),
		index:           make(map[string]int, len(specs)),
		confidence:      meta.Confidence,
		matchRate:       meta.MatchRate,
		seedFingerprint: meta.SeedFingerprint,
		window:          meta.Window,
		minSpan:         meta.MinSpan,
	}
	if ps.confidence == "" {
		ps.confidence = ConfidenceLow
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePatternName, spec.Name)
		}
		seen[spec.Name] = true

		re, err := regexp.Compile(spec.Source)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", spec.Name, err)
		}
		spec.re = re
		spec.Anchors = append([]string(nil), spec.Anchors...)
		ps.specs = append(ps.specs, spec)
	}

	sort.Slice(ps.specs, func(i, j int) bool {
		return ps.specs[i].Name < ps.specs[j].Name
	})
	for i, spec := range ps.specs {
		ps.index[spec.Name] = i
	}

	return ps, nil
}

// WithMeta returns a copy of the set carrying new metadata. The receiver is unchanged.
func (ps *PatternSet) WithMeta(meta PatternSetMeta) *PatternSet {
	cp := *ps
	cp.confidence = meta.Confidence
	if cp.confidence == "" {
		cp.confidence = ConfidenceLow
	}
	cp.matchRate = meta.MatchRate
	cp.seedFingerprint = meta.SeedFingerprint
	cp.window = meta.Window
	cp.minSpan = meta.MinSpan
	return &cp
}

// Len returns the number of patterns.
func (ps *PatternSet) Len() int {
	return len(ps.specs)
}

// Patterns returns the specs in name order. The slice is a copy.
func (ps *PatternSet) Patterns() []PatternSpec {
	out := make([]PatternSpec, len(ps.specs))
	copy(out, ps.specs)
	return out
}

// Names returns the pattern names in iteration order.
func (ps *PatternSet) Names() []string {
	names := make([]string, len(ps.specs))
	for i, spec := range ps.specs {
		names[i] = spec.Name
	}
	return names
}

// Get returns the spec with the given name.
func (ps *PatternSet) Get(name string) (PatternSpec, bool) {
	i, ok := ps.index[name]
	if !ok {
		return PatternSpec{}, false
	}
	return ps.specs[i], true
}

// Meta returns the validation result and synthesis parameters.
func (ps *PatternSet) Meta() PatternSetMeta {
	return PatternSetMeta{
		Confidence:      ps.confidence,
		MatchRate:       ps.matchRate,
		SeedFingerprint: ps.seedFingerprint,
		Window:          ps.window,
		MinSpan:         ps.minSpan,
	}
}

// Confidence returns the synthesis confidence.
func (ps *PatternSet) Confidence() Confidence {
	return ps.confidence
}

// MatchRate returns the fraction of patterns that matched the seed.
func (ps *PatternSet) MatchRate() float64 {
	return ps.matchRate
}

// patternRecord is the interchange form of one pattern.
type patternRecord struct {
	Source      string     `json:"source"`
	Tier        Tier       `json:"tier"`
	Confidence  Confidence `json:"confidence"`
	Description string     `json:"description,omitempty"`
	Anchors     []string   `json:"anchors,omitempty"`
}

// patternSetRecord is the interchange form of a pattern set.
type patternSetRecord struct {
	Confidence      Confidence               `json:"confidence"`
	MatchRate       float64                  `json:"match_rate"`
	SeedFingerprint string                   `json:"seed_fingerprint,omitempty"`
	Window          int                      `json:"window,omitempty"`
	MinSpan         int                      `json:"min_span,omitempty"`
	Patterns        map[string]patternRecord `json:"patterns"`
}

// MarshalJSON writes the set as {name → (source, tier, confidence)} plus metadata.
func (ps *PatternSet) MarshalJSON() ([]byte, error) {
	rec := patternSetRecord{
		Confidence:      ps.confidence,
		MatchRate:       ps.matchRate,
		SeedFingerprint: ps.seedFingerprint,
		Window:          ps.window,
		MinSpan:         ps.minSpan,
		Patterns:        make(map[string]patternRecord, len(ps.specs)),
	}
	for _, spec := range ps.specs {
		rec.Patterns[spec.Name] = patternRecord{
			Source:      spec.Source,
			Tier:        spec.Tier,
			Confidence:  ps.confidence,
			Description: spec.Description,
			Anchors:     spec.Anchors,
		}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads a set written by MarshalJSON and recompiles its patterns.
func (ps *PatternSet) UnmarshalJSON(data []byte) error {
	var rec patternSetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	specs := make([]PatternSpec, 0, len(rec.Patterns))
	for name, p := range rec.Patterns {
		specs = append(specs, PatternSpec{
			Name:        name,
			Tier:        p.Tier,
			Source:      p.Source,
			Description: p.Description,
			Anchors:     p.Anchors,
		})
	}

	loaded, err := NewPatternSet(specs, PatternSetMeta{
		Confidence:      rec.Confidence,
		MatchRate:       rec.MatchRate,
		SeedFingerprint: rec.SeedFingerprint,
		Window:          rec.Window,
		MinSpan:         rec.MinSpan,
	})
	if err != nil {
		return err
	}
	*ps = *loaded
	return nil
}
