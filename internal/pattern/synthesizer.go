package pattern

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/embedleak/internal/model"
)

// Synthesis parameter bounds and defaults.
const (
	// DefaultWindow is the default co-occurrence window in characters.
	DefaultWindow = 500
	// MinWindow and MaxWindow bound the configurable co-occurrence window.
	MinWindow = 500
	MaxWindow = 1000

	// DefaultMinSpan is the floor of the strict-span minimum.
	DefaultMinSpan = 100
	// DefaultSpanRatio is the fraction of the seed length used as strict-span minimum.
	DefaultSpanRatio = 0.10
	// MaxSpan is the upper bound on enclosed content for the strict-span tier.
	MaxSpan = 1000

	// DefaultFieldKeyCount is how many field names get a field-key pattern.
	DefaultFieldKeyCount = 3

	// markerGap is the whitespace allowed between adjacent structural tokens.
	markerGap = `\s{0,16}`

	// maxValueLength bounds the literal value extracted for value-anchored patterns.
	maxValueLength = 64
)

// DefaultSemanticFields are the fields whose literal value anchors a tier 4 pattern.
var DefaultSemanticFields = []string{"type"}

// Synthesizer builds a tiered PatternSet from a seed and its analysis.
// It is deterministic and safe for concurrent use.
type Synthesizer struct {
	quotes         *QuoteClass
	window         int
	minSpan        int
	spanRatio      float64
	semanticFields []string
	fieldKeyCount  int
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithQuoteClass sets the quote class used at every quote position.
func WithQuoteClass(q *QuoteClass) SynthesizerOption {
	return func(s *Synthesizer) {
		if q != nil {
			s.quotes = q
		}
	}
}

// WithWindow sets the co-occurrence window. Values outside
// [MinWindow, MaxWindow] are clamped.
func WithWindow(w int) SynthesizerOption {
	return func(s *Synthesizer) {
		s.window = min(max(w, MinWindow), MaxWindow)
	}
}

// WithMinSpan sets the floor of the strict-span minimum.
func WithMinSpan(n int) SynthesizerOption {
	return func(s *Synthesizer) {
		if n > 0 {
			s.minSpan = n
		}
	}
}

// WithSpanRatio sets the seed-length fraction used for the strict-span minimum.
func WithSpanRatio(r float64) SynthesizerOption {
	return func(s *Synthesizer) {
		if r > 0 && r <= 1 {
			s.spanRatio = r
		}
	}
}

// WithSemanticFields sets the fields tried, in order, for value-anchored patterns.
func WithSemanticFields(fields []string) SynthesizerOption {
	return func(s *Synthesizer) {
		s.semanticFields = append([]string(nil), fields...)
	}
}

// WithFieldKeyCount sets how many leading field names get a tier 6 pattern.
func WithFieldKeyCount(n int) SynthesizerOption {
	return func(s *Synthesizer) {
		if n >= 0 {
			s.fieldKeyCount = n
		}
	}
}

// NewSynthesizer creates a synthesizer with the given options.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		window:         DefaultWindow,
		minSpan:        DefaultMinSpan,
		spanRatio:      DefaultSpanRatio,
		semanticFields: DefaultSemanticFields,
		fieldKeyCount:  DefaultFieldKeyCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.quotes == nil {
		s.quotes = DefaultQuoteClass()
	}
	return s
}

// Window returns the configured co-occurrence window.
func (s *Synthesizer) Window() int {
	return s.window
}

// MinSpanFor returns the strict-span minimum for a seed:
// max(minSpan, ceil(spanRatio * rune length)).
func (s *Synthesizer) MinSpanFor(seed string) int {
	n := int(math.Ceil(s.spanRatio * float64(utf8.RuneCountInString(seed))))
	return max(s.minSpan, n)
}

// Synthesize builds every tier that the seed supports. Tiers that cannot be
// built are omitted. The returned set has low confidence until validated.
func (s *Synthesizer) Synthesize(seed model.SeedExample, analysis *model.Analysis) (*model.PatternSet, error) {
	if seed.IsEmpty() || analysis == nil {
		return nil, ErrInvalidInput
	}

	text := seed.Text()
	b := &builder{s: s, text: text, analysis: analysis, q: s.quotes.Fragment()}

	var specs []model.PatternSpec
	names := make(map[string]bool)
	for _, build := range []func() []model.PatternSpec{
		b.openingStructure,
		b.structureFirstField,
		b.fieldCooccurrence,
		b.valueAnchored,
		b.strictSpan,
		b.fieldKeys,
	} {
		for _, spec := range build() {
			// "view-mode" and "view_mode" sanitize to the same name.
			if names[spec.Name] {
				continue
			}
			names[spec.Name] = true
			specs = append(specs, spec)
		}
	}

	return model.NewPatternSet(specs, model.PatternSetMeta{
		Confidence:      model.ConfidenceLow,
		SeedFingerprint: seed.Fingerprint(),
		Window:          s.window,
		MinSpan:         s.MinSpanFor(text),
	})
}

// builder holds the per-seed state of one synthesis.
type builder struct {
	s        *Synthesizer
	text     string
	analysis *model.Analysis
	q        string
}

func (b *builder) spec(name string, tier model.Tier, desc string, anchors []string, parts ...string) model.PatternSpec {
	return model.PatternSpec{
		Name:        name,
		Tier:        tier,
		Source:      "(?is)" + strings.Join(parts, ""),
		Description: desc,
		Anchors:     anchorSet(anchors),
	}
}

// openingPair returns the first two opening markers that sit next to each
// other in the seed, separated by whitespace at most.
func (b *builder) openingPair() ([2]model.StructuralMarker, bool) {
	tokens := tokenize(b.text)
	for i := 0; i+1 < len(tokens); i++ {
		first, second := tokens[i], tokens[i+1]
		if !isOpener(first) || !isOpener(second) {
			continue
		}
		if strings.TrimSpace(b.text[first.Offset+len(first.Token):second.Offset]) == "" {
			return [2]model.StructuralMarker{first, second}, true
		}
	}
	return [2]model.StructuralMarker{}, false
}

func isOpener(m model.StructuralMarker) bool {
	_, ok := m.Kind.Closer()
	return ok
}

func pairSource(pair [2]model.StructuralMarker) string {
	return regexp.QuoteMeta(pair[0].Token) + markerGap + regexp.QuoteMeta(pair[1].Token)
}

func (b *builder) openingStructure() []model.PatternSpec {
	pair, ok := b.openingPair()
	if !ok {
		return nil
	}
	return []model.PatternSpec{b.spec(
		"t1_opening_structure", model.TierOpeningStructure,
		fmt.Sprintf("%s then %s", pair[0].Token, pair[1].Token),
		[]string{pair[0].Token, pair[1].Token},
		pairSource(pair),
	)}
}

// structureFirstField requires the first field name to follow the opening
// pair directly.
func (b *builder) structureFirstField() []model.PatternSpec {
	pair, ok := b.openingPair()
	if !ok || len(b.analysis.FieldNames) == 0 {
		return nil
	}
	end := pair[1].Offset + len(pair[1].Token)
	field := b.analysis.FieldNames[0]
	if field.Offset < end || strings.TrimSpace(b.text[end:field.Offset]) != "" {
		return nil
	}
	return []model.PatternSpec{b.spec(
		"t2_structure_first_field", model.TierStructureField,
		fmt.Sprintf("%s then %s then quoted %q", pair[0].Token, pair[1].Token, field.Name),
		[]string{pair[0].Token, pair[1].Token, field.Name},
		pairSource(pair), markerGap, b.quoted(field.Name),
	)}
}

func (b *builder) fieldCooccurrence() []model.PatternSpec {
	f := b.analysis.FieldNames
	if len(f) < 2 {
		return nil
	}
	return []model.PatternSpec{b.spec(
		"t3_field_cooccurrence", model.TierCooccurrence,
		fmt.Sprintf("quoted %q followed by quoted %q within %d characters", f[0].Name, f[1].Name, b.s.window),
		[]string{f[0].Name, f[1].Name},
		b.quoted(f[0].Name), fmt.Sprintf(`[\s\S]{0,%d}?`, b.s.window), b.quoted(f[1].Name),
	)}
}

func (b *builder) valueAnchored() []model.PatternSpec {
	var out []model.PatternSpec
	seen := make(map[string]bool)
	for _, want := range b.s.semanticFields {
		name, ok := b.fieldNamed(want)
		if !ok || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		value, ok := b.literalValue(name)
		if !ok {
			continue
		}
		out = append(out, b.spec(
			"t4_"+sanitizeName(name)+"_value", model.TierValueAnchored,
			fmt.Sprintf("quoted %q with value %q", name, value),
			[]string{name, value},
			b.quoted(name), `\s*:\s*`, b.quoted(value),
		))
	}
	return out
}

// fieldNamed finds a field by case-insensitive name.
func (b *builder) fieldNamed(want string) (string, bool) {
	for _, f := range b.analysis.FieldNames {
		if strings.EqualFold(f.Name, want) {
			return f.Name, true
		}
	}
	return "", false
}

// literalValue extracts the first quoted value of name in the seed.
func (b *builder) literalValue(name string) (string, bool) {
	re := regexp.MustCompile("(?is)" + b.quoted(name) + `\s*:\s*` + b.q + fmt.Sprintf(`(.{1,%d}?)`, maxValueLength) + b.q)
	m := re.FindStringSubmatch(b.text)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	return value, true
}

func (b *builder) strictSpan() []model.PatternSpec {
	minSpan := b.s.MinSpanFor(b.text)
	if minSpan > MaxSpan {
		return nil
	}

	var openers []model.StructuralMarker
	if pair, ok := b.openingPair(); ok {
		openers = pair[:]
	} else {
		for _, mk := range b.analysis.Markers {
			if isOpener(mk) {
				openers = append(openers, mk)
				break
			}
		}
	}
	if len(openers) == 0 {
		return nil
	}

	var closers []string
	open := regexp.QuoteMeta(openers[0].Token)
	anchors := []string{openers[0].Token}
	if len(openers) == 2 {
		open = pairSource([2]model.StructuralMarker{openers[0], openers[1]})
		anchors = append(anchors, openers[1].Token)
	}
	for i := len(openers) - 1; i >= 0; i-- {
		closer, _ := openers[i].Kind.Closer()
		// "}}" tokenizes as a double brace but still closes "{".
		if !strings.Contains(b.text, closer.Token()) {
			return nil
		}
		closers = append(closers, regexp.QuoteMeta(closer.Token()))
		anchors = append(anchors, closer.Token())
	}

	return []model.PatternSpec{b.spec(
		"t5_strict_span", model.TierStrictSpan,
		fmt.Sprintf("opening and closing markers around %d to %d characters", minSpan, MaxSpan),
		anchors,
		open, fmt.Sprintf(`[\s\S]{%d,%d}?`, minSpan, MaxSpan), strings.Join(closers, markerGap),
	)}
}

func (b *builder) fieldKeys() []model.PatternSpec {
	var out []model.PatternSpec
	for i, f := range b.analysis.FieldNames {
		if i >= b.s.fieldKeyCount {
			break
		}
		out = append(out, b.spec(
			"t6_field_"+sanitizeName(f.Name), model.TierFieldKey,
			fmt.Sprintf("quoted key %q", f.Name),
			[]string{f.Name},
			b.quoted(f.Name), `\s*:`,
		))
	}
	return out
}

// quoted wraps a literal between two quote-class positions.
func (b *builder) quoted(literal string) string {
	return b.q + regexp.QuoteMeta(literal) + b.q
}

// sanitizeName lower-cases a field name for use inside a pattern name.
func sanitizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// anchorSet lower-cases and deduplicates anchors, dropping non-ASCII ones
// because their case folding differs between the regex engine and strings.ToLower.
func anchorSet(anchors []string) []string {
	out := make([]string, 0, len(anchors))
	seen := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		if a == "" || !isASCII(a) {
			continue
		}
		a = strings.ToLower(a)
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
