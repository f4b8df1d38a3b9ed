package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/runenames"

	"github.com/nao1215/embedleak/internal/model"
)

// otherLabels names non-quote characters that commonly appear in leaked markup.
var otherLabels = map[rune]string{
	0x00A0: "non-breaking space",
	0x200B: "zero-width space",
	0x200C: "zero-width non-joiner",
	0x200D: "zero-width joiner",
	0xFEFF: "byte order mark",
	0x2013: "en dash",
	0x2014: "em dash",
	0x2026: "horizontal ellipsis",
	0x00AB: "left guillemet",
	0x00BB: "right guillemet",
	0xFFFD: "replacement character",
}

// fieldNamePattern is the identifier shape accepted as a field name.
const fieldNamePattern = `[A-Za-z_][A-Za-z0-9_\-]{0,63}`

// Analyzer extracts character anomalies, structural markers and field names
// from a seed example. It is safe for concurrent use.
type Analyzer struct {
	quotes  *QuoteClass
	fieldRe *regexp.Regexp
}

// NewAnalyzer creates an analyzer that labels quotes from the given class.
// A nil class selects DefaultQuoteClass.
func NewAnalyzer(quotes *QuoteClass) *Analyzer {
	if quotes == nil {
		quotes = DefaultQuoteClass()
	}

	q := quotes.Fragment()
	return &Analyzer{
		quotes:  quotes,
		fieldRe: regexp.MustCompile("(?i)" + q + "(" + fieldNamePattern + ")" + q + `\s*:`),
	}
}

// Analyze inspects the seed. The description is never consulted.
func (a *Analyzer) Analyze(seed model.SeedExample) (*model.Analysis, error) {
	if seed.IsEmpty() {
		return nil, ErrInvalidInput
	}
	text := seed.Text()

	return &model.Analysis{
		Anomalies:  a.anomalies(text),
		Markers:    a.structuralMarkers(text),
		FieldNames: a.fieldNames(text),
	}, nil
}

// anomalies records every distinct character outside printable ASCII, in
// order of first occurrence. Tab, newline and carriage return are layout, not
// anomalies.
func (a *Analyzer) anomalies(text string) []model.CharacterAnomaly {
	out := make([]model.CharacterAnomaly, 0)
	index := make(map[rune]int)

	for offset, r := range text {
		if (r >= 0x20 && r <= 0x7E) || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if i, ok := index[r]; ok {
			out[i].Count++
			continue
		}

		an := model.CharacterAnomaly{
			Char:        string(r),
			Codepoint:   codepointLabel(r),
			Name:        runenames.Name(r),
			Count:       1,
			FirstOffset: offset,
		}
		if label, ok := a.quotes.Label(r); ok {
			an.Label = label
			an.Quote = true
		} else if label, ok := otherLabels[r]; ok {
			an.Label = label
		} else {
			an.Label = an.Codepoint
		}

		index[r] = len(out)
		out = append(out, an)
	}
	return out
}

// structuralMarkers returns the vocabulary tokens present in text, ordered by
// their first standalone occurrence. The longest-token-first walk keeps the
// halves of "[[" from counting as "[".
func (a *Analyzer) structuralMarkers(text string) []model.StructuralMarker {
	out := make([]model.StructuralMarker, 0, len(model.MarkerVocabulary))
	seen := make(map[model.MarkerKind]bool, len(model.MarkerVocabulary))
	for _, tok := range tokenize(text) {
		if seen[tok.Kind] {
			continue
		}
		seen[tok.Kind] = true
		out = append(out, tok)
	}
	return out
}

// tokenize walks text and returns every standalone marker token in order.
func tokenize(text string) []model.StructuralMarker {
	var out []model.StructuralMarker
	for i := 0; i < len(text); {
		matched := false
		for _, v := range model.MarkerVocabulary {
			if strings.HasPrefix(text[i:], v.Token) {
				out = append(out, model.StructuralMarker{Kind: v.Kind, Token: v.Token, Offset: i})
				i += len(v.Token)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

// fieldNames extracts quote-delimited keys followed by a colon, deduplicated
// case-insensitively and ranked by first appearance.
func (a *Analyzer) fieldNames(text string) []model.FieldName {
	out := make([]model.FieldName, 0)
	seen := make(map[string]bool)

	for _, m := range a.fieldRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.FieldName{Name: name, Rank: len(out), Offset: m[0]})
	}
	return out
}

// DescribeAnomaly renders an anomaly for logs and reports.
func DescribeAnomaly(an model.CharacterAnomaly) string {
	if an.Name != "" && an.Label != an.Codepoint {
		return fmt.Sprintf("%s %s (%s) x%d", an.Codepoint, an.Label, an.Name, an.Count)
	}
	if an.Name != "" {
		return fmt.Sprintf("%s (%s) x%d", an.Codepoint, an.Name, an.Count)
	}
	return fmt.Sprintf("%s x%d", an.Codepoint, an.Count)
}
