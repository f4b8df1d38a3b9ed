package model

// CharacterAnomaly is a character in the seed outside printable ASCII.
type CharacterAnomaly struct {
	// Char is the character itself.
	Char string `json:"char"`

	// Codepoint is the "U+XXXX" form of the character.
	Codepoint string `json:"codepoint"`

	// Label is a semantic label such as "double prime" when the character is
	// recognized, otherwise the generic codepoint label.
	Label string `json:"label"`

	// Name is the Unicode character name, e.g. "RIGHT DOUBLE QUOTATION MARK".
	Name string `json:"name,omitempty"`

	// Quote is true when the character belongs to the quote class. Synthesized
	// patterns treat such positions as "any quote".
	Quote bool `json:"quote"`

	// Count is the number of occurrences in the seed.
	Count int `json:"count"`

	// FirstOffset is the byte offset of the first occurrence.
	FirstOffset int `json:"first_offset"`
}

// MarkerKind identifies one token of the closed structural vocabulary.
type MarkerKind string

// The structural vocabulary. Double tokens come first so that tokenization
// prefers them over their single counterparts.
const (
	MarkerDoubleBracketOpen  MarkerKind = "double_bracket_open"
	MarkerDoubleBracketClose MarkerKind = "double_bracket_close"
	MarkerDoubleBraceOpen    MarkerKind = "double_brace_open"
	MarkerDoubleBraceClose   MarkerKind = "double_brace_close"
	MarkerBracketOpen        MarkerKind = "bracket_open"
	MarkerBracketClose       MarkerKind = "bracket_close"
	MarkerBraceOpen          MarkerKind = "brace_open"
	MarkerBraceClose         MarkerKind = "brace_close"
)

// MarkerVocabulary maps every marker kind to its literal token, in tokenization order.
var MarkerVocabulary = []struct {
	Kind  MarkerKind
	Token string
}{
	{MarkerDoubleBracketOpen, "[["},
	{MarkerDoubleBracketClose, "]]"},
	{MarkerDoubleBraceOpen, "{{"},
	{MarkerDoubleBraceClose, "}}"},
	{MarkerBracketOpen, "["},
	{MarkerBracketClose, "]"},
	{MarkerBraceOpen, "{"},
	{MarkerBraceClose, "}"},
}

// Token returns the literal token for the marker kind, or "" for an unknown kind.
func (k MarkerKind) Token() string {
	for _, v := range MarkerVocabulary {
		if v.Kind == k {
			return v.Token
		}
	}
	return ""
}

// Closer returns the closing counterpart of an opening marker.
// The second return value is false for closing or unknown markers.
func (k MarkerKind) Closer() (MarkerKind, bool) {
	switch k {
	case MarkerDoubleBracketOpen:
		return MarkerDoubleBracketClose, true
	case MarkerDoubleBraceOpen:
		return MarkerDoubleBraceClose, true
	case MarkerBracketOpen:
		return MarkerBracketClose, true
	case MarkerBraceOpen:
		return MarkerBraceClose, true
	default:
		return "", false
	}
}

// StructuralMarker is a vocabulary token present in the seed.
type StructuralMarker struct {
	Kind  MarkerKind `json:"kind"`
	Token string     `json:"token"`

	// Offset is the byte offset of the first standalone occurrence. A "[" that
	// is half of "[[" is not a standalone occurrence of "[".
	Offset int `json:"offset"`
}

// FieldName is a key taken from a quoted `name:` construct in the seed.
type FieldName struct {
	Name string `json:"name"`

	// Rank is the zero-based order of first appearance; lower is more defining.
	Rank int `json:"rank"`

	// Offset is the byte offset of the opening quote of the first occurrence.
	Offset int `json:"offset"`
}

// Analysis is the output of the example analyzer for one seed.
type Analysis struct {
	Anomalies  []CharacterAnomaly `json:"anomalies"`
	Markers    []StructuralMarker `json:"markers"`
	FieldNames []FieldName        `json:"field_names"`
}

// FieldNameStrings returns the field names in rank order.
func (a *Analysis) FieldNameStrings() []string {
	names := make([]string, len(a.FieldNames))
	for i, f := range a.FieldNames {
		names[i] = f.Name
	}
	return names
}

// HasMarker reports whether the given marker kind is present.
func (a *Analysis) HasMarker(kind MarkerKind) bool {
	for _, m := range a.Markers {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// QuoteAnomalies returns the anomalies that belong to the quote class.
func (a *Analysis) QuoteAnomalies() []CharacterAnomaly {
	quotes := make([]CharacterAnomaly, 0)
	for _, an := range a.Anomalies {
		if an.Quote {
			quotes = append(quotes, an)
		}
	}
	return quotes
}
