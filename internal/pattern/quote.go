package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// QuoteChar is one catalogue entry: a quote-like character and its label.
type QuoteChar struct {
	Char  rune
	Label string
}

// DefaultQuoteChars is the built-in catalogue of interchangeable quote characters.
var DefaultQuoteChars = []QuoteChar{
	{'"', "ascii double quote"},
	{'\'', "ascii single quote"},
	{'‘', "left single curly quote"},
	{'’', "right single curly quote"},
	{'‚', "single low-9 quote"},
	{'‛', "single high-reversed-9 quote"},
	{'“', "left double curly quote"},
	{'”', "right double curly quote"},
	{'„', "double low-9 quote"},
	{'‟', "double high-reversed-9 quote"},
	{'′', "prime"},
	{'″', "double prime"},
	{'‴', "triple prime"},
	{'‵', "reversed prime"},
	{'‶', "reversed double prime"},
	{'‷', "reversed triple prime"},
	{'ʼ', "modifier letter apostrophe"},
	{'＂', "fullwidth double quote"},
	{'＇', "fullwidth single quote"},
}

// DefaultQuoteEntities lists the named HTML entities that stand for a quote.
var DefaultQuoteEntities = []string{
	"quot", "apos", "ldquo", "rdquo", "lsquo", "rsquo", "bdquo", "sbquo", "prime", "Prime",
}

var entityNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,31}$`)

// QuoteClass is the immutable set of characters and escape forms treated as
// one interchangeable quote. Build it once from configuration and share it.
type QuoteClass struct {
	chars    []QuoteChar
	entities []string
	labels   map[rune]string
	fragment string
}

// NewQuoteClass builds a quote class from catalogue entries and entity names.
// Entity names may be given with or without the surrounding "&" and ";".
func NewQuoteClass(chars []QuoteChar, entities []string) (*QuoteClass, error) {
	if len(chars) == 0 {
		return nil, fmt.Errorf("%w: no quote characters", ErrInvalidQuoteCatalogue)
	}

	q := &QuoteClass{
		labels: make(map[rune]string, len(chars)),
	}
	for _, c := range chars {
		if c.Char == utf8.RuneError || !utf8.ValidRune(c.Char) {
			return nil, fmt.Errorf("%w: invalid character %U", ErrInvalidQuoteCatalogue, c.Char)
		}
		if _, dup := q.labels[c.Char]; dup {
			continue
		}
		label := c.Label
		if label == "" {
			label = codepointLabel(c.Char)
		}
		q.labels[c.Char] = label
		q.chars = append(q.chars, QuoteChar{Char: c.Char, Label: label})
	}

	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		name := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(e), "&"), ";")
		if !entityNameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: invalid entity %q", ErrInvalidQuoteCatalogue, e)
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		q.entities = append(q.entities, name)
	}

	q.fragment = q.buildFragment()
	return q, nil
}

// DefaultQuoteClass returns the quote class built from the default catalogue.
func DefaultQuoteClass() *QuoteClass {
	q, err := NewQuoteClass(DefaultQuoteChars, DefaultQuoteEntities)
	if err != nil {
		panic(err) // the built-in catalogue is valid
	}
	return q
}

// buildFragment returns the regex union of the literal characters, the named
// entities and the decimal and hexadecimal character references.
func (q *QuoteClass) buildFragment() string {
	var literal, dec, hex strings.Builder
	for i, c := range q.chars {
		fmt.Fprintf(&literal, `\x{%x}`, c.Char)
		if i > 0 {
			dec.WriteByte('|')
			hex.WriteByte('|')
		}
		fmt.Fprintf(&dec, "%d", c.Char)
		fmt.Fprintf(&hex, "%x", c.Char)
	}

	alts := []string{"[" + literal.String() + "]"}
	if len(q.entities) > 0 {
		alts = append(alts, "&(?:"+strings.Join(q.entities, "|")+");")
	}
	alts = append(alts,
		"&#0*(?:"+dec.String()+");",
		"&#x0*(?:"+hex.String()+");",
	)
	return "(?:" + strings.Join(alts, "|") + ")"
}

// Fragment returns the non-capturing regex group matching any one quote.
// Patterns compiled with the (?i) flag also match upper-case entity forms.
func (q *QuoteClass) Fragment() string {
	return q.fragment
}

// IsQuote reports whether r is a catalogue character.
func (q *QuoteClass) IsQuote(r rune) bool {
	_, ok := q.labels[r]
	return ok
}

// Label returns the catalogue label of r.
func (q *QuoteClass) Label(r rune) (string, bool) {
	l, ok := q.labels[r]
	return l, ok
}

// Chars returns a copy of the catalogue characters.
func (q *QuoteClass) Chars() []QuoteChar {
	out := make([]QuoteChar, len(q.chars))
	copy(out, q.chars)
	return out
}

// Entities returns a copy of the entity names.
func (q *QuoteClass) Entities() []string {
	out := make([]string, len(q.entities))
	copy(out, q.entities)
	return out
}

// codepointLabel is the generic label for characters the catalogues do not know.
func codepointLabel(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}
