package pattern

import (
	"errors"
	"regexp"
	"testing"
)

// TestQuoteClassFragment tests which forms the quote fragment accepts.
func TestQuoteClassFragment(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile("(?i)^" + DefaultQuoteClass().Fragment() + "$")

	accepted := []string{
		`"`, `'`, "“", "”", "‘", "’", "„", "′", "″", "＂", "＇",
		"&quot;", "&QUOT;", "&apos;", "&ldquo;", "&rsquo;",
		"&#34;", "&#034;", "&#39;", "&#8220;", "&#x22;", "&#X201D;", "&#x00027;",
	}
	for _, s := range accepted {
		if !re.MatchString(s) {
			t.Errorf("fragment should accept %q", s)
		}
	}

	rejected := []string{"`", "a", "&amp;", "&#35;", "&#x23;", "&quot", ""}
	for _, s := range rejected {
		if re.MatchString(s) {
			t.Errorf("fragment should reject %q", s)
		}
	}
}

// TestNewQuoteClass tests catalogue validation and normalization.
func TestNewQuoteClass(t *testing.T) {
	t.Parallel()

	t.Run("normalizes entity names", func(t *testing.T) {
		t.Parallel()

		q, err := NewQuoteClass([]QuoteChar{{Char: '"'}}, []string{"&quot;", "quot", " apos "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(q.Entities()) != 2 {
			t.Errorf("got entities %v, expected 2", q.Entities())
		}
		if label, _ := q.Label('"'); label != "U+0022" {
			t.Errorf("missing label should default to the codepoint, got %q", label)
		}
	})

	t.Run("rejects bad entities", func(t *testing.T) {
		t.Parallel()

		_, err := NewQuoteClass(DefaultQuoteChars, []string{"qu ot"})
		if !errors.Is(err, ErrInvalidQuoteCatalogue) {
			t.Errorf("expected ErrInvalidQuoteCatalogue, got %v", err)
		}
	})

	t.Run("rejects empty catalogue", func(t *testing.T) {
		t.Parallel()

		_, err := NewQuoteClass(nil, nil)
		if !errors.Is(err, ErrInvalidQuoteCatalogue) {
			t.Errorf("expected ErrInvalidQuoteCatalogue, got %v", err)
		}
	})

	t.Run("chars are copied", func(t *testing.T) {
		t.Parallel()

		q := DefaultQuoteClass()
		chars := q.Chars()
		chars[0].Label = "changed"
		if label, _ := q.Label(chars[0].Char); label == "changed" {
			t.Error("Chars must return a copy")
		}
	})
}
