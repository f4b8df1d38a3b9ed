package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestPageContent tests markup preference and the text fallback.
func TestPageContent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		page     Page
		expected string
	}{
		{"markup preferred", Page{Markup: "<p>[[{</p>", Text: "[[{"}, "<p>[[{</p>"},
		{"text fallback", Page{Text: "readable"}, "readable"},
		{"no content", Page{URL: "https://example.com/"}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.page.Content(); got != tc.expected {
				t.Errorf("Content() = %q, expected %q", got, tc.expected)
			}
			if tc.page.HasContent() != (tc.expected != "") {
				t.Errorf("HasContent() = %v, expected %v", tc.page.HasContent(), tc.expected != "")
			}
		})
	}
}

// TestPageComputeHash tests that the hash follows the scanned content.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	leak := &Page{URL: "https://example.com/a", Markup: "<p>[[{\"fid\":\"1\"}]]</p>"}
	same := &Page{URL: "https://example.com/b", Markup: leak.Markup, Text: "ignored"}
	textOnly := &Page{Text: leak.Markup}
	changed := &Page{Markup: leak.Markup + " "}
	empty := &Page{URL: "https://example.com/empty", Hash: "stale"}
	for _, p := range []*Page{leak, same, textOnly, changed, empty} {
		p.ComputeHash()
	}

	if len(leak.Hash) != 64 {
		t.Fatalf("expected a hex SHA-256, got %q", leak.Hash)
	}
	if leak.Hash != same.Hash || leak.Hash != textOnly.Hash {
		t.Error("pages with the same content should share a hash regardless of url or field")
	}
	if leak.Hash == changed.Hash {
		t.Error("a content change should change the hash")
	}
	if empty.Hash != "" {
		t.Errorf("expected a cleared hash for an empty page, got %q", empty.Hash)
	}
}

// TestPageIsHTML tests the IsHTML method.
func TestPageIsHTML(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		contentType string
		expected    bool
	}{
		{" Text/HTML ; charset=ISO-8859-1", true},
		{"text/html;charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/ld+json", false},
		{"text/plain; charset=utf-8", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.contentType, func(t *testing.T) {
			t.Parallel()

			page := &Page{ContentType: tc.contentType}
			if page.IsHTML() != tc.expected {
				t.Errorf("IsHTML() for %q = %v, expected %v", tc.contentType, page.IsHTML(), tc.expected)
			}
		})
	}
}

// TestPageTruncate tests the Truncate method.
func TestPageTruncate(t *testing.T) {
	t.Parallel()

	t.Run("does not truncate small content", func(t *testing.T) {
		t.Parallel()

		page := &Page{Markup: "small", Text: "small"}
		page.Truncate()

		if page.Markup != "small" || page.Text != "small" {
			t.Errorf("content changed: %q / %q", page.Markup, page.Text)
		}
	})

	t.Run("truncates large content", func(t *testing.T) {
		t.Parallel()

		page := &Page{Markup: strings.Repeat("x", MaxPageSize+10)}
		page.Truncate()

		if len(page.Markup) != MaxPageSize {
			t.Errorf("got %d bytes, expected %d", len(page.Markup), MaxPageSize)
		}
	})
	t.Run("keeps runes whole", func(t *testing.T) {
		t.Parallel()

		// "“" is three bytes; the limit falls inside the second one.
		text := strings.Repeat("x", MaxPageSize-4) + strings.Repeat("“", 3)
		page := &Page{Text: text}
		page.Truncate()

		if !utf8.ValidString(page.Text) {
			t.Error("truncated text is not valid UTF-8")
		}
		if want := strings.Repeat("x", MaxPageSize-4) + "“"; page.Text != want {
			t.Errorf("got %d bytes, expected %d", len(page.Text), len(want))
		}
	})
}
