package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Page is one page of the corpus: a URL plus the content retrieved for it.
//
// Markup is the raw response body. Text is a readable-text extraction and is
// only consulted when no markup is available, since the leak is a markup-level
// artifact that text extraction may already have normalized away.
type Page struct {
	// URL is the absolute page URL. Triage works on its shape only.
	URL string `json:"url"`

	// StatusCode is the HTTP status when the page was fetched, 0 for corpus input.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the MIME type of the response, when known.
	ContentType string `json:"content_type,omitempty"`

	// Markup is the raw markup of the page.
	Markup string `json:"markup,omitempty"`

	// Text is the extracted readable text of the page.
	Text string `json:"text,omitempty"`

	// Hash is the SHA-256 of Content(), used to detect unchanged pages between runs.
	Hash string `json:"hash,omitempty"`
}

// MaxPageSize is the maximum number of content bytes kept per page.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Content returns the text the scanner should search: the markup when present,
// otherwise the readable text. An empty string means the page has no content.
func (p *Page) Content() string {
	if p.Markup != "" {
		return p.Markup
	}
	return p.Text
}

// HasContent reports whether Content would return a non-empty string.
func (p *Page) HasContent() bool {
	return p.Content() != ""
}

// ComputeHash sets Hash from the current content.
func (p *Page) ComputeHash() {
	content := p.Content()
	if content == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(content))
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// Truncate clips Markup and Text to at most MaxPageSize bytes each without
// splitting a UTF-8 sequence.
func (p *Page) Truncate() {
	p.Markup = clip(p.Markup, MaxPageSize)
	p.Text = clip(p.Text, MaxPageSize)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
