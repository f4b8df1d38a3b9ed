package model

// MatchRecord is one pattern match inside a page.
type MatchRecord struct {
	Pattern string `json:"pattern"`

	// Start and End are byte offsets into the scanned content; End is exclusive.
	Start int `json:"start"`
	End   int `json:"end"`

	// Snippet is the content around the match.
	Snippet string `json:"snippet"`
}

// PageResult is the scan outcome for a page with at least one match.
// A page without a PageResult is clean, not unscanned: pages that could not be
// scanned are reported as SkippedPage.
type PageResult struct {
	URL string `json:"url"`

	// PatternCounts maps pattern name to its number of non-overlapping matches.
	// Patterns with zero matches are omitted.
	PatternCounts map[string]int `json:"pattern_counts"`

	// TotalMatches is the sum of PatternCounts.
	TotalMatches int `json:"total_matches"`

	// Snippet is the context around the first match of the first matching
	// pattern in name order.
	Snippet string `json:"snippet"`
}

// MatchedPatterns returns the number of distinct patterns that matched.
func (r *PageResult) MatchedPatterns() int {
	return len(r.PatternCounts)
}

// SkippedPage is a page whose retrieval or scan failed. The rest of the batch
// is unaffected.
type SkippedPage struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ResultSet is the interchange form of one scan run's page results.
type ResultSet struct {
	RunID   string        `json:"run_id,omitempty"`
	Results []PageResult  `json:"results"`
	Skipped []SkippedPage `json:"skipped,omitempty"`
}
