package model

// CategoryStats aggregates the affected pages that fell into one category.
type CategoryStats struct {
	Name        string   `json:"name"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description,omitempty"`

	// Count is the number of pages in the category.
	Count int `json:"count"`

	// TotalMatches is the sum of the pages' total matches.
	TotalMatches int `json:"total_matches"`

	// AverageMatches is TotalMatches / Count, or 0 when Count is 0.
	AverageMatches float64 `json:"average_matches"`

	// URLs lists the category's pages in input order.
	URLs []string `json:"urls"`
}

// PrioritySummary is the global breakdown for one priority tier.
type PrioritySummary struct {
	Priority Priority `json:"priority"`
	Pages    int      `json:"pages"`
	Matches  int      `json:"matches"`

	// Percentage is the share of all affected pages, rounded to one decimal.
	Percentage float64 `json:"percentage"`
}

// Recommendation is one entry of the ordered action list.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Priority Priority `json:"priority"`
	Pages    int      `json:"pages"`
	Action   string   `json:"action"`
	Impact   string   `json:"impact,omitempty"`
}

// TriageReport is the result of categorizing a collection of page results.
// It is a pure projection of those results plus the rule list.
type TriageReport struct {
	// TotalPages is the number of categorized page results.
	TotalPages int `json:"total_pages"`

	// TotalMatches is the sum of all pages' total matches.
	TotalMatches int `json:"total_matches"`

	// Summary has one entry per priority, ordered high, medium, low, skip.
	Summary []PrioritySummary `json:"summary"`

	// Categories lists non-empty categories in rule order.
	Categories []CategoryStats `json:"categories"`

	// Recommendations is ordered CRITICAL, IMPORTANT, INFO and only holds
	// triggered entries.
	Recommendations []Recommendation `json:"recommendations"`
}

// SummaryFor returns the summary entry for a priority.
func (r *TriageReport) SummaryFor(p Priority) PrioritySummary {
	for _, s := range r.Summary {
		if s.Priority == p {
			return s
		}
	}
	return PrioritySummary{Priority: p}
}

// Category returns the stats for a category by name.
func (r *TriageReport) Category(name string) (CategoryStats, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryStats{}, false
}
