package triage

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nao1215/embedleak/internal/model"
)

// Categorizer classifies affected pages by URL shape and builds a TriageReport.
// It holds only immutable state and is safe for concurrent use.
type Categorizer struct {
	rules  *RuleSet
	logger *slog.Logger
}

// CategorizerOption configures a Categorizer.
type CategorizerOption func(*Categorizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CategorizerOption {
	return func(c *Categorizer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCategorizer creates a categorizer. A nil rule set selects DefaultRuleSet.
func NewCategorizer(rules *RuleSet, opts ...CategorizerOption) *Categorizer {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	c := &Categorizer{rules: rules, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the categorizer's rule set.
func (c *Categorizer) Rules() *RuleSet {
	return c.rules
}

// Categorize builds the triage report for results. A nil slice is missing
// input; an empty slice yields an empty report.
func (c *Categorizer) Categorize(results []model.PageResult) (*model.TriageReport, error) {
	if results == nil {
		return nil, fmt.Errorf("%w: no page result collection", ErrMissingCorpusInput)
	}
	for i, r := range results {
		if r.URL == "" {
			return nil, fmt.Errorf("%w: result %d has no url", ErrMissingCorpusInput, i)
		}
		if r.TotalMatches < 0 {
			return nil, fmt.Errorf("%w: result %d (%s) has negative total matches", ErrMissingCorpusInput, i, r.URL)
		}
		for name, n := range r.PatternCounts {
			if n < 0 {
				return nil, fmt.Errorf("%w: result %d (%s) has negative count for %s", ErrMissingCorpusInput, i, r.URL, name)
			}
		}
	}

	rules := c.rules.Rules()
	stats := make([]model.CategoryStats, len(rules))
	for i, rule := range rules {
		stats[i] = model.CategoryStats{
			Name:        rule.Name,
			Priority:    rule.Priority,
			Description: rule.Description,
			URLs:        make([]string, 0),
		}
	}
	index := make(map[string]int, len(rules))
	for i, rule := range rules {
		index[rule.Name] = i
	}

	byPriority := make(map[model.Priority]*model.PrioritySummary, len(model.Priorities))
	for _, p := range model.Priorities {
		byPriority[p] = &model.PrioritySummary{Priority: p}
	}

	report := &model.TriageReport{
		Categories:      make([]model.CategoryStats, 0),
		Recommendations: make([]model.Recommendation, 0),
	}

	for _, r := range results {
		rule, err := c.rules.Classify(r.URL)
		if err != nil {
			c.logger.Error("url escaped the catch-all rule", "url", r.URL)
			return nil, err
		}
		st := &stats[index[rule.Name]]
		st.Count++
		st.TotalMatches += r.TotalMatches
		st.URLs = append(st.URLs, r.URL)

		sum := byPriority[rule.Priority]
		sum.Pages++
		sum.Matches += r.TotalMatches

		report.TotalPages++
		report.TotalMatches += r.TotalMatches
	}

	for _, st := range stats {
		if st.Count == 0 {
			continue
		}
		st.AverageMatches = ratio(st.TotalMatches, st.Count)
		report.Categories = append(report.Categories, st)
	}

	for _, p := range model.Priorities {
		sum := byPriority[p]
		sum.Percentage = Percentage(sum.Pages, report.TotalPages)
		report.Summary = append(report.Summary, *sum)
	}

	report.Recommendations = Recommendations(report)

	c.logger.Debug("triage complete",
		"pages", report.TotalPages,
		"categories", len(report.Categories),
		"recommendations", len(report.Recommendations),
	)
	return report, nil
}

// Recommendations returns the triggered recommendations in fixed order.
func Recommendations(report *model.TriageReport) []model.Recommendation {
	out := make([]model.Recommendation, 0)
	for _, p := range model.RecommendationOrder {
		sum := report.SummaryFor(p)
		if sum.Pages == 0 {
			continue
		}
		info, ok := model.GetRecommendationInfo(p)
		if !ok {
			continue
		}
		out = append(out, model.Recommendation{
			Severity: info.Severity,
			Priority: p,
			Pages:    sum.Pages,
			Action:   info.Action,
			Impact:   info.Impact,
		})
	}
	return out
}

// Percentage returns part/total as a percentage rounded to one decimal, or 0
// when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}

// ratio returns n/d, or 0 when d is 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
