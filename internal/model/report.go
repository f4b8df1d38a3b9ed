package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is the state of one scan run as it moves through the pipeline.
// Steps read their inputs from it and record their outputs on it.
type Run struct {
	// ID identifies the run in the history database.
	ID string `json:"run_id"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time of the completed run.
	Duration time.Duration `json:"duration"`

	// Seed is the defect example the patterns are synthesized from.
	// It is empty when a pattern set was loaded instead.
	Seed SeedExample `json:"-"`

	// Analysis is the analyzer output for Seed, when synthesis ran.
	Analysis *Analysis `json:"analysis,omitempty"`

	// Patterns is the pattern set applied to the corpus.
	Patterns *PatternSet `json:"patterns,omitempty"`

	// URLs lists pages to fetch before scanning.
	URLs []string `json:"urls,omitempty"`

	// Pages is the corpus to scan, in input order.
	Pages []*Page `json:"-"`

	// Results holds one entry per affected page, in input order.
	Results []PageResult `json:"results"`

	// Skipped lists pages that could not be fetched or scanned.
	Skipped []SkippedPage `json:"skipped,omitempty"`

	// Triage is the categorization of Results.
	Triage *TriageReport `json:"triage,omitempty"`

	// Warnings are non-fatal conditions, such as an empty pattern set.
	Warnings []string `json:"warnings,omitempty"`

	// Error is the failure that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRun creates a run with a fresh ID.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]PageResult, 0),
	}
}

// AddWarning records a non-fatal condition once.
func (r *Run) AddWarning(msg string) {
	for _, w := range r.Warnings {
		if w == msg {
			return
		}
	}
	r.Warnings = append(r.Warnings, msg)
}

// AddSkipped records a page that could not be processed.
func (r *Run) AddSkipped(url, reason string) {
	r.Skipped = append(r.Skipped, SkippedPage{URL: url, Reason: reason})
}

// ResultSet returns the run's results in interchange form.
func (r *Run) ResultSet() ResultSet {
	return ResultSet{
		RunID:   r.ID,
		Results: r.Results,
		Skipped: r.Skipped,
	}
}

// Finish records the run's error and duration.
func (r *Run) Finish(err error) {
	r.Duration = time.Since(r.StartedAt)
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}
