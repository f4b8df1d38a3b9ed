package database

import (
	"context"
	"fmt"

	"github.com/nao1215/embedleak/internal/model"
)

// PriorityDelta is the change in affected pages for one priority.
type PriorityDelta struct {
	Priority model.Priority `json:"priority"`
	Before   int            `json:"before"`
	After    int            `json:"after"`
	Delta    int            `json:"delta"`
}

// RunDiff describes how a target run differs from a base run.
type RunDiff struct {
	BaseID   string `json:"base_id"`
	TargetID string `json:"target_id"`

	// NewlyAffected lists URLs affected in the target but not the base,
	// in target order.
	NewlyAffected []string `json:"newly_affected"`

	// Resolved lists URLs affected in the base but not the target,
	// in base order.
	Resolved []string `json:"resolved"`

	// Persisting counts URLs affected in both runs.
	Persisting int `json:"persisting"`

	// MatchDelta is the change in total matches.
	MatchDelta int `json:"match_delta"`

	// Priorities is ordered high, medium, low, skip. It is empty when
	// either run has no triage report.
	Priorities []PriorityDelta `json:"priorities"`
}

// HasChanges reports whether any URL changed state.
func (d *RunDiff) HasChanges() bool {
	return len(d.NewlyAffected) > 0 || len(d.Resolved) > 0
}

// Compare diffs the stored results of two runs.
func (h *HistoryDB) Compare(ctx context.Context, baseID, targetID string) (*RunDiff, error) {
	base, err := h.GetRun(ctx, baseID)
	if err != nil {
		return nil, err
	}
	target, err := h.GetRun(ctx, targetID)
	if err != nil {
		return nil, err
	}
	baseResults, err := h.GetPageResults(ctx, baseID)
	if err != nil {
		return nil, err
	}
	targetResults, err := h.GetPageResults(ctx, targetID)
	if err != nil {
		return nil, err
	}

	diff := DiffResults(baseResults, targetResults)
	diff.BaseID = base.ID
	diff.TargetID = target.ID
	diff.MatchDelta = target.TotalMatches - base.TotalMatches
	if base.Triage != nil && target.Triage != nil {
		diff.Priorities = diffPriorities(base.Triage, target.Triage)
	}
	return diff, nil
}

// CompareLatest diffs the two most recent runs.
func (h *HistoryDB) CompareLatest(ctx context.Context) (*RunDiff, error) {
	runs, err := h.ListRuns(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("need two runs to compare, have %d: %w", len(runs), ErrNotFound)
	}
	return h.Compare(ctx, runs[1].ID, runs[0].ID)
}

// DiffResults compares two result lists by URL. Only URL sets are filled.
func DiffResults(base, target []model.PageResult) *RunDiff {
	inBase := make(map[string]struct{}, len(base))
	for _, r := range base {
		inBase[r.URL] = struct{}{}
	}
	inTarget := make(map[string]struct{}, len(target))
	for _, r := range target {
		inTarget[r.URL] = struct{}{}
	}

	diff := &RunDiff{
		NewlyAffected: make([]string, 0),
		Resolved:      make([]string, 0),
	}
	for _, r := range target {
		if _, ok := inBase[r.URL]; ok {
			diff.Persisting++
		} else {
			diff.NewlyAffected = append(diff.NewlyAffected, r.URL)
		}
	}
	for _, r := range base {
		if _, ok := inTarget[r.URL]; !ok {
			diff.Resolved = append(diff.Resolved, r.URL)
		}
	}
	return diff
}

func diffPriorities(base, target *model.TriageReport) []PriorityDelta {
	deltas := make([]PriorityDelta, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		before := base.SummaryFor(p).Pages
		after := target.SummaryFor(p).Pages
		deltas = append(deltas, PriorityDelta{
			Priority: p,
			Before:   before,
			After:    after,
			Delta:    after - before,
		})
	}
	return deltas
}
