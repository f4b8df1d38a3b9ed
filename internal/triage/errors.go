package triage

import "errors"

var (
	// ErrMissingCorpusInput is returned when the page result collection is
	// absent or structurally invalid. It fails the categorization step.
	ErrMissingCorpusInput = errors.New("missing corpus input")

	// ErrUncategorizedURL means no rule matched a URL. A validated rule set
	// ends with a catch-all, so this indicates an internal defect.
	ErrUncategorizedURL = errors.New("internal error: url matched no category rule")

	// ErrNoCatchAll is returned when a rule list does not end with a catch-all rule.
	ErrNoCatchAll = errors.New("rule list must end with a catch-all rule")

	// ErrInvalidRule is returned for an unusable rule definition.
	ErrInvalidRule = errors.New("invalid category rule")
)
