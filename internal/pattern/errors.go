package pattern

import "errors"

var (
	// ErrInvalidInput is returned when the seed text is empty or whitespace only.
	// It is fatal to synthesis.
	ErrInvalidInput = errors.New("invalid input: seed example text is empty")

	// ErrEmptyPatternSet is reported when no tier could be built from the seed.
	// It is not fatal: the empty set is returned with low confidence.
	ErrEmptyPatternSet = errors.New("empty pattern set: no tier could be built from the seed")

	// ErrInvalidQuoteCatalogue is returned when a quote catalogue entry is unusable.
	ErrInvalidQuoteCatalogue = errors.New("invalid quote catalogue")

	// ErrInvalidWindow is returned when the co-occurrence window is out of range.
	ErrInvalidWindow = errors.New("invalid co-occurrence window: must be between 500 and 1000")
)
