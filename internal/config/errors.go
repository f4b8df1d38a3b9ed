package config

import "errors"

// Configuration validation errors returned by Config.Validate and the File
// builders.
var (
	// ErrNoSeed is returned when a scan has neither a seed example nor a
	// saved pattern set.
	ErrNoSeed = errors.New("no seed specified: provide --seed, --seed-file or --patterns")

	// ErrConflictingSeeds is returned when a seed and a pattern set are both given.
	ErrConflictingSeeds = errors.New("conflicting inputs: a seed and --patterns cannot be used together")

	// ErrNoCorpus is returned when a scan has no pages and no URLs.
	ErrNoCorpus = errors.New("no corpus specified: provide --corpus, --urls or URL arguments")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the scan concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidSnippetRadius is returned when the snippet radius is negative.
	ErrInvalidSnippetRadius = errors.New("invalid snippet radius: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrInvalidThresholds is returned when confidence thresholds are not
	// ordered 0 < medium <= high <= 1.
	ErrInvalidThresholds = errors.New("invalid confidence thresholds: need 0 < medium <= high <= 1")

	// ErrInvalidQuoteChar is returned when a quote catalogue entry is not
	// exactly one character.
	ErrInvalidQuoteChar = errors.New("invalid quote character: must be a single character")
)
