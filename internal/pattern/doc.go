// Package pattern turns one confirmed markup-leak example into a tiered set of
// detection patterns.
//
// The Analyzer extracts character anomalies, structural markers and field
// names from the seed. The Synthesizer builds up to six tiers of patterns from
// that analysis, from the broad opening-structure pattern (tier 1) to the
// per-field key patterns used for diagnostics (tier 6). Validate re-applies
// the patterns to the seed and scores the set with a ConfidencePolicy.
//
// Every quote position in every pattern is the QuoteClass union, so a pattern
// built from an ASCII-quoted seed also matches curly, prime, fullwidth and
// entity-escaped quotes. Every wildcard span is bounded and all patterns run
// on Go's linear-time regexp engine.
package pattern
