// Package pipeline runs a scan run as a sequence of steps.
//
// A run moves through up to four steps: pattern synthesis from the seed,
// fetching of a URL list, concurrent scanning of the corpus, and triage of
// the affected pages. Every step reads from and writes to a model.Run.
//
// Scanning is parallel across pages with errgroup. A page that fails is
// recorded as skipped and the rest of the batch carries on.
package pipeline
