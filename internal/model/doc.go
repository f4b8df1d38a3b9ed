// Package model defines the data structures shared by the embedleak packages.
//
// The main types are:
//   - SeedExample: one confirmed occurrence of the markup-leak defect
//   - Analysis: anomalies, structural markers and field names found in a seed
//   - PatternSet: the immutable, ordered set of synthesized detection patterns
//   - Page, PageResult, SkippedPage: corpus input and per-page scan output
//   - TriageReport: the priority breakdown of affected pages
//   - Run: the state of one scan run as it moves through the pipeline
//
// Models live in their own package so that pattern, scan, triage, report and
// database can share them without import cycles. All of them serialize to JSON.
package model
