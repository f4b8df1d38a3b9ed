// Package triage classifies affected pages by URL shape into priority tiers.
//
// Rules are tried in order and the first match wins. A rule set must end with
// a catch-all rule, so every URL lands in exactly one category. The resulting
// TriageReport is a pure projection of the page results and the rules.
package triage
