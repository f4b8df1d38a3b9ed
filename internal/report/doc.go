// Package report renders triage reports, scan runs and pattern sets as plain
// text, JSON or Markdown.
package report
