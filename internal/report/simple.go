package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/embedleak/internal/model"
)

const ruleWidth = 70

// SimpleWriter writes plain-text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints sections that have nothing to list.
	showEmpty bool

	// verbose adds URLs, impacts and pattern sources.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty prints empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the run.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "EMBEDLEAK SCAN REPORT")
	w.writeRunHeader(&sb, run)
	if run.Triage != nil {
		w.writeTriage(&sb, run.Triage)
	}
	w.writeSkipped(&sb, run.Skipped)
	w.writeWarnings(&sb, run.Warnings)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteTriage renders a triage report.
func (w *SimpleWriter) WriteTriage(report *model.TriageReport) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "EMBEDLEAK TRIAGE REPORT")
	w.writeTriage(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WritePatterns renders a pattern set.
func (w *SimpleWriter) WritePatterns(ps *model.PatternSet) (int, error) {
	var sb strings.Builder

	w.writeSection(&sb, "PATTERN SET")
	meta := ps.Meta()
	fmt.Fprintf(&sb, "Confidence:   %s\n", meta.Confidence)
	fmt.Fprintf(&sb, "Match Rate:   %.1f%%\n", meta.MatchRate*100)
	fmt.Fprintf(&sb, "Window:       %d\n", meta.Window)
	fmt.Fprintf(&sb, "Min Span:     %d\n", meta.MinSpan)
	if meta.SeedFingerprint != "" {
		fmt.Fprintf(&sb, "Seed:         %s\n", shortFingerprint(meta.SeedFingerprint))
	}
	sb.WriteString("\n")

	if ps.Len() == 0 {
		sb.WriteString("  No patterns\n\n")
	}
	for _, p := range ps.Patterns() {
		fmt.Fprintf(&sb, "  T%d %-28s %s\n", int(p.Tier), p.Name, p.Description)
		if w.verbose {
			fmt.Fprintf(&sb, "     %s\n", p.Source)
		}
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := (ruleWidth - len(title)) / 2
	sb.WriteString(strings.Repeat(" ", max(pad, 0)))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeRunHeader(sb *strings.Builder, run *model.Run) {
	fmt.Fprintf(sb, "Run ID:         %s\n", run.ID)
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if len(run.Pages) > 0 {
		fmt.Fprintf(sb, "Pages Scanned:  %d\n", len(run.Pages))
	}
	if run.Patterns != nil {
		fmt.Fprintf(sb, "Patterns:       %d (confidence %s)\n", run.Patterns.Len(), run.Patterns.Confidence())
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", run.ErrorMessage)
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTriage(sb *strings.Builder, report *model.TriageReport) {
	w.writeSection(sb, "PRIORITY SUMMARY")
	for _, s := range report.Summary {
		fmt.Fprintf(sb, "  %-8s %5d pages  %5.1f%%  %6d matches\n",
			strings.ToUpper(s.Priority.String())+":", s.Pages, s.Percentage, s.Matches)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:   %5d pages          %6d matches\n\n", report.TotalPages, report.TotalMatches)

	if len(report.Categories) > 0 || w.showEmpty {
		w.writeSection(sb, "CATEGORIES")
		if len(report.Categories) == 0 {
			sb.WriteString("  No affected pages\n")
		}
		for _, c := range report.Categories {
			fmt.Fprintf(sb, "  [%s] %s: %d pages, %d matches, avg %.1f\n",
				c.Priority, c.Name, c.Count, c.TotalMatches, c.AverageMatches)
			if w.verbose {
				for _, u := range c.URLs {
					fmt.Fprintf(sb, "      %s\n", u)
				}
			}
		}
		sb.WriteString("\n")
	}

	if len(report.Recommendations) > 0 || w.showEmpty {
		w.writeSection(sb, "RECOMMENDATIONS")
		if len(report.Recommendations) == 0 {
			sb.WriteString("  No action needed\n")
		}
		for _, r := range report.Recommendations {
			fmt.Fprintf(sb, "[%s] %s (%d pages)\n", severityIndicator(r.Severity), r.Severity, r.Pages)
			fmt.Fprintf(sb, "  * %s\n", r.Action)
			if w.verbose && r.Impact != "" {
				fmt.Fprintf(sb, "    Impact: %s\n", r.Impact)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeSkipped(sb *strings.Builder, skipped []model.SkippedPage) {
	if len(skipped) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "SKIPPED PAGES")
	if len(skipped) == 0 {
		sb.WriteString("  None\n")
	}
	for _, s := range skipped {
		fmt.Fprintf(sb, "  [-] %s: %s\n", s.URL, s.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	w.writeSection(sb, "WARNINGS")
	for _, msg := range warnings {
		fmt.Fprintf(sb, "  [!] %s\n", msg)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by embedleak\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// severityIndicator returns a short visual marker for the severity.
func severityIndicator(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityImportant:
		return "!!"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// shortFingerprint returns the first 12 characters of a fingerprint.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
