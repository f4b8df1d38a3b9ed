package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/embedleak/internal/model"
)

// MarkdownWriter writes reports as GitHub-flavored Markdown, with a mermaid
// pie chart of the priority distribution.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the run.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Embed Leak Scan Report")
	md.PlainText("")
	rows := [][]string{
		{"Run ID", "`" + run.ID + "`"},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if len(run.Pages) > 0 {
		rows = append(rows, []string{"Pages Scanned", strconv.Itoa(len(run.Pages))})
	}
	if run.Patterns != nil {
		rows = append(rows, []string{"Patterns", fmt.Sprintf("%d (confidence %s)", run.Patterns.Len(), run.Patterns.Confidence())})
	}
	rows = append(rows, []string{"Status", statusText(run)})
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	if run.Triage != nil {
		w.writeTriage(md, run.Triage)
	}
	w.writeSkipped(md, run.Skipped)
	for _, msg := range run.Warnings {
		md.Warningf("%s", msg)
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteTriage renders a triage report.
func (w *MarkdownWriter) WriteTriage(report *model.TriageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Embed Leak Triage Report")
	md.PlainText("")
	w.writeTriage(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WritePatterns renders a pattern set.
func (w *MarkdownWriter) WritePatterns(ps *model.PatternSet) (int, error) {
	md := markdown.NewMarkdown(w.output)
	meta := ps.Meta()

	md.H1("Pattern Set")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Confidence", string(meta.Confidence)},
			{"Match Rate", fmt.Sprintf("%.1f%%", meta.MatchRate*100)},
			{"Window", strconv.Itoa(meta.Window)},
			{"Min Span", strconv.Itoa(meta.MinSpan)},
			{"Seed", "`" + shortFingerprint(meta.SeedFingerprint) + "`"},
		},
	})
	md.PlainText("")

	md.H2("Patterns")
	md.PlainText("")
	if ps.Len() == 0 {
		md.Cautionf("Synthesis produced no usable patterns.")
		md.PlainText("")
	} else {
		rows := make([][]string, 0, ps.Len())
		for _, p := range ps.Patterns() {
			rows = append(rows, []string{"`" + p.Name + "`", p.Tier.String(), p.Description})
		}
		md.Table(markdown.TableSet{Header: []string{"Name", "Tier", "Description"}, Rows: rows})
		md.PlainText("")
		for _, p := range ps.Patterns() {
			md.Details(p.Name, "`"+p.Source+"`")
		}
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeTriage(md *markdown.Markdown, report *model.TriageReport) {
	md.H2("Priority Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Summary)+1)
	for _, s := range report.Summary {
		rows = append(rows, []string{
			priorityLabel(s.Priority),
			strconv.Itoa(s.Pages),
			strconv.FormatFloat(s.Percentage, 'f', 1, 64) + "%",
			strconv.Itoa(s.Matches),
		})
	}
	rows = append(rows, []string{
		"**Total**",
		"**" + strconv.Itoa(report.TotalPages) + "**",
		"",
		"**" + strconv.Itoa(report.TotalMatches) + "**",
	})
	md.Table(markdown.TableSet{Header: []string{"Priority", "Pages", "Share", "Matches"}, Rows: rows})
	md.PlainText("")

	if report.TotalPages > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)

	md.H2("Categories")
	md.PlainText("")
	if len(report.Categories) == 0 {
		md.PlainText("No affected pages.")
		md.PlainText("")
	} else {
		rows := make([][]string, 0, len(report.Categories))
		for _, c := range report.Categories {
			rows = append(rows, []string{
				c.Name,
				c.Priority.String(),
				strconv.Itoa(c.Count),
				strconv.Itoa(c.TotalMatches),
				strconv.FormatFloat(c.AverageMatches, 'f', 1, 64),
			})
		}
		md.Table(markdown.TableSet{Header: []string{"Category", "Priority", "Pages", "Matches", "Average"}, Rows: rows})
		md.PlainText("")
		for _, c := range report.Categories {
			md.Details(fmt.Sprintf("%s (%d pages)", c.Name, c.Count), strings.Join(c.URLs, "<br>"))
		}
		md.PlainText("")
	}

	md.H2("Recommendations")
	md.PlainText("")
	if len(report.Recommendations) == 0 {
		md.PlainText("No action needed.")
		md.PlainText("")
		return
	}
	items := make([]string, 0, len(report.Recommendations))
	for _, r := range report.Recommendations {
		items = append(items, fmt.Sprintf("**%s** (%d pages): %s %s", r.Severity, r.Pages, r.Action, r.Impact))
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of pages per priority.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.TriageReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Affected Pages by Priority"),
		piechart.WithShowData(true),
	)
	for _, s := range report.Summary {
		if s.Pages > 0 {
			chart.LabelAndIntValue(s.Priority.String(), uint64(s.Pages)) //nolint:gosec // page counts are never negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes one alert for the most urgent triggered recommendation.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.TriageReport) {
	high := report.SummaryFor(model.PriorityHigh).Pages
	medium := report.SummaryFor(model.PriorityMedium).Pages
	switch {
	case high > 0:
		md.Cautionf("%d high priority page(s) show leaked embed markup.", high)
	case medium > 0:
		md.Importantf("%d medium priority page(s) show leaked embed markup.", medium)
	case report.TotalPages > 0:
		md.Note("Only low or skip priority pages are affected.")
	default:
		md.Tip("No affected pages found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, skipped []model.SkippedPage) {
	if len(skipped) == 0 {
		return
	}
	md.H2("Skipped Pages")
	md.PlainText("")
	rows := make([][]string, 0, len(skipped))
	for _, s := range skipped {
		rows = append(rows, []string{s.URL, s.Reason})
	}
	md.Table(markdown.TableSet{Header: []string{"URL", "Reason"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by embedleak*")
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴 High"
	case model.PriorityMedium:
		return "🟠 Medium"
	case model.PriorityLow:
		return "🔵 Low"
	case model.PrioritySkip:
		return "⚪ Skip"
	default:
		return p.String()
	}
}

func statusText(run *model.Run) string {
	if run.ErrorMessage != "" {
		return "❌ Error - " + run.ErrorMessage
	}
	return "✅ Complete"
}
