package report

import (
	"io"

	"github.com/nao1215/embedleak/internal/model"
)

// Writer renders machine records for people or tools. Every rendering is a
// projection of the record passed in; writers never compute new figures.
type Writer interface {
	// Write renders a completed run: its triage report plus run details
	// such as skipped pages and warnings.
	Write(run *model.Run) (int, error)

	// WriteTriage renders a triage report on its own.
	WriteTriage(report *model.TriageReport) (int, error)

	// WritePatterns renders a pattern set.
	WritePatterns(ps *model.PatternSet) (int, error)
}

// MultiWriter writes to several Writers in turn and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the run with every writer.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(run) })
}

// WriteTriage renders the triage report with every writer.
func (m *MultiWriter) WriteTriage(report *model.TriageReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteTriage(report) })
}

// WritePatterns renders the pattern set with every writer.
func (m *MultiWriter) WritePatterns(ps *model.PatternSet) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WritePatterns(ps) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// New returns the writer for format, or false for an unknown format.
func New(format Format, output io.Writer, verbose bool) (Writer, bool) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output, WithVerbose(verbose)), true
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), true
	case FormatMarkdown:
		return NewMarkdownWriter(output), true
	default:
		return nil, false
	}
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
