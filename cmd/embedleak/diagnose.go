package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/report"
	"github.com/nao1215/embedleak/internal/scan"
)

// errNoPage is returned when diagnose has neither a page file nor a URL.
var errNoPage = errors.New("no page given: pass a URL or --page")

// diagnosis is the machine form of a diagnose result.
type diagnosis struct {
	URL     string              `json:"url"`
	Total   int                 `json:"total_matches"`
	Matches []model.MatchRecord `json:"matches"`
}

// NewDiagnoseCmd creates the diagnose command.
func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [url]",
		Short: "Show every pattern match in a single page",
		Long: `Diagnose applies a pattern set to one page and lists every match with its
offsets and surrounding context. Use it to confirm a leak on a page before
fixing it, or to check why a page was flagged by a scan.

The page is read from --page (raw markup) or fetched from the URL argument.

Examples:
  embedleak diagnose -S seed.txt https://example.com/news/1
  embedleak diagnose -p patterns.json --page saved.html -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDiagnoseCmd,
	}

	addSeedFlags(cmd)
	cmd.Flags().StringP("patterns", "p", "", "Saved pattern set (JSON) to use instead of a seed")
	cmd.Flags().String("page", "", "File holding the page markup")
	cmd.Flags().Int("snippet-radius", config.DefaultSnippetRadius, "Characters of context kept around a match")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for the fetch")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy for fetching (host:port)")
	addOutputFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runDiagnoseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if cfg.PatternsFile, err = flags.GetString("patterns"); err != nil {
		return err
	}
	pagePath, err := flags.GetString("page")
	if err != nil {
		return err
	}
	if flags.Changed("snippet-radius") {
		if cfg.SnippetRadius, err = flags.GetInt("snippet-radius"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.HasSeed() && cfg.PatternsFile != "" {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingSeeds)
	}
	if !cfg.HasSeed() && cfg.PatternsFile == "" {
		return fmt.Errorf("configuration error: %w", config.ErrNoSeed)
	}
	logger := setupLogger(cfg.Verbose)

	page, err := diagnosePage(cmd.Context(), cfg, logger, pagePath, args)
	if err != nil {
		return err
	}
	ps, err := diagnosePatterns(cfg, logger)
	if err != nil {
		return err
	}

	matches := scan.New(ps, scan.WithSnippetRadius(cfg.SnippetRadius)).Matches(page.Content())
	d := diagnosis{URL: page.URL, Total: len(matches), Matches: matches}

	out, closeFn, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeDiagnosis(out, cfg.Format, d, ps); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write diagnosis: %w", err)
	}
	return closeFn()
}

// diagnosePage reads the page from a file or fetches it.
func diagnosePage(ctx context.Context, cfg *config.Config, logger *slog.Logger, pagePath string, args []string) (*model.Page, error) {
	switch {
	case pagePath != "" && len(args) > 0:
		return nil, errors.New("pass either a URL or --page, not both")
	case pagePath != "":
		data, err := os.ReadFile(pagePath) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to read page: %w", err)
		}
		page := &model.Page{URL: pagePath, Markup: string(data)}
		page.Truncate()
		return page, nil
	case len(args) > 0:
		f, err := newFetcher(cfg, logger)
		if err != nil {
			return nil, err
		}
		return f.Fetch(ctx, args[0])
	default:
		return nil, errNoPage
	}
}

func diagnosePatterns(cfg *config.Config, logger *slog.Logger) (*model.PatternSet, error) {
	if cfg.PatternsFile != "" {
		return loadPatterns(cfg.PatternsFile)
	}
	seed, err := readSeed(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := cfg.File.Engine(logger)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	res, err := engine.Run(seed)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn("synthesis warning", "warning", w.Error())
	}
	return res.Patterns, nil
}

// writeDiagnosis renders d. Markdown falls back to the text layout inside a
// code block.
func writeDiagnosis(w io.Writer, format report.Format, d diagnosis, ps *model.PatternSet) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Page:     %s\n", d.URL)
	fmt.Fprintf(&sb, "Patterns: %d\n", ps.Len())
	fmt.Fprintf(&sb, "Matches:  %d\n\n", d.Total)

	counts := make(map[string]int)
	for _, m := range d.Matches {
		counts[m.Pattern]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "  %-28s %d\n", name, counts[name])
	}
	if len(names) > 0 {
		sb.WriteString("\n")
	}
	for _, m := range d.Matches {
		fmt.Fprintf(&sb, "[%s] %d-%d\n", m.Pattern, m.Start, m.End)
		fmt.Fprintf(&sb, "    %s\n", strings.ReplaceAll(m.Snippet, "\n", " "))
	}
	if d.Total == 0 {
		sb.WriteString("No matches: the page looks clean.\n")
	}

	if format == report.FormatMarkdown {
		md := markdown.NewMarkdown(w)
		md.H1("Diagnosis")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlight("text"), strings.TrimSuffix(sb.String(), "\n"))
		return md.Build()
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
