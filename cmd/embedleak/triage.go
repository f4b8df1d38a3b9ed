package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/corpus"
)

// NewTriageCmd creates the triage command.
func NewTriageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triage <results.json>",
		Short: "Categorize saved scan results by URL shape",
		Long: `Triage reads the results of an earlier scan and groups the affected pages
into priorities using the category rules (built-in, or from the configuration
file's "categories" section).

The results file is the JSON report of "embedleak scan -f json", or any file
with the same "results" array.

Examples:
  embedleak scan -S seed.txt --corpus pages.jsonl -f json -o results.json
  embedleak triage results.json
  embedleak triage results.json -c rules.yaml -f markdown -o triage.md`,
		Args: cobra.ExactArgs(1),
		RunE: runTriageCmd,
	}

	addOutputFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runTriageCmd(cmd *cobra.Command, args []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cfg.Verbose)

	rs, err := corpus.ReadResultsFile(args[0])
	if err != nil {
		return err
	}
	categorizer, err := cfg.File.Categorizer(logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	tr, err := categorizer.Categorize(rs.Results)
	if err != nil {
		return fmt.Errorf("triage failed: %w", err)
	}
	logger.Debug("triage complete", "pages", tr.TotalPages, "categories", len(tr.Categories))

	w, closeFn, err := newWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := w.WriteTriage(tr); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeFn()
}
