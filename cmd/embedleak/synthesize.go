package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
	"github.com/nao1215/embedleak/internal/database"
	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/pattern"
	"github.com/nao1215/embedleak/internal/report"
)

// NewSynthesizeCmd creates the synthesize command.
func NewSynthesizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Derive detection patterns from one leak example",
		Long: `Synthesize analyzes a seed example and prints the tiered pattern set
derived from it, along with how many of the patterns match the seed itself.

Save the JSON output to reuse the same patterns across scans.

Examples:
  # Inspect the patterns for a seed
  embedleak synthesize -S seed.txt

  # Save a pattern set for later scans
  embedleak synthesize -S seed.txt -f json -o patterns.json

  # Also record the set in the history database
  embedleak synthesize -s '[[{"fid":"1","type":"media"}]]' --save`,
		Args: cobra.NoArgs,
		RunE: runSynthesizeCmd,
	}

	addSeedFlags(cmd)
	addOutputFlags(cmd)
	addConfigFlag(cmd)
	cmd.Flags().Bool("save", false, "Store the pattern set in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

func runSynthesizeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.SaveToDB, err = cmd.Flags().GetBool("save"); err != nil {
		return err
	}
	logger := setupLogger(cfg.Verbose)

	return runSynthesize(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

// runSynthesize builds the pattern set and writes it in the requested format.
func runSynthesize(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	seed, err := readSeed(cfg)
	if err != nil {
		return err
	}
	engine, err := cfg.File.Engine(logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	res, err := engine.Run(seed)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	for _, w := range res.Warnings {
		logger.Warn("synthesis warning", "warning", w)
	}

	out, closeFn, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // write errors are reported by the writer

	w, ok := report.New(cfg.Format, out, cfg.Verbose)
	if !ok {
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, cfg.Format)
	}
	if cfg.Format == report.FormatText {
		writeAnalysis(out, res)
	}
	if _, err := w.WritePatterns(res.Patterns); err != nil {
		return fmt.Errorf("failed to write pattern set: %w", err)
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.SavePatternSet(ctx, res.Patterns); err != nil {
			return err
		}
		logger.Info("pattern set saved", "fingerprint", res.Patterns.Meta().SeedFingerprint)
	}
	return nil
}

// writeAnalysis prints what the analyzer found in the seed.
func writeAnalysis(out io.Writer, res *pattern.Result) {
	a := res.Analysis
	fmt.Fprintln(out, "SEED ANALYSIS")
	fmt.Fprintf(out, "  Markers:  %s\n", markerTokens(a))
	fmt.Fprintf(out, "  Fields:   %v\n", a.FieldNameStrings())
	if len(a.Anomalies) == 0 {
		fmt.Fprintln(out, "  Unusual characters: none")
	}
	for _, an := range a.Anomalies {
		fmt.Fprintf(out, "  [%s] %s\n", anomalyKind(an), pattern.DescribeAnomaly(an))
	}
	fmt.Fprintf(out, "  Matched:  %d/%d patterns\n", len(res.Validation.Matched), len(res.Validation.Matched)+len(res.Validation.Missed))
	for _, name := range res.Validation.Missed {
		fmt.Fprintf(out, "  [-] %s does not match the seed\n", name)
	}
}

func markerTokens(a *model.Analysis) []string {
	out := make([]string, 0, len(a.Markers))
	for _, m := range a.Markers {
		out = append(out, m.Token)
	}
	return out
}

func anomalyKind(an model.CharacterAnomaly) string {
	if an.Quote {
		return "quote"
	}
	return "char"
}
