package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
	"github.com/nao1215/embedleak/internal/corpus"
	"github.com/nao1215/embedleak/internal/database"
	"github.com/nao1215/embedleak/internal/fetcher"
	"github.com/nao1215/embedleak/internal/metrics"
	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/pipeline"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Scan pages for leaked embed markup and triage the results",
		Long: `Scan applies a pattern set to a corpus of pages, then groups the
affected pages into priorities by URL shape.

Patterns come from a seed example (--seed or --seed-file) or from a saved
pattern set (--patterns). Pages come from a JSONL corpus (--corpus), a URL
list (--urls) or URL arguments; URLs are fetched before scanning.

Every run is recorded in the history database unless --no-save is given,
so "embedleak compare" can show what changed between scans.

Examples:
  # Scan an exported corpus
  embedleak scan -S seed.txt --corpus pages.jsonl

  # Fetch and scan a list of URLs with a saved pattern set
  embedleak scan --patterns patterns.json --urls urls.txt

  # Markdown report with a pie chart, written to a file
  embedleak scan -S seed.txt --corpus pages.jsonl -f markdown -o report.md

  # Write Prometheus metrics for the node_exporter textfile collector
  embedleak scan -S seed.txt --urls urls.txt --metrics-file /var/lib/node_exporter/embedleak.prom

Corpus line format:
  {"url":"https://example.com/news/1","markup":"<p>...</p>","text":"..."}`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addSeedFlags(cmd)
	cmd.Flags().StringP("patterns", "p", "", "Saved pattern set (JSON) to use instead of a seed")
	cmd.Flags().String("corpus", "", "JSONL corpus of pages")
	cmd.Flags().StringP("urls", "u", "", "File with one URL per line (# starts a comment)")

	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Pages fetched and scanned at once")
	cmd.Flags().Int("snippet-radius", config.DefaultSnippetRadius, "Characters of context kept around a match")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each fetch")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent sent with each fetch")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy for fetching (host:port)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum bytes read per response")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects, "Redirects followed per fetch (0 disables)")

	addOutputFlags(cmd)
	addConfigFlag(cmd)
	cmd.Flags().Bool("no-save", false, "Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runScan(ctx, cfg, logger, cmd.OutOrStdout())
	return err
}

// buildScanConfig creates a Config from the scan flags. Flags the user set
// override the configuration file.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()

	if cfg.PatternsFile, err = flags.GetString("patterns"); err != nil {
		return nil, err
	}
	if cfg.CorpusFile, err = flags.GetString("corpus"); err != nil {
		return nil, err
	}
	if cfg.URLListFile, err = flags.GetString("urls"); err != nil {
		return nil, err
	}
	cfg.URLs = args

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("snippet-radius") {
		if cfg.SnippetRadius, err = flags.GetInt("snippet-radius"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if cfg.MaxRedirects, err = flags.GetInt("max-redirects"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScan executes one run end to end. The report is written, the run saved
// and metrics recorded even when the pipeline fails part way, so a partial
// run is never lost. The pipeline error is returned.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*model.Run, error) {
	run, pcfg, err := prepareRun(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("starting scan",
		"run", run.ID,
		"pages", len(run.Pages),
		"urls", len(run.URLs),
		"concurrency", cfg.Concurrency,
	)

	p := pipeline.DefaultPipeline(pcfg, pipeline.WithLogger(logger))
	runErr := p.Execute(ctx, run)
	if runErr != nil {
		logger.Error("scan failed", "run", run.ID, "error", runErr)
	}

	if err := writeRunReport(cfg, run, stdout); err != nil {
		logger.Error("report failed", "run", run.ID, "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	// the signal context may be done; persistence still runs
	persistCtx := context.WithoutCancel(ctx)
	if cfg.SaveToDB {
		if err := saveRun(persistCtx, cfg, run, logger); err != nil {
			logger.Error("failed to save run", "run", run.ID, "error", err)
		}
	}
	if cfg.MetricsFile != "" {
		m := metrics.New()
		m.ObserveRun(run)
		if err := m.WriteToTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		return run, fmt.Errorf("scan failed: %w", runErr)
	}
	return run, nil
}

// prepareRun loads the inputs into a new run and assembles the pipeline
// collaborators.
func prepareRun(cfg *config.Config, logger *slog.Logger) (*model.Run, pipeline.Config, error) {
	engine, err := cfg.File.Engine(logger)
	if err != nil {
		return nil, pipeline.Config{}, fmt.Errorf("configuration error: %w", err)
	}
	categorizer, err := cfg.File.Categorizer(logger)
	if err != nil {
		return nil, pipeline.Config{}, fmt.Errorf("configuration error: %w", err)
	}

	run := model.NewRun()
	if cfg.PatternsFile != "" {
		if run.Patterns, err = loadPatterns(cfg.PatternsFile); err != nil {
			return nil, pipeline.Config{}, err
		}
	} else if run.Seed, err = readSeed(cfg); err != nil {
		return nil, pipeline.Config{}, err
	}

	if cfg.CorpusFile != "" {
		c, err := corpus.ReadJSONLFile(cfg.CorpusFile)
		if err != nil {
			return nil, pipeline.Config{}, err
		}
		run.Pages = c.Pages
		run.Skipped = append(run.Skipped, c.Skipped...)
	}
	if run.URLs, err = collectURLs(cfg); err != nil {
		return nil, pipeline.Config{}, err
	}

	pcfg := pipeline.Config{
		Engine:        engine,
		Categorizer:   categorizer,
		Concurrency:   cfg.Concurrency,
		SnippetRadius: cfg.SnippetRadius,
		Logger:        logger,
	}
	if len(run.URLs) > 0 {
		f, err := newFetcher(cfg, logger)
		if err != nil {
			return nil, pipeline.Config{}, err
		}
		pcfg.Fetcher = f
	}
	return run, pcfg, nil
}

// collectURLs merges the URL list file and the arguments, dropping repeats.
func collectURLs(cfg *config.Config) ([]string, error) {
	var urls []string
	if cfg.URLListFile != "" {
		list, err := corpus.ReadURLListFile(cfg.URLListFile)
		if err != nil {
			return nil, err
		}
		urls = append(urls, list...)
	}
	urls = append(urls, cfg.URLs...)

	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithMaxRedirects(cfg.MaxRedirects),
		fetcher.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetcher.WithProxy(cfg.ProxyAddress))
	}
	f, err := fetcher.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return f, nil
}

func writeRunReport(cfg *config.Config, run *model.Run, stdout io.Writer) error {
	w, closeFn, err := newWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // write errors are reported by the writer

	_, err = w.Write(run)
	return err
}

// saveRun records the run and its pattern set in the history database.
func saveRun(ctx context.Context, cfg *config.Config, run *model.Run, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if run.Patterns != nil && run.Patterns.Meta().SeedFingerprint != "" {
		if err := db.SavePatternSet(ctx, run.Patterns); err != nil {
			return err
		}
	}
	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Info("run saved to database", "run", run.ID, "dir", cfg.DBDir)
	return nil
}
