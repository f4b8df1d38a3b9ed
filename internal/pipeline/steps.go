package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/pattern"
	"github.com/nao1215/embedleak/internal/scan"
	"github.com/nao1215/embedleak/internal/triage"
)

// SynthesizeStep derives the run's pattern set from its seed example.
// It does nothing when the run already carries a pattern set.
type SynthesizeStep struct {
	engine *pattern.Engine
	logger *slog.Logger
}

// SynthesizeStepOption configures a SynthesizeStep.
type SynthesizeStepOption func(*SynthesizeStep)

// WithSynthesizeLogger sets the logger.
func WithSynthesizeLogger(logger *slog.Logger) SynthesizeStepOption {
	return func(s *SynthesizeStep) {
		s.logger = logger
	}
}

// NewSynthesizeStep creates the synthesis step. A nil engine uses the defaults.
func NewSynthesizeStep(engine *pattern.Engine, opts ...SynthesizeStepOption) *SynthesizeStep {
	if engine == nil {
		engine = pattern.NewEngine(nil)
	}
	s := &SynthesizeStep{engine: engine, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SynthesizeStep) Name() string {
	return "synthesize"
}

// Do runs the pattern engine on the run's seed.
func (s *SynthesizeStep) Do(_ context.Context, run *model.Run) error {
	if run.Patterns != nil {
		s.logger.Debug("pattern set supplied, skipping synthesis", "patterns", run.Patterns.Len())
		return nil
	}

	res, err := s.engine.Run(run.Seed)
	if err != nil {
		return fmt.Errorf("synthesize patterns: %w", err)
	}
	run.Analysis = res.Analysis
	run.Patterns = res.Patterns
	for _, w := range res.Warnings {
		run.AddWarning(w.Error())
	}
	return nil
}

// PageFetcher retrieves one page by URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// FetchStep retrieves the run's URL list into its page corpus. Pages that
// cannot be fetched are recorded as skipped.
type FetchStep struct {
	fetcher     PageFetcher
	concurrency int
	logger      *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchConcurrency sets the number of concurrent requests.
func WithFetchConcurrency(n int) FetchStepOption {
	return func(s *FetchStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates the fetch step.
func NewFetchStep(fetcher PageFetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches every URL and appends the pages to the run in URL order.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	if len(run.URLs) == 0 {
		return nil
	}

	pages := make([]*model.Page, len(run.URLs))
	failures := make([]error, len(run.URLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, url := range run.URLs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			page, err := s.fetcher.Fetch(gctx, url)
			if err != nil {
				failures[i] = err
				return nil
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetch pages: %w", err)
	}

	fetched := 0
	for i, url := range run.URLs {
		if failures[i] != nil {
			s.logger.Warn("fetch failed", "url", url, "error", failures[i])
			run.AddSkipped(url, failures[i].Error())
			continue
		}
		if pages[i] != nil {
			run.Pages = append(run.Pages, pages[i])
			fetched++
		}
	}
	s.logger.Info("pages fetched", "requested", len(run.URLs), "fetched", fetched)
	return nil
}

// ScanStep applies the run's pattern set to its pages.
type ScanStep struct {
	radius      int
	concurrency int
	logger      *slog.Logger
}

// ScanStepOption configures a ScanStep.
type ScanStepOption func(*ScanStep)

// WithScanSnippetRadius sets the snippet radius.
func WithScanSnippetRadius(n int) ScanStepOption {
	return func(s *ScanStep) {
		s.radius = n
	}
}

// WithScanConcurrency sets the number of pages scanned at once.
func WithScanConcurrency(n int) ScanStepOption {
	return func(s *ScanStep) {
		s.concurrency = n
	}
}

// WithScanLogger sets the logger.
func WithScanLogger(logger *slog.Logger) ScanStepOption {
	return func(s *ScanStep) {
		s.logger = logger
	}
}

// NewScanStep creates the scan step.
func NewScanStep(opts ...ScanStepOption) *ScanStep {
	s := &ScanStep{
		radius:      scan.DefaultSnippetRadius,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan"
}

// Do scans the run's pages and records results and skipped pages.
func (s *ScanStep) Do(ctx context.Context, run *model.Run) error {
	if run.Patterns == nil {
		return ErrNoPatterns
	}
	if run.Patterns.Len() == 0 {
		run.AddWarning(pattern.ErrEmptyPatternSet.Error())
	}

	bs := NewBatchScanner(
		scan.New(run.Patterns, scan.WithSnippetRadius(s.radius)),
		WithConcurrency(s.concurrency),
		WithBatchLogger(s.logger),
	)
	batch, err := bs.ScanPages(ctx, run.Pages)

	if run.Results == nil {
		run.Results = make([]model.PageResult, 0, len(batch.Results))
	}
	run.Results = append(run.Results, batch.Results...)
	run.Skipped = append(run.Skipped, batch.Skipped...)

	if err != nil {
		return fmt.Errorf("scan pages: %w", err)
	}
	s.logger.Info("corpus scanned",
		"pages", len(run.Pages),
		"affected", len(batch.Results),
		"skipped", len(batch.Skipped),
	)
	return nil
}

// TriageStep categorizes the run's affected pages.
type TriageStep struct {
	categorizer *triage.Categorizer
}

// NewTriageStep creates the triage step. A nil categorizer uses the default rules.
func NewTriageStep(categorizer *triage.Categorizer) *TriageStep {
	if categorizer == nil {
		categorizer = triage.NewCategorizer(nil)
	}
	return &TriageStep{categorizer: categorizer}
}

// Name returns the step name.
func (s *TriageStep) Name() string {
	return "triage"
}

// Do builds the triage report. Missing results fail the run.
func (s *TriageStep) Do(_ context.Context, run *model.Run) error {
	report, err := s.categorizer.Categorize(run.Results)
	if err != nil {
		return fmt.Errorf("triage: %w", err)
	}
	run.Triage = report
	return nil
}

// Config collects the collaborators of a full scan run.
type Config struct {
	Engine        *pattern.Engine
	Fetcher       PageFetcher
	Categorizer   *triage.Categorizer
	Concurrency   int
	SnippetRadius int
	Logger        *slog.Logger
}

// DefaultPipeline assembles the standard steps. The fetch step is included
// only when a fetcher is configured.
func DefaultPipeline(cfg Config, opts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	radius := cfg.SnippetRadius
	if radius <= 0 {
		radius = scan.DefaultSnippetRadius
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddStep(NewSynthesizeStep(cfg.Engine, WithSynthesizeLogger(logger)))
	if cfg.Fetcher != nil {
		p.AddStep(NewFetchStep(cfg.Fetcher,
			WithFetchConcurrency(cfg.Concurrency),
			WithFetchLogger(logger),
		))
	}
	p.AddSteps(
		NewScanStep(
			WithScanSnippetRadius(radius),
			WithScanConcurrency(cfg.Concurrency),
			WithScanLogger(logger),
		),
		NewTriageStep(cfg.Categorizer),
	)
	return p
}
