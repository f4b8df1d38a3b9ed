package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/scan"
)

// DefaultConcurrency is the number of pages processed at once when no
// concurrency is configured.
const DefaultConcurrency = 8

// BatchScanner scans many pages concurrently with one shared scanner.
// Results keep the input order regardless of completion order, and a page
// that fails to scan is reported as skipped without affecting the others.
type BatchScanner struct {
	scanner     *scan.Scanner
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchScanner.
type BatchOption func(*BatchScanner)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchScanner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages scanned at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchScanner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchScanner creates a batch scanner around scanner.
func NewBatchScanner(scanner *scan.Scanner, opts ...BatchOption) *BatchScanner {
	b := &BatchScanner{
		scanner:     scanner,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Batch is the outcome of scanning a list of pages. Both slices follow the
// input order.
type Batch struct {
	Results []model.PageResult
	Skipped []model.SkippedPage
	Scanned int
}

// ScanPages scans every page. Clean pages and pages without content produce
// no result. When ctx is cancelled the pages already scanned are returned
// together with the context error.
func (b *BatchScanner) ScanPages(ctx context.Context, pages []*model.Page) (*Batch, error) {
	return b.ScanPagesWithCallback(ctx, pages, nil)
}

// ScanPagesWithCallback is ScanPages with a callback invoked once per page as
// soon as it is scanned. A nil result means the page was clean. The callback
// runs on the scanning goroutine and must be safe for concurrent use.
func (b *BatchScanner) ScanPagesWithCallback(
	ctx context.Context,
	pages []*model.Page,
	callback func(index int, result *model.PageResult),
) (*Batch, error) {
	b.logger.Debug("starting batch scan", "pages", len(pages), "concurrency", b.concurrency)
	start := time.Now()

	// Each goroutine owns one slot, so no lock is needed.
	results := make([]*model.PageResult, len(pages))
	skipped := make([]*model.SkippedPage, len(pages))
	done := make([]bool, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, page := range pages {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := b.scanOne(page)
			done[i] = true
			if err != nil {
				url := ""
				if page != nil {
					url = page.URL
				}
				b.logger.Warn("page skipped", "url", url, "error", err)
				skipped[i] = &model.SkippedPage{URL: url, Reason: err.Error()}
				return nil
			}
			results[i] = res
			if callback != nil {
				callback(i, res)
			}
			return nil
		})
	}
	err := g.Wait()

	batch := &Batch{
		Results: make([]model.PageResult, 0),
		Skipped: make([]model.SkippedPage, 0),
	}
	for i := range pages {
		if done[i] {
			batch.Scanned++
		}
		if results[i] != nil {
			batch.Results = append(batch.Results, *results[i])
		}
		if skipped[i] != nil {
			batch.Skipped = append(batch.Skipped, *skipped[i])
		}
	}

	b.logger.Debug("batch scan complete",
		"pages", len(pages),
		"affected", len(batch.Results),
		"skipped", len(batch.Skipped),
		"elapsed", time.Since(start),
	)
	return batch, err
}

// scanOne scans a single page, turning a panic into an error.
func (b *BatchScanner) scanOne(page *model.Page) (res *model.PageResult, err error) {
	if page == nil {
		return nil, ErrNilPage
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrScanPanic, r)
		}
	}()
	return b.scanner.Scan(page), nil
}
