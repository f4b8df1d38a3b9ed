package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/pattern"
	"github.com/nao1215/embedleak/internal/scan"
)

const leak = `[[{"fid":"123","view_mode":"full"}]]`

func newPatternSet(t *testing.T) *model.PatternSet {
	t.Helper()

	res, err := pattern.NewEngine(nil).Run(model.NewSeedExample(leak, ""))
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	return res.Patterns
}

// corpus returns n pages where every third page carries the leak.
func corpus(n int) []*model.Page {
	pages := make([]*model.Page, n)
	for i := range pages {
		markup := fmt.Sprintf("<p>article %d</p>", i)
		if i%3 == 0 {
			markup = "<p>before</p>" + leak + "<p>after</p>"
		}
		pages[i] = &model.Page{URL: fmt.Sprintf("https://example.com/news/%03d", i), Markup: markup}
	}
	return pages
}

// TestNewBatchScanner tests the constructor and its options.
func TestNewBatchScanner(t *testing.T) {
	t.Parallel()

	t.Run("uses defaults", func(t *testing.T) {
		t.Parallel()

		b := NewBatchScanner(scan.New(nil))
		if b.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, b.concurrency)
		}
		if b.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		b := NewBatchScanner(scan.New(nil), WithConcurrency(0))
		if b.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, b.concurrency)
		}
		if b = NewBatchScanner(scan.New(nil), WithConcurrency(3)); b.concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", b.concurrency)
		}
	})
}

// TestBatchScannerScanPages tests ordering and isolation of failures.
func TestBatchScannerScanPages(t *testing.T) {
	t.Parallel()

	t.Run("preserves input order", func(t *testing.T) {
		t.Parallel()

		pages := corpus(30)
		b := NewBatchScanner(scan.New(newPatternSet(t)), WithConcurrency(4))

		batch, err := b.ScanPages(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := make([]string, 0)
		for i, p := range pages {
			if i%3 == 0 {
				want = append(want, p.URL)
			}
		}
		got := make([]string, 0, len(batch.Results))
		for _, r := range batch.Results {
			got = append(got, r.URL)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("result order mismatch (-want +got):\n%s", diff)
		}
		if batch.Scanned != len(pages) {
			t.Errorf("expected %d scanned, got %d", len(pages), batch.Scanned)
		}
		if len(batch.Skipped) != 0 {
			t.Errorf("expected no skipped pages, got %v", batch.Skipped)
		}
	})

	t.Run("matches sequential scanning", func(t *testing.T) {
		t.Parallel()

		pages := corpus(12)
		s := scan.New(newPatternSet(t))
		want := make([]model.PageResult, 0)
		for _, p := range pages {
			if r := s.Scan(p); r != nil {
				want = append(want, *r)
			}
		}

		batch, err := NewBatchScanner(s, WithConcurrency(5)).ScanPages(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(want, batch.Results); diff != "" {
			t.Errorf("batch differs from sequential scan (-want +got):\n%s", diff)
		}
	})

	t.Run("nil page is skipped without affecting others", func(t *testing.T) {
		t.Parallel()

		pages := corpus(3)
		pages[1] = nil
		batch, err := NewBatchScanner(scan.New(newPatternSet(t))).ScanPages(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch.Skipped) != 1 || batch.Skipped[0].Reason != ErrNilPage.Error() {
			t.Errorf("expected one nil-page skip, got %v", batch.Skipped)
		}
		if len(batch.Results) != 1 {
			t.Errorf("expected 1 result, got %d", len(batch.Results))
		}
	})

	t.Run("panicking scan becomes a skipped page", func(t *testing.T) {
		t.Parallel()

		// A nil scanner panics on use.
		b := NewBatchScanner(nil)
		pages := corpus(2)
		batch, err := b.ScanPages(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch.Skipped) != 2 {
			t.Fatalf("expected 2 skipped pages, got %d", len(batch.Skipped))
		}
		if batch.Skipped[0].URL != pages[0].URL {
			t.Errorf("expected skipped url %q, got %q", pages[0].URL, batch.Skipped[0].URL)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		batch, err := NewBatchScanner(scan.New(newPatternSet(t))).ScanPages(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if batch.Results == nil || len(batch.Results) != 0 {
			t.Errorf("expected empty non-nil results, got %v", batch.Results)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		batch, err := NewBatchScanner(scan.New(newPatternSet(t))).ScanPages(ctx, corpus(10))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if batch.Scanned != 0 {
			t.Errorf("expected no scanned pages, got %d", batch.Scanned)
		}
	})
}

// TestBatchScannerCallback tests the per-page callback.
func TestBatchScannerCallback(t *testing.T) {
	t.Parallel()

	var calls, affected atomic.Int32
	pages := corpus(9)
	_, err := NewBatchScanner(scan.New(newPatternSet(t))).ScanPagesWithCallback(
		context.Background(),
		pages,
		func(_ int, r *model.PageResult) {
			calls.Add(1)
			if r != nil {
				affected.Add(1)
			}
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 9 {
		t.Errorf("expected 9 callbacks, got %d", calls.Load())
	}
	if affected.Load() != 3 {
		t.Errorf("expected 3 affected pages, got %d", affected.Load())
	}
}
