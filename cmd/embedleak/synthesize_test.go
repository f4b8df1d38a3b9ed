package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/embedleak/internal/config"
	"github.com/nao1215/embedleak/internal/database"
	"github.com/nao1215/embedleak/internal/model"
)

// TestSynthesizeCmd tests pattern synthesis from the command line.
func TestSynthesizeCmd(t *testing.T) {
	t.Parallel()

	t.Run("text output shows analysis and patterns", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "synthesize", "-s", testSeed, "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"SEED ANALYSIS", "PATTERN SET", "t1_opening_structure", "Confidence:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("json output is a pattern set", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedFile := writeTestFile(t, dir, "seed.txt", testSeed)
		outFile := filepath.Join(dir, "patterns.json")
		if _, err := executeRoot(t, "synthesize", "-S", seedFile, "-f", "json", "-o", outFile, "-c", emptyConfig(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ps, err := loadPatterns(outFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.Len() == 0 {
			t.Fatal("expected patterns")
		}
		if ps.Meta().SeedFingerprint != model.Fingerprint(testSeed) {
			t.Errorf("unexpected fingerprint %q", ps.Meta().SeedFingerprint)
		}
	})

	t.Run("save stores the pattern set", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		out, err := executeRoot(t, "synthesize", "-s", testSeed, "-f", "json", "--save", "--db-dir", dbDir, "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var printed model.PatternSet
		if err := json.Unmarshal([]byte(out), &printed); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()
		stored, err := db.GetPatternSet(context.Background(), printed.Meta().SeedFingerprint)
		if err != nil {
			t.Fatalf("expected stored pattern set: %v", err)
		}
		if stored.Len() != printed.Len() {
			t.Errorf("expected %d patterns, got %d", printed.Len(), stored.Len())
		}
	})

	t.Run("missing seed", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "synthesize", "-c", emptyConfig(t))
		if !errors.Is(err, config.ErrNoSeed) {
			t.Errorf("expected ErrNoSeed, got %v", err)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "synthesize", "-s", testSeed, "-f", "yaml", "-c", emptyConfig(t))
		if !errors.Is(err, config.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeTestFile(t, t.TempDir(), "bad.yaml", "synthesis:\n  window: 50\n")
		if _, err := executeRoot(t, "synthesize", "-s", testSeed, "-c", cfgPath); err == nil {
			t.Error("expected error for an out-of-range window")
		}
	})
}
