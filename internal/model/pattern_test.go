package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testSpecs() []PatternSpec {
	return []PatternSpec{
		{Name: "t6_field_fid", Tier: TierFieldKey, Source: `(?is)"fid"\s{0,8}:`, Anchors: []string{"fid"}},
		{Name: "t1_opening_structure", Tier: TierOpeningStructure, Source: `(?is)\[\[\s{0,16}\{`, Anchors: []string{"[["}},
		{Name: "t3_field_cooccurrence", Tier: TierCooccurrence, Source: `(?is)fid[\s\S]{0,500}view_mode`},
	}
}

// TestNewPatternSet tests ordering, lookup and compilation.
func TestNewPatternSet(t *testing.T) {
	t.Parallel()

	t.Run("orders patterns by name", func(t *testing.T) {
		t.Parallel()

		ps, err := NewPatternSet(testSpecs(), PatternSetMeta{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"t1_opening_structure", "t3_field_cooccurrence", "t6_field_fid"}
		if diff := cmp.Diff(want, ps.Names()); diff != "" {
			t.Errorf("Names() mismatch (-want +got):\n%s", diff)
		}
		if ps.Confidence() != ConfidenceLow {
			t.Errorf("default confidence = %q, expected low", ps.Confidence())
		}
	})

	t.Run("compiles every source", func(t *testing.T) {
		t.Parallel()

		ps, err := NewPatternSet(testSpecs(), PatternSetMeta{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		spec, ok := ps.Get("t1_opening_structure")
		if !ok {
			t.Fatal("expected t1_opening_structure to be present")
		}
		if spec.Regexp() == nil || !spec.Regexp().MatchString(`[[ {"fid"`) {
			t.Error("expected compiled T1 to match")
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		specs := append(testSpecs(), PatternSpec{Name: "t6_field_fid", Source: "x"})
		_, err := NewPatternSet(specs, PatternSetMeta{})
		if !errors.Is(err, ErrDuplicatePatternName) {
			t.Errorf("expected ErrDuplicatePatternName, got %v", err)
		}
	})

	t.Run("rejects invalid source", func(t *testing.T) {
		t.Parallel()

		_, err := NewPatternSet([]PatternSpec{{Name: "bad", Source: "("}}, PatternSetMeta{})
		if err == nil {
			t.Error("expected compile error")
		}
	})
}

// TestPatternSetWithMeta tests that metadata updates leave the receiver unchanged.
func TestPatternSetWithMeta(t *testing.T) {
	t.Parallel()

	ps, err := NewPatternSet(testSpecs(), PatternSetMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := ps.WithMeta(PatternSetMeta{Confidence: ConfidenceHigh, MatchRate: 1})
	if updated.Confidence() != ConfidenceHigh || updated.MatchRate() != 1 {
		t.Errorf("updated meta = %+v", updated.Meta())
	}
	if ps.Confidence() != ConfidenceLow || ps.MatchRate() != 0 {
		t.Errorf("receiver changed: %+v", ps.Meta())
	}
	if updated.Len() != ps.Len() {
		t.Errorf("pattern count changed: %d vs %d", updated.Len(), ps.Len())
	}
}

// TestPatternSetJSON tests the interchange shape and that loading recompiles.
func TestPatternSetJSON(t *testing.T) {
	t.Parallel()

	ps, err := NewPatternSet(testSpecs(), PatternSetMeta{
		Confidence:      ConfidenceMedium,
		MatchRate:       0.6,
		SeedFingerprint: "abc",
		Window:          500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(ps)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw struct {
		Confidence string `json:"confidence"`
		Patterns   map[string]struct {
			Source     string `json:"source"`
			Tier       int    `json:"tier"`
			Confidence string `json:"confidence"`
		} `json:"patterns"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw.Confidence != "medium" {
		t.Errorf("confidence = %q, expected medium", raw.Confidence)
	}
	if p := raw.Patterns["t3_field_cooccurrence"]; p.Tier != 3 || p.Confidence != "medium" {
		t.Errorf("unexpected t3 record %+v", p)
	}

	var loaded PatternSet
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(ps.Names(), loaded.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	spec, _ := loaded.Get("t6_field_fid")
	if spec.Regexp() == nil {
		t.Error("expected loaded pattern to be compiled")
	}
	if loaded.Meta().Window != 500 {
		t.Errorf("window = %d, expected 500", loaded.Meta().Window)
	}
}
