package pattern

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/embedleak/internal/model"
)

const canonicalSeed = `[[{"fid":"123","view_mode":"full"}]]`

// TestAnalyzerFieldNames tests field name extraction and ordering.
func TestAnalyzerFieldNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		seed     string
		expected []string
	}{
		{
			name:     "canonical seed order",
			seed:     canonicalSeed,
			expected: []string{"fid", "view_mode"},
		},
		{
			name:     "duplicates dropped case-insensitively",
			seed:     `{"fid":"1","FID":"2","type":"media"}`,
			expected: []string{"fid", "type"},
		},
		{
			name:     "curly and prime quotes",
			seed:     `[[{“fid”:“1”,′view_mode′:′full′}]]`,
			expected: []string{"fid", "view_mode"},
		},
		{
			name:     "entity escaped quotes",
			seed:     `[[{&quot;fid&quot;:&quot;1&quot;,&#34;type&#34;:&#x22;media&#x22;}]]`,
			expected: []string{"fid", "type"},
		},
		{
			name:     "values are not field names",
			seed:     `{"a":"b","c":"d"}`,
			expected: []string{"a", "c"},
		},
		{
			name:     "no fields",
			seed:     `[[ plain text ]]`,
			expected: []string{},
		},
	}

	analyzer := NewAnalyzer(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, err := analyzer.Analyze(model.NewSeedExample(tc.seed, ""))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expected, a.FieldNameStrings()); diff != "" {
				t.Errorf("field names mismatch (-want +got):\n%s", diff)
			}
			for i, f := range a.FieldNames {
				if f.Rank != i {
					t.Errorf("field %q rank = %d, expected %d", f.Name, f.Rank, i)
				}
			}
		})
	}
}

// TestAnalyzerMarkers tests structural marker detection.
func TestAnalyzerMarkers(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(nil)

	t.Run("double tokens are not single tokens", func(t *testing.T) {
		t.Parallel()

		a, err := analyzer.Analyze(model.NewSeedExample(canonicalSeed, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.StructuralMarker{
			{Kind: model.MarkerDoubleBracketOpen, Token: "[[", Offset: 0},
			{Kind: model.MarkerBraceOpen, Token: "{", Offset: 2},
			{Kind: model.MarkerBraceClose, Token: "}", Offset: 33},
			{Kind: model.MarkerDoubleBracketClose, Token: "]]", Offset: 34},
		}
		if diff := cmp.Diff(want, a.Markers); diff != "" {
			t.Errorf("markers mismatch (-want +got):\n%s", diff)
		}
		if a.HasMarker(model.MarkerBracketOpen) {
			t.Error("single bracket should not be present")
		}
	})

	t.Run("first occurrence per kind", func(t *testing.T) {
		t.Parallel()

		a, err := analyzer.Analyze(model.NewSeedExample(`{ [ ] } {{ }} {`, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.StructuralMarker{
			{Kind: model.MarkerBraceOpen, Token: "{", Offset: 0},
			{Kind: model.MarkerBracketOpen, Token: "[", Offset: 2},
			{Kind: model.MarkerBracketClose, Token: "]", Offset: 4},
			{Kind: model.MarkerBraceClose, Token: "}", Offset: 6},
			{Kind: model.MarkerDoubleBraceOpen, Token: "{{", Offset: 8},
			{Kind: model.MarkerDoubleBraceClose, Token: "}}", Offset: 11},
		}
		if diff := cmp.Diff(want, a.Markers); diff != "" {
			t.Errorf("markers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no markers", func(t *testing.T) {
		t.Parallel()

		a, err := analyzer.Analyze(model.NewSeedExample(`"fid": "1"`, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(a.Markers) != 0 {
			t.Errorf("expected no markers, got %v", a.Markers)
		}
	})
}

// TestAnalyzerAnomalies tests non-ASCII character detection and labelling.
func TestAnalyzerAnomalies(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(nil)
	a, err := analyzer.Analyze(model.NewSeedExample("[[{'fid':'456″,\u00a0\"x\":\"é″\"}]]\n", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Anomalies) != 3 {
		t.Fatalf("got %d anomalies, expected 3: %+v", len(a.Anomalies), a.Anomalies)
	}

	prime := a.Anomalies[0]
	if prime.Codepoint != "U+2033" || prime.Label != "double prime" || !prime.Quote || prime.Count != 2 {
		t.Errorf("unexpected prime anomaly %+v", prime)
	}
	if prime.Name != "DOUBLE PRIME" {
		t.Errorf("name = %q, expected DOUBLE PRIME", prime.Name)
	}

	nbsp := a.Anomalies[1]
	if nbsp.Label != "non-breaking space" || nbsp.Quote {
		t.Errorf("unexpected nbsp anomaly %+v", nbsp)
	}

	eacute := a.Anomalies[2]
	if eacute.Label != "U+00E9" || eacute.Quote {
		t.Errorf("unexpected generic anomaly %+v", eacute)
	}

	if len(a.QuoteAnomalies()) != 1 {
		t.Errorf("got %d quote anomalies, expected 1", len(a.QuoteAnomalies()))
	}
}

// TestAnalyzerInvalidInput tests the empty seed error.
func TestAnalyzerInvalidInput(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(nil)
	for _, seed := range []string{"", "   \n\t"} {
		_, err := analyzer.Analyze(model.NewSeedExample(seed, "described but empty"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Analyze(%q) error = %v, expected ErrInvalidInput", seed, err)
		}
	}
}

// TestAnalyzerIgnoresDescription tests that the description is advisory.
func TestAnalyzerIgnoresDescription(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(nil)
	a1, err := analyzer.Analyze(model.NewSeedExample(canonicalSeed, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := analyzer.Analyze(model.NewSeedExample(canonicalSeed, `"type": "ignored"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("description changed the analysis (-want +got):\n%s", diff)
	}
}
