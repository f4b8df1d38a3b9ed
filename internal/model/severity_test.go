package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityImportant, "IMPORTANT"},
		{SeverityCritical, "CRITICAL"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestGetRecommendationInfo tests which priorities trigger recommendations.
func TestGetRecommendationInfo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		priority  Priority
		triggered bool
		severity  Severity
	}{
		{PriorityHigh, true, SeverityCritical},
		{PriorityMedium, true, SeverityImportant},
		{PriorityLow, false, SeverityInfo},
		{PrioritySkip, true, SeverityInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.priority.String(), func(t *testing.T) {
			t.Parallel()

			info, ok := GetRecommendationInfo(tc.priority)
			if ok != tc.triggered {
				t.Fatalf("triggered = %v, expected %v", ok, tc.triggered)
			}
			if ok && info.Severity != tc.severity {
				t.Errorf("severity = %v, expected %v", info.Severity, tc.severity)
			}
			if ok && info.Action == "" {
				t.Error("expected a non-empty action")
			}
		})
	}
}

// TestRecommendationOrder tests that the emission order is fixed.
func TestRecommendationOrder(t *testing.T) {
	t.Parallel()

	want := []Priority{PriorityHigh, PriorityMedium, PrioritySkip}
	if len(RecommendationOrder) != len(want) {
		t.Fatalf("got %d entries, expected %d", len(RecommendationOrder), len(want))
	}
	for i := range want {
		if RecommendationOrder[i] != want[i] {
			t.Errorf("RecommendationOrder[%d] = %v, expected %v", i, RecommendationOrder[i], want[i])
		}
	}
}

// TestSeverityUnmarshalText tests reading severities back from their labels.
func TestSeverityUnmarshalText(t *testing.T) {
	t.Parallel()

	for _, want := range []Severity{SeverityInfo, SeverityImportant, SeverityCritical} {
		text, err := want.MarshalText()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got Severity
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("unexpected error for %s: %v", text, err)
		}
		if got != want {
			t.Errorf("got %v, expected %v", got, want)
		}
	}

	var s Severity
	if err := s.UnmarshalText([]byte("critical")); err != nil || s != SeverityCritical {
		t.Errorf("expected lowercase label to parse, got %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("urgent")); err == nil {
		t.Error("expected error for an unknown label")
	}
}
