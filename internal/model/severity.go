package model

import (
	"fmt"
	"strings"
)

// Severity is the urgency of a triage recommendation.
type Severity int

const (
	// SeverityInfo marks advice that needs no remediation work.
	SeverityInfo Severity = iota

	// SeverityImportant marks pages to fix in the next maintenance window.
	SeverityImportant

	// SeverityCritical marks pages to remediate first.
	SeverityCritical
)

// String returns the label used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityImportant:
		return "IMPORTANT"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText writes the severity by label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a severity label, case-insensitively.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "INFO":
		*s = SeverityInfo
	case "IMPORTANT":
		*s = SeverityImportant
	case "CRITICAL":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// RecommendationInfo is the fixed wording attached to a triggered recommendation.
type RecommendationInfo struct {
	Severity Severity
	Action   string
	Impact   string
}

// recommendationMapping lists the priorities that trigger a recommendation,
// keyed by the priority whose pages trigger it. Low priority triggers nothing.
var recommendationMapping = map[Priority]RecommendationInfo{
	PriorityHigh: {
		Severity: SeverityCritical,
		Action:   "Remediate the high priority pages first.",
		Impact:   "Leaked embed markup is visible on prominent public pages instead of the media it should render.",
	},
	PriorityMedium: {
		Severity: SeverityImportant,
		Action:   "Schedule the medium priority pages for the next maintenance window.",
		Impact:   "Leaked embed markup is visible on regular content pages.",
	},
	PrioritySkip: {
		Severity: SeverityInfo,
		Action:   "Consider ignoring the skip priority pages; they are not shown to visitors.",
		Impact:   "Leaked embed markup only appears on administrative or private pages.",
	},
}

// RecommendationOrder is the fixed order in which recommendations are emitted.
var RecommendationOrder = []Priority{PriorityHigh, PriorityMedium, PrioritySkip}

// GetRecommendationInfo returns the recommendation triggered by pages of the
// given priority. The second return value is false when the priority triggers none.
func GetRecommendationInfo(p Priority) (RecommendationInfo, bool) {
	info, ok := recommendationMapping[p]
	return info, ok
}
