package model

import (
	"fmt"
	"strings"
)

// Priority is the business triage level assigned to an affected page by its URL shape.
// Values are ordered so that a higher value means a more urgent remediation.
type Priority int

const (
	// PrioritySkip marks pages that do not need remediation, such as
	// administrative screens that are never shown to visitors.
	PrioritySkip Priority = iota

	// PriorityLow marks pages that can be fixed opportunistically.
	PriorityLow

	// PriorityMedium marks pages that should be fixed in the next maintenance window.
	PriorityMedium

	// PriorityHigh marks prominent public pages that should be fixed first.
	PriorityHigh
)

// Priorities lists every priority from most to least urgent.
// Reports iterate over this slice so that output order never depends on map order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow, PrioritySkip}

// String returns the lower-case name used in configuration files and JSON output.
func (p Priority) String() string {
	switch p {
	case PrioritySkip:
		return "skip"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePriority converts a configuration string into a Priority.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return PrioritySkip, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PrioritySkip, fmt.Errorf("unknown priority %q (want skip, low, medium or high)", s)
	}
}

// MarshalText implements encoding.TextMarshaler so priorities are written as names
// in both JSON and YAML.
func (p Priority) MarshalText() ([]byte, error) {
	if p < PrioritySkip || p > PriorityHigh {
		return nil, fmt.Errorf("invalid priority value %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
