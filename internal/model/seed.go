package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// SeedExample is one confirmed occurrence of the markup-leak defect.
// It is captured once per investigation and never modified afterwards;
// the accessor methods return copies of the captured values.
type SeedExample struct {
	text        string
	description string
	fingerprint string
}

// NewSeedExample captures a seed example. The description is advisory and is
// never used by pattern synthesis.
func NewSeedExample(text, description string) SeedExample {
	return SeedExample{
		text:        text,
		description: description,
		fingerprint: Fingerprint(text),
	}
}

// Text returns the raw seed text.
func (s SeedExample) Text() string {
	return s.text
}

// Description returns the optional human description.
func (s SeedExample) Description() string {
	return s.description
}

// Fingerprint returns the hex SHA3-256 digest of the seed text.
// Pattern sets derived from the same seed share a fingerprint.
func (s SeedExample) Fingerprint() string {
	return s.fingerprint
}

// IsEmpty reports whether the seed carries no usable text.
func (s SeedExample) IsEmpty() bool {
	return strings.TrimSpace(s.text) == ""
}

// Fingerprint computes the hex SHA3-256 digest of text.
func Fingerprint(text string) string {
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
