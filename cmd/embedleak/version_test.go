package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestVersionInfo tests that every version field has a fallback.
func TestVersionInfo(t *testing.T) {
	t.Parallel()

	for name, got := range map[string]string{
		"version": getVersion(),
		"commit":  getCommit(),
		"date":    getDate(),
	} {
		if got == "" {
			t.Errorf("%s is empty", name)
		}
	}
	if c := getCommit(); c != "unknown" && len(c) > 7 {
		t.Errorf("expected a short commit hash, got %q", c)
	}
}

// TestNewVersionCmd tests the version command output.
func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"embedleak version", "commit:", "built:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected output to contain %q, got %q", want, buf.String())
		}
	}
}
