package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSeed = `[[{"fid":"123","view_mode":"full","type":"media"}]]`

// executeRoot runs the root command with args and returns what it printed.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTestFile writes content to name under dir and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// emptyConfig returns a configuration file with no settings, so tests never
// read a configuration file from the user's home.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeTestFile(t, t.TempDir(), "config.yaml", "")
}

// writeCorpus writes a JSONL corpus where the pages listed in leaking carry
// the seed markup and the others are clean.
func writeCorpus(t *testing.T, dir, name string, urls []string, leaking map[string]bool) string {
	t.Helper()

	var sb strings.Builder
	for _, u := range urls {
		markup := "<p>Nothing to see here.</p>"
		if leaking[u] {
			markup = "<p>Intro</p>" + testSeed + "<p>Outro</p>"
		}
		line, err := json.Marshal(map[string]string{"url": u, "markup": markup})
		if err != nil {
			t.Fatalf("failed to encode corpus line: %v", err)
		}
		sb.Write(line)
		sb.WriteString("\n")
	}
	return writeTestFile(t, dir, name, sb.String())
}

// TestNewRootCmd tests the root command wiring.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "embedleak" {
			t.Errorf("expected use 'embedleak', got %q", cmd.Use)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"init", "synthesize", "scan", "triage", "diagnose", "compare", "version"} {
			if !names[want] {
				t.Errorf("expected subcommand %q", want)
			}
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("silences usage on errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected usage and errors to be silenced")
		}
	})
}

// TestGetVerboseFlag tests reading the persistent verbose flag from a subcommand.
func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scan, _, err := root.Find([]string{"scan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !getVerboseFlag(scan) {
		t.Error("expected verbose from the root flags")
	}
	if getVerboseFlag(NewInitCmd()) {
		t.Error("expected false for a command without the flag")
	}
}

// TestOpenOutput tests report file creation.
func TestOpenOutput(t *testing.T) {
	t.Parallel()

	t.Run("stdout when no path", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w, closeFn, err := openOutput("", &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w != &buf {
			t.Error("expected the stdout writer")
		}
		if err := closeFn(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
	})

	t.Run("creates directories and private file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "report.txt")
		_, closeFn, err := openOutput(path, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := closeFn(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}
	})
}
