package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestDiagnoseCmd tests listing the matches of one page.
func TestDiagnoseCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	leaking := writeTestFile(t, dir, "leak.html", "<p>Intro</p>"+testSeed+"<p>Outro</p>")
	clean := writeTestFile(t, dir, "clean.html", "<p>Nothing here</p>")

	t.Run("json lists matches with offsets", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "diagnose", "-s", testSeed, "--page", leaking, "-f", "json", "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var d diagnosis
		if err := json.Unmarshal([]byte(out), &d); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if d.Total == 0 || d.Total != len(d.Matches) {
			t.Fatalf("expected matches, got total %d with %d records", d.Total, len(d.Matches))
		}
		content := "<p>Intro</p>" + testSeed + "<p>Outro</p>"
		for _, m := range d.Matches {
			if m.Start < 0 || m.End > len(content) || m.Start >= m.End {
				t.Errorf("bad offsets %d-%d for %s", m.Start, m.End, m.Pattern)
			}
		}
	})

	t.Run("clean page", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "diagnose", "-s", testSeed, "--page", clean, "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Matches:  0") || !strings.Contains(out, "No matches") {
			t.Errorf("expected a clean diagnosis, got:\n%s", out)
		}
	})

	t.Run("markdown wraps the listing", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "diagnose", "-s", testSeed, "--page", leaking, "-f", "markdown", "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Diagnosis") || !strings.Contains(out, "```text") {
			t.Errorf("expected markdown output, got:\n%s", out)
		}
	})

	t.Run("fetches a url", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html><body>"+testSeed+"</body></html>")
		}))
		defer srv.Close()

		out, err := executeRoot(t, "diagnose", "-s", testSeed, srv.URL+"/news/1", "-f", "json", "-c", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var d diagnosis
		if err := json.Unmarshal([]byte(out), &d); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if d.URL != srv.URL+"/news/1" || d.Total == 0 {
			t.Errorf("expected matches for the fetched page, got %+v", d)
		}
	})

	t.Run("needs a page", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "diagnose", "-s", testSeed, "-c", emptyConfig(t))
		if !errors.Is(err, errNoPage) {
			t.Errorf("expected errNoPage, got %v", err)
		}
	})

	t.Run("page and url conflict", func(t *testing.T) {
		t.Parallel()

		if _, err := executeRoot(t, "diagnose", "-s", testSeed, "--page", clean, "https://example.com/", "-c", emptyConfig(t)); err == nil {
			t.Error("expected error when both a page and a url are given")
		}
	})
}
