package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/embedleak/internal/model"
)

// entry is one line of a JSONL corpus.
type entry struct {
	URL    string `json:"url"`
	Markup string `json:"markup"`
	Text   string `json:"text"`
}

// Corpus is the decoded content of a JSONL file.
type Corpus struct {
	// Pages holds the decoded pages in file order.
	Pages []*model.Page

	// Skipped holds one entry per undecodable line. Its URL is the page URL
	// when known, otherwise "line N".
	Skipped []model.SkippedPage
}

// ReadJSONL decodes a JSONL corpus. Blank lines are ignored. Only a read
// failure of r itself is returned as an error.
func ReadJSONL(r io.Reader) (*Corpus, error) {
	c := &Corpus{
		Pages:   make([]*model.Page, 0),
		Skipped: make([]model.SkippedPage, 0),
	}

	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			c.add(lineNo, line)
		}
		if errors.Is(err, io.EOF) {
			return c, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus line %d: %w", lineNo, err)
		}
	}
}

// add decodes one non-blank line.
func (c *Corpus) add(lineNo int, line []byte) {
	var e entry
	if err := json.Unmarshal(line, &e); err != nil {
		c.Skipped = append(c.Skipped, model.SkippedPage{
			URL:    fmt.Sprintf("line %d", lineNo),
			Reason: fmt.Sprintf("malformed entry: %v", err),
		})
		return
	}
	e.URL = strings.TrimSpace(e.URL)
	if e.URL == "" {
		c.Skipped = append(c.Skipped, model.SkippedPage{
			URL:    fmt.Sprintf("line %d", lineNo),
			Reason: "entry has no url",
		})
		return
	}

	page := &model.Page{URL: e.URL, Markup: e.Markup, Text: e.Text}
	page.Truncate()
	page.ComputeHash()
	c.Pages = append(c.Pages, page)
}

// ReadJSONLFile decodes the JSONL corpus at path.
func ReadJSONLFile(path string) (*Corpus, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// WriteJSONL encodes pages as a JSONL corpus, one object per line.
func WriteJSONL(w io.Writer, pages []*model.Page) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, p := range pages {
		if p == nil {
			continue
		}
		if err := enc.Encode(entry{URL: p.URL, Markup: p.Markup, Text: p.Text}); err != nil {
			return fmt.Errorf("write corpus entry %s: %w", p.URL, err)
		}
	}
	return nil
}

// ReadURLList reads one URL per line. Blank lines and text after # are
// ignored, and duplicates are kept only once in first-seen order.
func ReadURLList(r io.Reader) ([]string, error) {
	urls := make([]string, 0)
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	if len(urls) == 0 {
		return nil, ErrEmptyCorpus
	}
	return urls, nil
}

// ReadURLListFile reads the URL list at path.
func ReadURLListFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()
	return ReadURLList(f)
}

// ReadResults decodes a results file. A file without a results array yields
// a set with nil Results, which triage rejects as missing input.
func ReadResults(r io.Reader) (*model.ResultSet, error) {
	var rs model.ResultSet
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &rs, nil
}

// ReadResultsFile decodes the results file at path.
func ReadResultsFile(path string) (*model.ResultSet, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()
	return ReadResults(f)
}
