package scan

import (
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"

	"github.com/nao1215/embedleak/internal/model"
)

// DefaultSnippetRadius is the number of characters kept on each side of a
// match start in a snippet.
const DefaultSnippetRadius = 150

// Scanner applies a pattern set to page content. It holds no mutable state and
// is safe for concurrent use by any number of goroutines.
type Scanner struct {
	patterns []model.PatternSpec
	radius   int

	// prefilter finds which anchors occur in case-folded content.
	prefilter *ahocorasick.Matcher
	// required lists, per pattern, the anchor indexes it needs.
	required [][]int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSnippetRadius sets the snippet radius in characters.
func WithSnippetRadius(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.radius = n
		}
	}
}

// New creates a scanner for the pattern set.
func New(ps *model.PatternSet, opts ...Option) *Scanner {
	s := &Scanner{radius: DefaultSnippetRadius}
	for _, opt := range opts {
		opt(s)
	}
	if ps == nil {
		return s
	}

	s.patterns = ps.Patterns()
	s.required = make([][]int, len(s.patterns))

	var dict []string
	index := make(map[string]int)
	for i, spec := range s.patterns {
		for _, a := range spec.Anchors {
			a = fold(a)
			j, ok := index[a]
			if !ok {
				j = len(dict)
				index[a] = j
				dict = append(dict, a)
			}
			s.required[i] = append(s.required[i], j)
		}
	}
	if len(dict) > 0 {
		s.prefilter = ahocorasick.NewStringMatcher(dict)
	}
	return s
}

// Patterns returns the number of patterns the scanner applies.
func (s *Scanner) Patterns() int {
	return len(s.patterns)
}

// Scan scans one page. It returns nil when the page has no content or no
// pattern matched.
func (s *Scanner) Scan(page *model.Page) *model.PageResult {
	if page == nil {
		return nil
	}
	return s.ScanContent(page.URL, page.Content())
}

// ScanContent scans content for url. It returns nil when content is empty or
// no pattern matched. Scanning the same content twice yields equal results.
func (s *Scanner) ScanContent(url, content string) *model.PageResult {
	if content == "" || len(s.patterns) == 0 {
		return nil
	}

	var (
		counts  map[string]int
		total   int
		snippet string
		found   bool
	)
	for i, ok := range s.candidates(content) {
		if !ok {
			continue
		}
		p := s.patterns[i]
		locs := p.Regexp().FindAllStringIndex(content, -1)
		if len(locs) == 0 {
			continue
		}
		if counts == nil {
			counts = make(map[string]int)
		}
		counts[p.Name] = len(locs)
		total += len(locs)
		if !found {
			snippet = Snippet(content, locs[0][0], s.radius)
			found = true
		}
	}

	if total == 0 {
		return nil
	}
	return &model.PageResult{
		URL:           url,
		PatternCounts: counts,
		TotalMatches:  total,
		Snippet:       snippet,
	}
}

// Matches returns every match of every pattern in content, grouped by pattern
// in name order.
func (s *Scanner) Matches(content string) []model.MatchRecord {
	out := make([]model.MatchRecord, 0)
	if content == "" {
		return out
	}
	for i, ok := range s.candidates(content) {
		if !ok {
			continue
		}
		p := s.patterns[i]
		for _, loc := range p.Regexp().FindAllStringIndex(content, -1) {
			out = append(out, model.MatchRecord{
				Pattern: p.Name,
				Start:   loc[0],
				End:     loc[1],
				Snippet: Snippet(content, loc[0], s.radius),
			})
		}
	}
	return out
}

// candidates reports, per pattern, whether all of its anchors occur in content.
// Patterns without anchors are always candidates.
func (s *Scanner) candidates(content string) []bool {
	out := make([]bool, len(s.patterns))
	if s.prefilter == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}

	present := make(map[int]bool)
	for _, hit := range s.prefilter.MatchThreadSafe([]byte(fold(content))) {
		present[hit] = true
	}
	for i, req := range s.required {
		out[i] = true
		for _, j := range req {
			if !present[j] {
				out[i] = false
				break
			}
		}
	}
	return out
}

// fold normalizes case the way case-insensitive matching does for ASCII
// anchors, including the Kelvin sign and the long s.
func fold(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}

// Snippet returns up to radius characters on each side of the byte offset at.
// The window never splits a UTF-8 sequence.
func Snippet(content string, at, radius int) string {
	if at < 0 {
		at = 0
	}
	if at > len(content) {
		at = len(content)
	}

	start := at
	for n := 0; n < radius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}
	end := at
	for n := 0; n < radius && end < len(content); n++ {
		_, size := utf8.DecodeRuneInString(content[end:])
		end += size
	}
	return content[start:end]
}
