package config

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/nao1215/embedleak/internal/pattern"
	"github.com/nao1215/embedleak/internal/triage"
)

// File is the structure of the .embedleak YAML file. Every section is
// optional; missing values fall back to the built-in defaults.
type File struct {
	Synthesis  SynthesisConfig  `yaml:"synthesis,omitempty"`
	Confidence ConfidenceConfig `yaml:"confidence,omitempty"`
	Quotes     QuotesConfig     `yaml:"quotes,omitempty"`
	Scan       ScanConfig       `yaml:"scan,omitempty"`
	Fetch      FetchConfig      `yaml:"fetch,omitempty"`

	// Categories replaces the built-in triage rules when non-empty. The
	// last rule must be a catch-all.
	Categories []CategoryConfig `yaml:"categories,omitempty"`
}

// SynthesisConfig holds pattern synthesis parameters.
type SynthesisConfig struct {
	// Window is the co-occurrence window, 500 to 1000.
	Window int `yaml:"window,omitempty"`

	// MinSpan is the floor of the strict-span minimum.
	MinSpan int `yaml:"min_span,omitempty"`

	// SpanRatio is the seed-length fraction of the strict-span minimum.
	SpanRatio float64 `yaml:"span_ratio,omitempty"`

	// SemanticFields are tried in order for the value-anchored pattern.
	SemanticFields []string `yaml:"semantic_fields,omitempty"`

	// FieldKeys is how many field names get their own pattern.
	FieldKeys *int `yaml:"field_keys,omitempty"`
}

// ConfidenceConfig holds the confidence ladder.
type ConfidenceConfig struct {
	High   float64 `yaml:"high,omitempty"`
	Medium float64 `yaml:"medium,omitempty"`
}

// QuotesConfig replaces the quote catalogue when Chars is non-empty.
type QuotesConfig struct {
	Chars    []QuoteConfig `yaml:"chars,omitempty"`
	Entities []string      `yaml:"entities,omitempty"`
}

// QuoteConfig is one quote catalogue entry.
type QuoteConfig struct {
	Char  string `yaml:"char"`
	Label string `yaml:"label"`
}

// ScanConfig holds scanning defaults.
type ScanConfig struct {
	SnippetRadius int `yaml:"snippet_radius,omitempty"`
	Concurrency   int `yaml:"concurrency,omitempty"`
}

// FetchConfig holds fetching defaults.
type FetchConfig struct {
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Proxy       string        `yaml:"proxy,omitempty"`
	MaxBodySize int64         `yaml:"max_body_size,omitempty"`
}

// CategoryConfig is one triage rule.
type CategoryConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Pattern     string `yaml:"pattern,omitempty"`
	Priority    string `yaml:"priority"`
	Description string `yaml:"description,omitempty"`
}

// DefaultFile returns an empty file, which means built-in defaults everywhere.
func DefaultFile() *File {
	return &File{}
}

// Validate checks the values that the builders would otherwise clamp or
// silently ignore.
func (f *File) Validate() error {
	if w := f.Synthesis.Window; w != 0 && (w < pattern.MinWindow || w > pattern.MaxWindow) {
		return fmt.Errorf("%w: got %d", pattern.ErrInvalidWindow, w)
	}
	if _, err := f.thresholds(); err != nil {
		return err
	}
	if _, err := f.QuoteClass(); err != nil {
		return err
	}
	if _, err := f.RuleSet(); err != nil {
		return err
	}
	return nil
}

// QuoteClass builds the configured quote catalogue.
func (f *File) QuoteClass() (*pattern.QuoteClass, error) {
	if len(f.Quotes.Chars) == 0 && len(f.Quotes.Entities) == 0 {
		return pattern.DefaultQuoteClass(), nil
	}

	chars := pattern.DefaultQuoteChars
	if len(f.Quotes.Chars) > 0 {
		chars = make([]pattern.QuoteChar, 0, len(f.Quotes.Chars))
		for _, q := range f.Quotes.Chars {
			if utf8.RuneCountInString(q.Char) != 1 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidQuoteChar, q.Char)
			}
			r, _ := utf8.DecodeRuneInString(q.Char)
			chars = append(chars, pattern.QuoteChar{Char: r, Label: q.Label})
		}
	}
	entities := pattern.DefaultQuoteEntities
	if len(f.Quotes.Entities) > 0 {
		entities = f.Quotes.Entities
	}
	return pattern.NewQuoteClass(chars, entities)
}

func (f *File) thresholds() (pattern.ThresholdPolicy, error) {
	p := pattern.DefaultThresholdPolicy()
	if f.Confidence.High != 0 {
		p.High = f.Confidence.High
	}
	if f.Confidence.Medium != 0 {
		p.Medium = f.Confidence.Medium
	}
	if p.Medium <= 0 || p.Medium > p.High || p.High > 1 {
		return p, fmt.Errorf("%w: high %.2f, medium %.2f", ErrInvalidThresholds, p.High, p.Medium)
	}
	return p, nil
}

// Synthesizer builds a synthesizer from the synthesis and quote sections.
func (f *File) Synthesizer() (*pattern.Synthesizer, error) {
	quotes, err := f.QuoteClass()
	if err != nil {
		return nil, err
	}
	opts := []pattern.SynthesizerOption{pattern.WithQuoteClass(quotes)}
	if f.Synthesis.Window != 0 {
		opts = append(opts, pattern.WithWindow(f.Synthesis.Window))
	}
	if f.Synthesis.MinSpan != 0 {
		opts = append(opts, pattern.WithMinSpan(f.Synthesis.MinSpan))
	}
	if f.Synthesis.SpanRatio != 0 {
		opts = append(opts, pattern.WithSpanRatio(f.Synthesis.SpanRatio))
	}
	if len(f.Synthesis.SemanticFields) > 0 {
		opts = append(opts, pattern.WithSemanticFields(f.Synthesis.SemanticFields))
	}
	if f.Synthesis.FieldKeys != nil {
		opts = append(opts, pattern.WithFieldKeyCount(*f.Synthesis.FieldKeys))
	}
	return pattern.NewSynthesizer(opts...), nil
}

// Engine builds the synthesis engine with the configured confidence ladder.
func (f *File) Engine(logger *slog.Logger) (*pattern.Engine, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	synth, err := f.Synthesizer()
	if err != nil {
		return nil, err
	}
	policy, err := f.thresholds()
	if err != nil {
		return nil, err
	}
	return pattern.NewEngine(synth,
		pattern.WithPolicy(policy.Policy()),
		pattern.WithEngineLogger(logger),
	), nil
}

// RuleSet builds the triage rules, or returns the built-in rules when the
// file has none.
func (f *File) RuleSet() (*triage.RuleSet, error) {
	if len(f.Categories) == 0 {
		return triage.DefaultRuleSet(), nil
	}
	defs := make([]triage.RuleDef, 0, len(f.Categories))
	for _, c := range f.Categories {
		defs = append(defs, triage.RuleDef{
			Name:        c.Name,
			Kind:        c.Kind,
			Pattern:     c.Pattern,
			Priority:    c.Priority,
			Description: c.Description,
		})
	}
	return triage.BuildRuleSet(defs)
}

// Categorizer builds a categorizer over the configured rules.
func (f *File) Categorizer(logger *slog.Logger) (*triage.Categorizer, error) {
	rules, err := f.RuleSet()
	if err != nil {
		return nil, err
	}
	return triage.NewCategorizer(rules, triage.WithLogger(logger)), nil
}
