package pattern

import (
	"log/slog"

	"github.com/nao1215/embedleak/internal/model"
)

// Result is the output of one synthesis run.
type Result struct {
	Analysis   *model.Analysis
	Patterns   *model.PatternSet
	Validation Validation

	// Warnings holds non-fatal conditions such as ErrEmptyPatternSet.
	Warnings []error
}

// Engine runs analysis, synthesis and validation for a seed.
type Engine struct {
	analyzer    *Analyzer
	synthesizer *Synthesizer
	policy      ConfidencePolicy
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy sets the confidence policy.
func WithPolicy(p ConfidencePolicy) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine. The analyzer and synthesizer share the
// synthesizer's quote class.
func NewEngine(synth *Synthesizer, opts ...EngineOption) *Engine {
	if synth == nil {
		synth = NewSynthesizer()
	}
	e := &Engine{
		analyzer:    NewAnalyzer(synth.quotes),
		synthesizer: synth,
		policy:      DefaultThresholdPolicy().Policy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run analyzes the seed, synthesizes the tiers and validates them against the
// seed. The returned pattern set carries the computed confidence.
func (e *Engine) Run(seed model.SeedExample) (*Result, error) {
	analysis, err := e.analyzer.Analyze(seed)
	if err != nil {
		return nil, err
	}
	for _, an := range analysis.Anomalies {
		e.logger.Debug("seed anomaly", "anomaly", DescribeAnomaly(an), "quote", an.Quote)
	}

	ps, err := e.synthesizer.Synthesize(seed, analysis)
	if err != nil {
		return nil, err
	}

	v := Validate(seed.Text(), ps, e.policy)
	meta := ps.Meta()
	meta.MatchRate = v.MatchRate
	meta.Confidence = v.Confidence

	res := &Result{
		Analysis:   analysis,
		Patterns:   ps.WithMeta(meta),
		Validation: v,
	}
	if ps.Len() == 0 {
		res.Warnings = append(res.Warnings, ErrEmptyPatternSet)
	}

	e.logger.Info("patterns synthesized",
		"patterns", ps.Len(),
		"match_rate", v.MatchRate,
		"confidence", string(v.Confidence),
		"fields", analysis.FieldNameStrings(),
	)
	return res, nil
}
