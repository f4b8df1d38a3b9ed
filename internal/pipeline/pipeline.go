package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/embedleak/internal/model"
)

// Step is one stage of a scan run. Steps run in sequence and each one sees
// what the previous steps recorded on the run.
type Step interface {
	// Do executes the step. Conditions that should not stop the run are
	// recorded on the run as warnings or skipped pages and Do returns nil.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline runs its steps in order over a single run.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used during execution.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after one fails.
// The failure is still recorded on the run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in order. Cancellation is checked between steps;
// a step that blocks is expected to watch ctx itself.
//
// The run's error fields and duration are set before Execute returns.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	var firstErr error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled", "step", step.Name(), "run_id", run.ID, "reason", ctx.Err())
			run.Finish(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name(), "run_id", run.ID)
		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "run_id", run.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				run.Finish(err)
				return err
			}
			continue
		}
		p.logger.Debug("step completed", "step", step.Name(), "run_id", run.ID)
	}
	run.Finish(firstErr)
	return firstErr
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
