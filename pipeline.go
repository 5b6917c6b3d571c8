package pagelift

import (
	"context"
	"fmt"
)

// Step is a single named unit of work in a pipeline. Steps are immutable
// once the pipeline is assembled.
type Step struct {
	// Name identifies the step. Required and unique within a pipeline.
	Name string

	// Description is a short human-readable summary shown before the step
	// runs and in confirmation prompts.
	Description string

	// AutoConfirm skips the interactive "proceed?" gate for this step.
	AutoConfirm bool

	// Run performs the step's work. A non-nil error terminates the whole
	// pipeline run.
	Run func(ctx context.Context) error
}

// Options are used to configure a pipeline.
type Options struct {
	Name        string
	Description string
	Steps       []*Step
}

// Pipeline defines a fixed ordered sequence of steps. It carries no
// execution state; see Execution.
type Pipeline struct {
	name        string
	description string
	steps       []*Step
	stepsByName map[string]*Step
}

// New returns a new Pipeline configured with the given options.
func New(opts Options) (*Pipeline, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("pipeline name required")
	}
	if len(opts.Steps) == 0 {
		return nil, fmt.Errorf("steps required")
	}
	stepsByName := make(map[string]*Step, len(opts.Steps))
	for _, step := range opts.Steps {
		if step.Name == "" {
			return nil, fmt.Errorf("step name required")
		}
		if step.Run == nil {
			return nil, fmt.Errorf("step %q has no work function", step.Name)
		}
		if _, exists := stepsByName[step.Name]; exists {
			return nil, fmt.Errorf("duplicate step name %q", step.Name)
		}
		stepsByName[step.Name] = step
	}
	return &Pipeline{
		name:        opts.Name,
		description: opts.Description,
		steps:       opts.Steps,
		stepsByName: stepsByName,
	}, nil
}

// Name returns the pipeline name
func (p *Pipeline) Name() string {
	return p.name
}

// Description returns the pipeline description
func (p *Pipeline) Description() string {
	return p.description
}

// Steps returns the pipeline steps in execution order
func (p *Pipeline) Steps() []*Step {
	return p.steps
}

// GetStep returns a step by name
func (p *Pipeline) GetStep(name string) (*Step, bool) {
	step, ok := p.stepsByName[name]
	return step, ok
}

// StepNames returns the names of all steps in execution order
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name)
	}
	return names
}
