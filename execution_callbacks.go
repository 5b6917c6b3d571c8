package pagelift

import (
	"context"
	"time"
)

// ExecutionCallbacks defines the callback interface for pipeline execution events
type ExecutionCallbacks interface {
	// Pipeline-level callbacks
	BeforePipelineExecution(ctx context.Context, event *PipelineExecutionEvent)
	AfterPipelineExecution(ctx context.Context, event *PipelineExecutionEvent)

	// Step-level callbacks
	BeforeStepExecution(ctx context.Context, event *StepExecutionEvent)
	AfterStepExecution(ctx context.Context, event *StepExecutionEvent)
}

// PipelineExecutionEvent provides context for pipeline-level execution events
type PipelineExecutionEvent struct {
	RunID        string
	PipelineName string
	Status       ExecutionStatus
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	StepsTotal   int
	StepsRun     int
	StepsSkipped int
	Error        error
}

// StepExecutionEvent provides context for step-level execution events
type StepExecutionEvent struct {
	RunID        string
	PipelineName string
	StepName     string
	Index        int
	Total        int
	Skipped      bool
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Error        error
}

// BaseExecutionCallbacks provides a default implementation that does nothing
type BaseExecutionCallbacks struct{}

func (n *BaseExecutionCallbacks) BeforePipelineExecution(ctx context.Context, event *PipelineExecutionEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) AfterPipelineExecution(ctx context.Context, event *PipelineExecutionEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) BeforeStepExecution(ctx context.Context, event *StepExecutionEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) AfterStepExecution(ctx context.Context, event *StepExecutionEvent) {
	// noop
}

// NewBaseExecutionCallbacks creates a new no-op callbacks implementation.
// Embed this in your own callbacks to get a default implementation that does nothing.
func NewBaseExecutionCallbacks() ExecutionCallbacks {
	return &BaseExecutionCallbacks{}
}

// CallbackChain allows chaining multiple callback implementations
type CallbackChain struct {
	callbacks []ExecutionCallbacks
}

// NewCallbackChain creates a new callback chain
func NewCallbackChain(callbacks ...ExecutionCallbacks) *CallbackChain {
	return &CallbackChain{callbacks: callbacks}
}

// Add adds a callback to the chain
func (c *CallbackChain) Add(callback ExecutionCallbacks) {
	c.callbacks = append(c.callbacks, callback)
}

func (c *CallbackChain) BeforePipelineExecution(ctx context.Context, event *PipelineExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforePipelineExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterPipelineExecution(ctx context.Context, event *PipelineExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterPipelineExecution(ctx, event)
	}
}

func (c *CallbackChain) BeforeStepExecution(ctx context.Context, event *StepExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeStepExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterStepExecution(ctx context.Context, event *StepExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterStepExecution(ctx, event)
	}
}
