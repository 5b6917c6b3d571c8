package pagelift

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.jetify.com/typeid"
)

// NewRunID returns a new unique identifier for a pipeline run.
func NewRunID() string {
	id, err := typeid.WithPrefix("deploy")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ExecutionStatus represents the execution status
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// GateFunc decides whether a step should run. Returning false skips the
// step without failing the run; the step still counts toward the total.
type GateFunc func(ctx context.Context, step *Step) (bool, error)

// ExecutionOptions configures a new execution
type ExecutionOptions struct {
	Pipeline  *Pipeline
	Gate      GateFunc
	Logger    *slog.Logger
	Callbacks ExecutionCallbacks
	RunID     string
}

// Execution drives a pipeline through its steps, strictly in order. A
// failed step terminates the run; the failure is reported through the
// returned error and the execution status.
type Execution struct {
	pipeline  *Pipeline
	gate      GateFunc
	logger    *slog.Logger
	callbacks ExecutionCallbacks

	mutex        sync.RWMutex
	runID        string
	status       ExecutionStatus
	currentIndex int
	stepsRun     int
	stepsSkipped int
	startTime    time.Time
	endTime      time.Time
	err          error
	started      bool
}

// NewExecution creates an execution for the given pipeline.
func NewExecution(opts ExecutionOptions) (*Execution, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Callbacks == nil {
		opts.Callbacks = &BaseExecutionCallbacks{}
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	return &Execution{
		pipeline:     opts.Pipeline,
		gate:         opts.Gate,
		logger:       opts.Logger.With("run_id", opts.RunID),
		callbacks:    opts.Callbacks,
		runID:        opts.RunID,
		status:       ExecutionStatusPending,
		currentIndex: -1,
	}, nil
}

// ID returns the run ID
func (e *Execution) ID() string {
	return e.runID
}

// Status returns the current execution status
func (e *Execution) Status() ExecutionStatus {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.status
}

// StepsRun returns the number of steps whose work was executed
func (e *Execution) StepsRun() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.stepsRun
}

// StepsSkipped returns the number of steps the operator declined
func (e *Execution) StepsSkipped() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.stepsSkipped
}

// Err returns the error that terminated the run, if any
func (e *Execution) Err() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.err
}

// Duration returns the elapsed run time
func (e *Execution) Duration() time.Duration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if e.startTime.IsZero() {
		return 0
	}
	if e.endTime.IsZero() {
		return time.Since(e.startTime)
	}
	return e.endTime.Sub(e.startTime)
}

func (e *Execution) start() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.started {
		return fmt.Errorf("execution already started")
	}
	e.started = true
	e.status = ExecutionStatusRunning
	e.startTime = time.Now()
	return nil
}

func (e *Execution) setFinished(status ExecutionStatus, err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.status = status
	e.endTime = time.Now()
	e.err = err
}

func (e *Execution) advance(index int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.currentIndex = index
}

func (e *Execution) pipelineEvent() *PipelineExecutionEvent {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return &PipelineExecutionEvent{
		RunID:        e.runID,
		PipelineName: e.pipeline.Name(),
		Status:       e.status,
		StartTime:    e.startTime,
		EndTime:      e.endTime,
		Duration:     e.endTime.Sub(e.startTime),
		StepsTotal:   len(e.pipeline.Steps()),
		StepsRun:     e.stepsRun,
		StepsSkipped: e.stepsSkipped,
		Error:        e.err,
	}
}

// Run the pipeline to completion, blocking until all steps finish or one
// fails. The context cancels any in-flight step work.
func (e *Execution) Run(ctx context.Context) error {
	if err := e.start(); err != nil {
		return err
	}

	steps := e.pipeline.Steps()
	e.callbacks.BeforePipelineExecution(ctx, &PipelineExecutionEvent{
		RunID:        e.runID,
		PipelineName: e.pipeline.Name(),
		Status:       ExecutionStatusRunning,
		StartTime:    e.startTime,
		StepsTotal:   len(steps),
	})

	// Step bodies can retrieve the run-scoped logger from their context.
	stepCtx := WithLogger(ctx, e.logger)

	var runErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		e.advance(i)

		event := &StepExecutionEvent{
			RunID:        e.runID,
			PipelineName: e.pipeline.Name(),
			StepName:     step.Name,
			Index:        i + 1,
			Total:        len(steps),
			StartTime:    time.Now(),
		}
		e.callbacks.BeforeStepExecution(ctx, event)

		proceed := true
		if e.gate != nil && !step.AutoConfirm {
			ok, err := e.gate(stepCtx, step)
			if err != nil {
				runErr = fmt.Errorf("step %q confirmation failed: %w", step.Name, err)
				event.EndTime = time.Now()
				event.Error = runErr
				e.callbacks.AfterStepExecution(ctx, event)
				break
			}
			proceed = ok
		}

		if !proceed {
			// A declined step counts toward the total but does no work.
			e.mutex.Lock()
			e.stepsSkipped++
			e.mutex.Unlock()
			e.logger.Info("step skipped", "step", step.Name, "index", i+1, "total", len(steps))
			event.Skipped = true
			event.EndTime = time.Now()
			e.callbacks.AfterStepExecution(ctx, event)
			continue
		}

		e.logger.Info("step started", "step", step.Name, "index", i+1, "total", len(steps))
		err := step.Run(stepCtx)
		event.EndTime = time.Now()
		event.Duration = event.EndTime.Sub(event.StartTime)

		e.mutex.Lock()
		e.stepsRun++
		e.mutex.Unlock()

		if err != nil {
			runErr = fmt.Errorf("step %q failed: %w", step.Name, err)
			event.Error = runErr
			e.callbacks.AfterStepExecution(ctx, event)
			e.logger.Error("step failed", "step", step.Name, "error", err)
			break
		}
		e.callbacks.AfterStepExecution(ctx, event)
		e.logger.Info("step completed", "step", step.Name, "duration", event.Duration)
	}

	if runErr != nil {
		e.setFinished(ExecutionStatusFailed, runErr)
	} else {
		e.setFinished(ExecutionStatusCompleted, nil)
	}
	e.callbacks.AfterPipelineExecution(ctx, e.pipelineEvent())
	return runErr
}
