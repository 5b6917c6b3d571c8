package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/pagelift/pagelift"
)

// progressCallbacks renders step progress on the terminal. Logging stays
// on the structured logger; this is the operator-facing narration.
type progressCallbacks struct {
	pagelift.BaseExecutionCallbacks
}

func (p *progressCallbacks) BeforePipelineExecution(ctx context.Context, event *pagelift.PipelineExecutionEvent) {
	color.Cyan("%s (%d steps, run %s)", event.PipelineName, event.StepsTotal, event.RunID)
}

func (p *progressCallbacks) BeforeStepExecution(ctx context.Context, event *pagelift.StepExecutionEvent) {
	color.Blue("[%d/%d] %s", event.Index, event.Total, event.StepName)
}

func (p *progressCallbacks) AfterStepExecution(ctx context.Context, event *pagelift.StepExecutionEvent) {
	switch {
	case event.Error != nil:
		color.Red("[%d/%d] %s failed", event.Index, event.Total, event.StepName)
	case event.Skipped:
		color.Yellow("[%d/%d] %s skipped", event.Index, event.Total, event.StepName)
	}
}

func (p *progressCallbacks) AfterPipelineExecution(ctx context.Context, event *pagelift.PipelineExecutionEvent) {
	if event.Error != nil {
		return
	}
	color.White("Completed %d of %d steps in %v",
		event.StepsRun, event.StepsTotal, event.Duration.Round(time.Millisecond))
}

// loggingCallbacks mirrors execution events into the structured log; it
// rides the callback chain next to the terminal renderer.
type loggingCallbacks struct {
	pagelift.BaseExecutionCallbacks
	logger *slog.Logger
}

func (l *loggingCallbacks) BeforePipelineExecution(ctx context.Context, event *pagelift.PipelineExecutionEvent) {
	l.logger.Info("pipeline started",
		"run_id", event.RunID, "pipeline", event.PipelineName, "steps", event.StepsTotal)
}

func (l *loggingCallbacks) AfterStepExecution(ctx context.Context, event *pagelift.StepExecutionEvent) {
	if event.Error != nil {
		l.logger.Error("step failed", "step", event.StepName, "error", event.Error)
		return
	}
	l.logger.Debug("step finished",
		"step", event.StepName, "skipped", event.Skipped, "duration", event.Duration)
}

func (l *loggingCallbacks) AfterPipelineExecution(ctx context.Context, event *pagelift.PipelineExecutionEvent) {
	l.logger.Info("pipeline finished",
		"run_id", event.RunID, "status", event.Status,
		"steps_run", event.StepsRun, "steps_skipped", event.StepsSkipped,
		"duration", event.Duration)
}
