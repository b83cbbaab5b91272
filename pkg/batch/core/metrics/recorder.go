package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
)

// Span represents a single operation or unit of work in distributed tracing.
type Span interface {
	// End finishes the span.
	End()
}

// Filter reasons passed to RecordItemFilter.
const (
	FilterUndated   = "undated"
	FilterWindow    = "window"
	FilterStation   = "station"
	FilterCondition = "condition"
	FilterMalformed = "malformed"
)

// MetricRecorder is an abstract interface for recording metrics of a run.
// Implementations read the job name from the StepExecution stored in ctx where one is needed.
type MetricRecorder interface {
	// RecordJobStart records the start of a run.
	RecordJobStart(ctx context.Context, execution *model.JobExecution)
	// RecordJobEnd records the end of a run, including its duration.
	RecordJobEnd(ctx context.Context, execution *model.JobExecution)
	// RecordStepStart records the start of a StepExecution.
	RecordStepStart(ctx context.Context, execution *model.StepExecution)
	// RecordStepEnd records the end of a StepExecution.
	RecordStepEnd(ctx context.Context, execution *model.StepExecution)
	// RecordItemRead records one line read.
	RecordItemRead(ctx context.Context, stepName string)
	// RecordItemFilter records a line discarded for reason (one of the Filter constants).
	RecordItemFilter(ctx context.Context, stepName string, reason string)
	// RecordItemWrite records count rows written to staging.
	RecordItemWrite(ctx context.Context, stepName string, count int)
	// RecordChunkCommit records the commitment of a chunk.
	RecordChunkCommit(ctx context.Context, stepName string, count int)
	// RecordPartition records a partition scan; earlyBreak is true when the scan stopped at the window end.
	RecordPartition(ctx context.Context, table string, earlyBreak bool)
	// RecordOutput records the final output: strategy is "large" or "small".
	RecordOutput(ctx context.Context, strategy string, bytes int64, records int)
	// RecordStationsFound records the size of a station lookup result.
	RecordStationsFound(ctx context.Context, count int)
	// RecordDuration records the execution time of a named operation.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
