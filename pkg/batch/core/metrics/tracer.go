package metrics

import (
	"context"

	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing.
// Every Start* method returns a context carrying the new span and a function ending it;
// call the function in a defer statement.
type Tracer interface {
	// StartJobSpan starts a span for a run.
	StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())
	// StartStepSpan starts a span for a StepExecution.
	StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func())
	// StartPartitionSpan starts a span for the scan of one partition file.
	StartPartitionSpan(ctx context.Context, partition string) (context.Context, func())
	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)
	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
