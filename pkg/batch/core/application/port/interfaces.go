// Package port defines the core interfaces (ports) of the extraction engine.
// A step is assembled from an ItemReader, an ItemProcessor and an ItemWriter;
// the engine only depends on these abstractions.
package port

import (
	"context"
	"errors"
	"io"

	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
)

// ErrNoMoreItems is returned by ItemReader.Read once the input is exhausted.
var ErrNoMoreItems = io.EOF

// ErrSkipPartition is returned by an ItemProcessor to abandon the rest of the current partition.
// The step forwards the request to a reader implementing PartitionSkipper.
// The item that triggered it is discarded.
var ErrSkipPartition = errors.New("skip remainder of partition")

// Step is a unit of work that runs against a StepExecution.
type Step interface {
	// Execute runs the step and updates stepExecution with counters and status.
	Execute(ctx context.Context, stepExecution *model.StepExecution) error
	// StepName returns the name used in logs and metrics.
	StepName() string
}

// ItemReader is the interface for a data reading step.
// O is the type of item to be read.
type ItemReader[O any] interface {
	// Open acquires resources. ec receives reader state such as the current partition.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Read returns the next item, or ErrNoMoreItems when the input is exhausted.
	Read(ctx context.Context) (O, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// PartitionSkipper is implemented by readers that stream several partitions in sequence.
type PartitionSkipper interface {
	// SkipPartition closes the current partition so the next Read starts on the following one.
	SkipPartition(ctx context.Context) error
}

// ItemProcessor transforms an item or filters it out.
type ItemProcessor[I, O any] interface {
	// Process returns the transformed item. ok is false when the item is filtered out.
	Process(ctx context.Context, item I) (O, bool, error)
}

// ItemWriter is the interface for a data writing step.
type ItemWriter[I any] interface {
	// Open acquires the output resource.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Write writes one chunk of items.
	Write(ctx context.Context, items []I) error
	// Close flushes and releases the output resource.
	Close(ctx context.Context) error
}

// StepExecutionListener is notified around a step.
type StepExecutionListener interface {
	// BeforeStep is called before the step starts.
	BeforeStep(ctx context.Context, stepExecution *model.StepExecution)
	// AfterStep is called after the step finished, successfully or not.
	AfterStep(ctx context.Context, stepExecution *model.StepExecution)
}

// ChunkListener is notified around every chunk.
type ChunkListener interface {
	// BeforeChunk is called before a chunk is read.
	BeforeChunk(ctx context.Context, stepExecution *model.StepExecution)
	// AfterChunk is called after a chunk was written.
	AfterChunk(ctx context.Context, stepExecution *model.StepExecution)
}

// JobExecutionListener is notified around a whole run.
type JobExecutionListener interface {
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

// Define context key for StepExecution propagation during chunk processing.
type contextKey string

const StepExecutionKey contextKey = "stepExecution"

// GetContextWithStepExecution stores a StepExecution in the Context.
func GetContextWithStepExecution(ctx context.Context, se *model.StepExecution) context.Context {
	return context.WithValue(ctx, StepExecutionKey, se)
}

// GetStepExecutionFromContext retrieves a StepExecution from the Context. Returns nil if not found.
func GetStepExecutionFromContext(ctx context.Context) *model.StepExecution {
	if se, ok := ctx.Value(StepExecutionKey).(*model.StepExecution); ok {
		return se
	}
	return nil
}
