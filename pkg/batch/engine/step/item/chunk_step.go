// Package item provides the chunk-oriented step: read items one by one, process each,
// and hand the surviving items to the writer in chunks.
package item

import (
	"context"
	"errors"

	port "github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	exception "github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// DefaultChunkSize is used when a non-positive chunk size is configured.
const DefaultChunkSize = 1000

// ChunkStep is an implementation of port.Step for chunk-oriented processing.
// Items are processed strictly in read order and chunks are written in the same order.
type ChunkStep[I, O any] struct {
	id                     string
	reader                 port.ItemReader[I]
	processor              port.ItemProcessor[I, O]
	writer                 port.ItemWriter[O]
	chunkSize              int
	stepExecutionListeners []port.StepExecutionListener
	chunkListeners         []port.ChunkListener

	// Metrics and Tracing
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// Option configures a ChunkStep.
type Option[I, O any] func(*ChunkStep[I, O])

// WithStepExecutionListeners registers step listeners.
func WithStepExecutionListeners[I, O any](listeners ...port.StepExecutionListener) Option[I, O] {
	return func(s *ChunkStep[I, O]) {
		s.stepExecutionListeners = append(s.stepExecutionListeners, listeners...)
	}
}

// WithChunkListeners registers chunk listeners.
func WithChunkListeners[I, O any](listeners ...port.ChunkListener) Option[I, O] {
	return func(s *ChunkStep[I, O]) {
		s.chunkListeners = append(s.chunkListeners, listeners...)
	}
}

// WithMetrics sets the recorder and tracer. Both default to no-op implementations.
func WithMetrics[I, O any](recorder metrics.MetricRecorder, tracer metrics.Tracer) Option[I, O] {
	return func(s *ChunkStep[I, O]) {
		if recorder != nil {
			s.metricRecorder = recorder
		}
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewChunkStep creates a new ChunkStep instance.
func NewChunkStep[I, O any](
	id string,
	reader port.ItemReader[I],
	processor port.ItemProcessor[I, O],
	writer port.ItemWriter[O],
	chunkSize int,
	opts ...Option[I, O],
) *ChunkStep[I, O] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	s := &ChunkStep[I, O]{
		id:             id,
		reader:         reader,
		processor:      processor,
		writer:         writer,
		chunkSize:      chunkSize,
		metricRecorder: metrics.NewNoOpMetricRecorder(),
		tracer:         metrics.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StepName returns the step id.
func (s *ChunkStep[I, O]) StepName() string {
	return s.id
}

// Execute runs the read/process/write loop until the reader is exhausted, the context is
// cancelled, or a component fails. stepExecution is updated in place.
func (s *ChunkStep[I, O]) Execute(ctx context.Context, stepExecution *model.StepExecution) (err error) {
	ctx = port.GetContextWithStepExecution(ctx, stepExecution)
	ctx, endSpan := s.tracer.StartStepSpan(ctx, stepExecution)
	defer endSpan()

	logger.Debugf("ChunkStep '%s' executing.", s.id)
	stepExecution.MarkAsStarted()
	s.metricRecorder.RecordStepStart(ctx, stepExecution)
	for _, l := range s.stepExecutionListeners {
		l.BeforeStep(ctx, stepExecution)
	}

	defer func() {
		switch {
		case err == nil:
			stepExecution.MarkAsCompleted()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			stepExecution.MarkAsStopped()
			s.tracer.RecordError(ctx, s.id, err)
		default:
			stepExecution.MarkAsFailed(err)
			s.tracer.RecordError(ctx, s.id, err)
		}
		s.metricRecorder.RecordStepEnd(ctx, stepExecution)
		for _, l := range s.stepExecutionListeners {
			l.AfterStep(ctx, stepExecution)
		}
	}()

	if err := s.reader.Open(ctx, stepExecution.ExecutionContext); err != nil {
		return exception.NewBatchError(s.id, "Failed to open ItemReader", err)
	}
	defer func() {
		if cerr := s.reader.Close(ctx); cerr != nil {
			logger.Warnf("ChunkStep '%s': failed to close ItemReader: %v", s.id, cerr)
			if err == nil {
				err = exception.NewBatchError(s.id, "Failed to close ItemReader", cerr)
			}
		}
	}()

	if err := s.writer.Open(ctx, stepExecution.ExecutionContext); err != nil {
		return exception.NewBatchError(s.id, "Failed to open ItemWriter", err)
	}
	defer func() {
		if cerr := s.writer.Close(ctx); cerr != nil {
			logger.Warnf("ChunkStep '%s': failed to close ItemWriter: %v", s.id, cerr)
			if err == nil {
				err = exception.NewBatchError(s.id, "Failed to close ItemWriter", cerr)
			}
		}
	}()

	for {
		eof, err := s.processChunk(ctx, stepExecution)
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// processChunk reads up to chunkSize items and writes the processed ones.
// It reports whether the reader is exhausted.
func (s *ChunkStep[I, O]) processChunk(ctx context.Context, stepExecution *model.StepExecution) (bool, error) {
	for _, l := range s.chunkListeners {
		l.BeforeChunk(ctx, stepExecution)
	}
	defer func() {
		for _, l := range s.chunkListeners {
			l.AfterChunk(ctx, stepExecution)
		}
	}()

	itemsToWrite := make([]O, 0, s.chunkSize)
	isEOF := false

	for read := 0; read < s.chunkSize; read++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		item, err := s.reader.Read(ctx)
		if err != nil {
			if errors.Is(err, port.ErrNoMoreItems) {
				isEOF = true
				break
			}
			return false, exception.NewBatchError(s.id, "Item read failed", err)
		}
		stepExecution.ReadCount++
		s.metricRecorder.RecordItemRead(ctx, s.id)

		processed, ok, err := s.processor.Process(ctx, item)
		if err != nil {
			if errors.Is(err, port.ErrSkipPartition) {
				stepExecution.FilterCount++
				if skipErr := s.skipPartition(ctx, stepExecution); skipErr != nil {
					return false, skipErr
				}
				continue
			}
			return false, exception.NewBatchError(s.id, "Item process failed", err)
		}
		if !ok {
			stepExecution.FilterCount++
			continue
		}
		itemsToWrite = append(itemsToWrite, processed)
	}

	if len(itemsToWrite) > 0 {
		if err := s.writer.Write(ctx, itemsToWrite); err != nil {
			return false, exception.NewBatchError(s.id, "Item write failed", err)
		}
		stepExecution.WriteCount += len(itemsToWrite)
		stepExecution.CommitCount++
		s.metricRecorder.RecordItemWrite(ctx, s.id, len(itemsToWrite))
		s.metricRecorder.RecordChunkCommit(ctx, s.id, len(itemsToWrite))
	}
	return isEOF, nil
}

func (s *ChunkStep[I, O]) skipPartition(ctx context.Context, stepExecution *model.StepExecution) error {
	skipper, ok := s.reader.(port.PartitionSkipper)
	if !ok {
		return exception.NewBatchErrorf(s.id, "processor requested a partition skip but the reader cannot skip", port.ErrSkipPartition)
	}
	if err := skipper.SkipPartition(ctx); err != nil {
		return exception.NewBatchError(s.id, "Failed to skip partition", err)
	}
	stepExecution.SkipCount++
	return nil
}

var _ port.Step = (*ChunkStep[any, any])(nil)
