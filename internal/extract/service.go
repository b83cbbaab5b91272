// Package extract runs an extraction: resolve the table, select partitions, filter rows into a
// staging file and write the output.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/midas-extract/internal/domain/partition"
	"github.com/tigerroll/midas-extract/internal/domain/table"
	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/internal/step/processor"
	"github.com/tigerroll/midas-extract/internal/step/reader"
	"github.com/tigerroll/midas-extract/internal/step/writer"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/config"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/engine/step/item"
	"github.com/tigerroll/midas-extract/pkg/batch/listener/logging"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const (
	moduleName = "extract"
	jobName    = "extract"
	stepName   = "filter"
)

// Service runs extractions.
type Service struct {
	tables   *table.Resolver
	storage  storage.StorageConnectionResolver
	output   *output.Writer
	cfg      *config.MidasConfig
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
	now      func() time.Time

	jobListeners []port.JobExecutionListener
}

// NewService creates a Service.
//
// Parameters:
//
//	tables: Resolves table names, schemas and partition files.
//	resolver: Supplies the data and staging storage connections.
//	out: Writes the staging file to its final destination.
//	cfg: The archive locations and tuning values (chunk size, id batch size, progress interval).
//	recorder: Receives run, partition and row counters.
//	tracer: Opens the job, step and partition spans.
//
// Returns:
//
//	A Service that logs each run through the logging job listener.
func NewService(
	tables *table.Resolver,
	resolver storage.StorageConnectionResolver,
	out *output.Writer,
	cfg *config.MidasConfig,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *Service {
	return &Service{
		tables:       tables,
		storage:      resolver,
		output:       out,
		cfg:          cfg,
		recorder:     recorder,
		tracer:       tracer,
		now:          time.Now,
		jobListeners: []port.JobExecutionListener{logging.NewLoggingJobListener()},
	}
}

// plan is a validated request.
type plan struct {
	table      *table.Table
	window     timewindow.Window
	partitions []partition.Partition
	processor  processor.Config
	header     []string
}

// Extract runs req and returns what was written.
//
// The request is validated first: table, window, columns, conditions, region and format.
// Matching rows are then streamed partition by partition into a staging file, which the
// output writer turns into the final text or parquet output and always deletes.
//
// Parameters:
//
//	ctx: Cancelling it stops the run between lines; the staging file is still removed.
//	req: The extraction request.
//
// Returns:
//
//	The output.Result of the write, and an error wrapping one of the exception sentinels
//	(ErrUnknownTable, ErrInvalidTime, ErrNoPartitionsFound, ...) when the run fails.
func (s *Service) Extract(ctx context.Context, req Request) (res output.Result, err error) {
	job := model.NewJobExecution(jobName, req.Params())
	ctx, endSpan := s.tracer.StartJobSpan(ctx, job)
	defer endSpan()

	job.MarkAsStarted()
	s.recorder.RecordJobStart(ctx, job)
	for _, l := range s.jobListeners {
		l.BeforeJob(ctx, job)
	}
	defer func() {
		switch {
		case err != nil:
			job.MarkAsFailed(err)
			s.tracer.RecordError(ctx, moduleName, err)
		case res.NoData:
			job.MarkAsCompleted(model.ExitStatusNoData)
		default:
			job.MarkAsCompleted(model.ExitStatusCompleted)
		}
		s.recorder.RecordJobEnd(ctx, job)
		for _, l := range s.jobListeners {
			l.AfterJob(ctx, job)
		}
	}()

	p, err := s.plan(ctx, req)
	if err != nil {
		return output.Result{}, err
	}

	staging, err := s.storage.ResolveStorageConnection(ctx, storage.ConnectionStaging)
	if err != nil {
		return output.Result{}, exception.NewBatchError(moduleName, "failed to resolve staging storage", err)
	}
	data, err := s.storage.ResolveStorageConnection(ctx, storage.ConnectionData)
	if err != nil {
		return output.Result{}, exception.NewBatchError(moduleName, "failed to resolve data storage", err)
	}

	stagingObject := "temp_" + uuid.NewString()
	staged := writer.NewStagingFileWriter(staging, stagingObject)
	step := item.NewChunkStep[reader.Line, string](
		stepName,
		reader.NewPartitionLineReader(data, p.table.LongName, p.partitions, s.recorder, s.tracer),
		processor.NewRowFilterProcessor(p.processor),
		staged,
		s.cfg.ChunkSize,
		item.WithMetrics[reader.Line, string](s.recorder, s.tracer),
		item.WithStepExecutionListeners[reader.Line, string](logging.NewLoggingStepListener()),
		item.WithChunkListeners[reader.Line, string](logging.NewProgressChunkListener(s.cfg.ProgressInterval)),
	)

	if err := step.Execute(ctx, job.AddStepExecution(stepName)); err != nil {
		var result error = err
		if derr := staging.DeleteObject(context.WithoutCancel(ctx), "", stagingObject); derr != nil {
			result = multierror.Append(result, derr)
		}
		return output.Result{}, result
	}

	return s.output.Write(ctx, output.Request{
		StagingObject: stagingObject,
		Header:        p.header,
		Destination:   req.destination(),
		Delimiter:     req.Delimiter,
		Format:        req.format(),
	})
}

// plan validates req against the table schema before any data is read.
func (s *Service) plan(ctx context.Context, req Request) (*plan, error) {
	if strings.TrimSpace(req.Table) == "" {
		return nil, exception.NewBatchErrorf(moduleName, `Must provide table ID with "-t" argument.`, exception.ErrInputValidation)
	}
	if f := req.format(); f != output.FormatText && f != output.FormatParquet {
		return nil, exception.NewBatchErrorf(moduleName, "unknown output format %q", req.Format, exception.ErrInputValidation)
	}

	tbl, err := s.tables.Load(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if !tbl.Partitioned() {
		return nil, exception.NewBatchErrorf(moduleName, "table %s is a metadata registry and has no partition files", tbl.LongName, exception.ErrNoPartitionsFound)
	}

	window, err := timewindow.New(req.Start, req.End, s.now())
	if err != nil {
		return nil, err
	}

	timeIndex, err := tbl.TimeColumnIndex()
	if err != nil {
		return nil, err
	}
	dateExtractor, err := processor.BuildDateExtractor(timeIndex)
	if err != nil {
		return nil, err
	}

	cfg := processor.Config{
		StepName:      stepName,
		DateExtractor: dateExtractor,
		Window:        window,
		Recorder:      s.recorder,
	}

	if len(req.StationIDs) > 0 {
		idIndex, err := tbl.ColumnIndex("src_id")
		if err != nil {
			return nil, err
		}
		if cfg.IDExtractors, err = processor.BuildIDExtractors(idIndex, req.StationIDs, s.cfg.IDBatchSize); err != nil {
			return nil, err
		}
	}

	header := tbl.Columns
	conditions, err := processor.ParseConditions(req.Conditions)
	if err != nil {
		return nil, err
	}
	if req.Columns != nil || len(conditions) > 0 {
		cfg.Projection, header, err = project(tbl, req.Columns)
		if err != nil {
			return nil, err
		}
		for _, c := range conditions {
			idx, err := tbl.ColumnIndex(c.Column)
			if err != nil {
				return nil, err
			}
			cfg.Conditions = append(cfg.Conditions, processor.BoundCondition{Condition: c, Index: idx})
		}
	}

	parts, err := s.tables.Partitions(ctx, tbl.Descriptor, req.Region)
	if err != nil {
		return nil, err
	}
	selected := partition.Select(parts, window)
	if len(selected) == 0 {
		logger.Warnf("No partition files of %s overlap %s.", tbl.LongName, window)
	} else {
		logger.Infof("Scanning %d of %d partition files of %s for %s.", len(selected), len(parts), tbl.LongName, window)
	}

	return &plan{
		table:      tbl,
		window:     window,
		partitions: selected,
		processor:  cfg,
		header:     header,
	}, nil
}

// project converts 1-based column positions to 0-based indices and header names.
// Nil positions select every column.
func project(tbl *table.Table, columns []int) ([]int, []string, error) {
	if columns == nil {
		idx := make([]int, len(tbl.Columns))
		for i := range idx {
			idx[i] = i
		}
		return idx, tbl.Columns, nil
	}
	idx := make([]int, len(columns))
	header := make([]string, len(columns))
	for i, c := range columns {
		if c < 1 || c > len(tbl.Columns) {
			return nil, nil, exception.NewBatchErrorf(moduleName, "column %d is out of range 1-%d for table %s",
				c, len(tbl.Columns), tbl.LongName, exception.ErrInvalidColumn)
		}
		idx[i] = c - 1
		header[i] = tbl.Columns[c-1]
	}
	return idx, header, nil
}
