// Package reader streams the lines of partition files one at a time.
package reader

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/tigerroll/midas-extract/internal/domain/partition"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "partition_reader"

// Line is one raw line of a partition file.
type Line struct {
	// Partition is the object name of the file the line came from.
	Partition string
	// Number is 1-based within the partition.
	Number int
	Text   string
}

// PartitionLineReader reads the given partitions in order through the data storage.
// Files are read through a buffered reader and are never loaded whole.
type PartitionLineReader struct {
	conn       storage.StorageConnection
	table      string
	partitions []partition.Partition
	recorder   metrics.MetricRecorder
	tracer     metrics.Tracer

	ec      model.ExecutionContext
	next    int
	current *openPartition
}

type openPartition struct {
	part    partition.Partition
	rc      io.ReadCloser
	buf     *bufio.Reader
	line    int
	endSpan func()
}

// NewPartitionLineReader creates a reader over partitions of the named table.
func NewPartitionLineReader(
	conn storage.StorageConnection,
	table string,
	partitions []partition.Partition,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *PartitionLineReader {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &PartitionLineReader{
		conn:       conn,
		table:      table,
		partitions: partitions,
		recorder:   recorder,
		tracer:     tracer,
	}
}

// Open resets the reader to the first partition.
func (r *PartitionLineReader) Open(ctx context.Context, ec model.ExecutionContext) error {
	r.ec = ec
	r.next = 0
	r.current = nil
	return nil
}

// Read returns the next line, moving through partitions as each one is exhausted.
func (r *PartitionLineReader) Read(ctx context.Context) (Line, error) {
	for {
		if r.current == nil {
			if r.next >= len(r.partitions) {
				return Line{}, port.ErrNoMoreItems
			}
			if err := r.openNext(ctx); err != nil {
				return Line{}, err
			}
		}

		text, err := r.current.buf.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			name := r.current.part.Name()
			_ = r.closeCurrent(ctx, false)
			return Line{}, exception.NewBatchErrorf(moduleName, "failed to read partition %s", name, err)
		}
		if text == "" && err != nil {
			if cerr := r.closeCurrent(ctx, false); cerr != nil {
				return Line{}, cerr
			}
			continue
		}

		r.current.line++
		return Line{
			Partition: r.current.part.Object,
			Number:    r.current.line,
			Text:      strings.TrimRight(text, "\r\n"),
		}, nil
	}
}

// SkipPartition abandons the rest of the current partition.
func (r *PartitionLineReader) SkipPartition(ctx context.Context) error {
	if r.current == nil {
		return nil
	}
	logger.Infof("Breaking out of %s: timestamp past end of time window.", r.current.part.Name())
	if r.ec != nil {
		r.ec.Increment(model.ContextKeyEarlyBreaks, 1)
	}
	return r.closeCurrent(ctx, true)
}

// Close releases the open partition, if any.
func (r *PartitionLineReader) Close(ctx context.Context) error {
	if r.current == nil {
		return nil
	}
	return r.closeCurrent(ctx, false)
}

func (r *PartitionLineReader) openNext(ctx context.Context) error {
	part := r.partitions[r.next]
	r.next++

	_, endSpan := r.tracer.StartPartitionSpan(ctx, part.Name())
	rc, err := r.conn.Download(ctx, "", part.Object)
	if err != nil {
		endSpan()
		return exception.NewBatchErrorf(moduleName, "failed to open partition %s", part.Object, err)
	}
	logger.Infof("Reading %s", part.Name())
	r.current = &openPartition{
		part:    part,
		rc:      rc,
		buf:     bufio.NewReaderSize(rc, 256*1024),
		endSpan: endSpan,
	}
	if r.ec != nil {
		r.ec.Put(model.ContextKeyPartition, part.Name())
		r.ec.Put(model.ContextKeyPartitionIndex, r.next)
	}
	return nil
}

func (r *PartitionLineReader) closeCurrent(ctx context.Context, earlyBreak bool) error {
	cur := r.current
	r.current = nil
	r.recorder.RecordPartition(ctx, r.table, earlyBreak)
	cur.endSpan()
	if err := cur.rc.Close(); err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to close partition %s", cur.part.Object, err)
	}
	return nil
}

var (
	_ port.ItemReader[Line] = (*PartitionLineReader)(nil)
	_ port.PartitionSkipper = (*PartitionLineReader)(nil)
)
