// Package writer appends matched rows to the staging file.
package writer

import (
	"bufio"
	"context"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

const moduleName = "staging_writer"

// StagingFileWriter writes one row per line to an object of the staging storage.
type StagingFileWriter struct {
	conn   storage.StorageConnection
	object string

	out  io.WriteCloser
	buf  *bufio.Writer
	rows int
}

// NewStagingFileWriter creates a writer for object in conn.
func NewStagingFileWriter(conn storage.StorageConnection, object string) *StagingFileWriter {
	return &StagingFileWriter{conn: conn, object: object}
}

// Open creates, or truncates, the staging object.
func (w *StagingFileWriter) Open(ctx context.Context, ec model.ExecutionContext) error {
	out, err := w.conn.Create(ctx, "", w.object)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to create staging file %s", w.object, err)
	}
	w.out = out
	w.buf = bufio.NewWriterSize(out, 256*1024)
	w.rows = 0
	return nil
}

// Write appends rows followed by newlines.
func (w *StagingFileWriter) Write(ctx context.Context, rows []string) error {
	if w.buf == nil {
		return exception.NewBatchErrorf(moduleName, "staging file %s is not open", w.object)
	}
	for _, row := range rows {
		if _, err := w.buf.WriteString(row); err != nil {
			return exception.NewBatchErrorf(moduleName, "failed to write staging file %s", w.object, err)
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return exception.NewBatchErrorf(moduleName, "failed to write staging file %s", w.object, err)
		}
	}
	w.rows += len(rows)
	return nil
}

// Close flushes and closes the staging object.
func (w *StagingFileWriter) Close(ctx context.Context) error {
	if w.out == nil {
		return nil
	}
	var result error
	if err := w.buf.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.out.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	w.out = nil
	w.buf = nil
	if result != nil {
		return exception.NewBatchErrorf(moduleName, "failed to close staging file %s", w.object, result)
	}
	return nil
}

// Rows returns the number of rows written since Open.
func (w *StagingFileWriter) Rows() int {
	return w.rows
}

// Object returns the staging object name.
func (w *StagingFileWriter) Object() string {
	return w.object
}

var _ port.ItemWriter[string] = (*StagingFileWriter)(nil)
