// Package writer provides item writers that serialize extracted rows.
package writer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/configbinder"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "parquet_writer"

// ParquetWriterConfig holds the configuration for ParquetWriter.
type ParquetWriterConfig struct {
	// CompressionType is the compression type for Parquet files (e.g., "SNAPPY", "GZIP", "NONE").
	CompressionType string `yaml:"compression_type"`
	// RowGroupSize is the row group size in bytes handed to the parquet library.
	RowGroupSize int64 `yaml:"row_group_size"`
}

// ParquetWriter writes rows of string columns to a Parquet file.
// Every column is stored as a UTF8 BYTE_ARRAY because MIDAS files carry no type information.
type ParquetWriter struct {
	name    string
	config  ParquetWriterConfig
	columns []string
	open    func(ctx context.Context) (io.WriteCloser, error)

	out     io.WriteCloser
	pw      *writer.CSVWriter
	records int
}

// NewParquetWriter creates a ParquetWriter for the given column names.
// open is called by Open to obtain the destination stream. properties is decoded into
// ParquetWriterConfig and may be nil.
func NewParquetWriter(
	name string,
	columns []string,
	properties map[string]interface{},
	open func(ctx context.Context) (io.WriteCloser, error),
) (*ParquetWriter, error) {
	cfg := ParquetWriterConfig{CompressionType: "SNAPPY", RowGroupSize: 128 * 1024 * 1024}
	if err := configbinder.Bind(properties, &cfg); err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "Failed to decode ParquetWriter properties for %s", name, err)
	}
	if len(columns) == 0 {
		return nil, exception.NewBatchErrorf(moduleName, "ParquetWriter '%s' requires at least one column", name, exception.ErrInvalidColumn)
	}
	return &ParquetWriter{
		name:    name,
		config:  cfg,
		columns: columns,
		open:    open,
	}, nil
}

// Schema returns the CSV-style metadata handed to the parquet library.
func (w *ParquetWriter) Schema() []string {
	md := make([]string, len(w.columns))
	seen := make(map[string]bool, len(w.columns))
	for i, col := range w.columns {
		name := parquetName(col, i)
		if seen[strings.ToLower(name)] {
			name = fmt.Sprintf("%s_%d", name, i+1)
		}
		seen[strings.ToLower(name)] = true
		md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY", name)
	}
	return md
}

// Open obtains the destination stream and writes the Parquet header.
func (w *ParquetWriter) Open(ctx context.Context, ec model.ExecutionContext) error {
	codec, err := getCompressionCodec(w.config.CompressionType)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "Invalid compression type '%s' for ParquetWriter '%s'", w.config.CompressionType, w.name, err)
	}

	out, err := w.open(ctx)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "Failed to open destination for ParquetWriter '%s'", w.name, err)
	}

	pw, err := writer.NewCSVWriterFromWriter(w.Schema(), out, 1)
	if err != nil {
		_ = out.Close()
		return exception.NewBatchErrorf(moduleName, "Failed to create Parquet writer '%s'", w.name, err)
	}
	pw.CompressionType = codec
	pw.RowGroupSize = w.config.RowGroupSize

	w.out = out
	w.pw = pw
	w.records = 0
	logger.Debugf("ParquetWriter '%s' opened with %d columns.", w.name, len(w.columns))
	return nil
}

// Write appends rows. Rows shorter than the schema are padded with empty strings and
// longer rows are truncated.
func (w *ParquetWriter) Write(ctx context.Context, items [][]string) error {
	if w.pw == nil {
		return exception.NewBatchErrorf(moduleName, "ParquetWriter '%s' is not open", w.name)
	}
	for _, row := range items {
		rec := make([]*string, len(w.columns))
		for i := range rec {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			rec[i] = &v
		}
		if err := w.pw.WriteString(rec); err != nil {
			return exception.NewBatchErrorf(moduleName, "Failed to write row %d to Parquet in '%s'", w.records+1, w.name, err)
		}
		w.records++
	}
	return nil
}

// Close finalizes the file footer and closes the destination stream.
func (w *ParquetWriter) Close(ctx context.Context) error {
	if w.pw == nil {
		return nil
	}
	var multiErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, exception.NewBatchErrorf(moduleName, "Parquet writer panicked during WriteStop in '%s': %v", w.name, r))
				logger.Errorf("ParquetWriter '%s': Recovered from panic during WriteStop: %v", w.name, r)
			}
		}()
		if err := w.pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewBatchErrorf(moduleName, "Failed to stop Parquet writer '%s'", w.name, err))
		}
	}()

	if err := w.out.Close(); err != nil {
		multiErr = multierror.Append(multiErr, exception.NewBatchErrorf(moduleName, "Failed to close Parquet destination for '%s'", w.name, err))
	}
	logger.Debugf("ParquetWriter '%s' closed after %d records.", w.name, w.records)
	w.pw = nil
	w.out = nil
	return multiErr
}

// Records returns the number of rows written since Open.
func (w *ParquetWriter) Records() int {
	return w.records
}

// getCompressionCodec returns the Parquet compression codec from a string.
func getCompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

// parquetName makes a column name usable as a Parquet field name.
func parquetName(col string, index int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(col) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("col_%d", index+1)
	}
	return b.String()
}

// Verify that [ParquetWriter] satisfies the [port.ItemWriter] interface at compile time.
var _ port.ItemWriter[[]string] = (*ParquetWriter)(nil)
