// Package output turns the staging file into the final extraction output.
package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/midas-extract/internal/step/processor"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/component/step/writer"
	"github.com/tigerroll/midas-extract/pkg/batch/core/config"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "output"

// Display is the destination name that sends output to the display writer.
const Display = "display"

// Output formats.
const (
	FormatText    = "text"
	FormatParquet = "parquet"
)

// Strategies reported in Result.
const (
	StrategyLarge   = "large"
	StrategySmall   = "small"
	StrategyParquet = "parquet"
)

// NoDataMessage replaces the output when an extraction matched no rows.
const NoDataMessage = `Your extraction request has run successfully, but no 
data have been found matching your request.

Please use the MIDAS station search pages on the CEDA website 
(http://archive.ceda.ac.uk/midas_stations/) to check your station 
reporting periods and message types to ensure that your selected 
stations report message types containing the data elements you 
require within your selected period.

Additional information about data outages/known issues/instrument 
failure can also be found on station records.

If you have completed these checks and believe the data should be 
available please contact the CEDA helpdesk for further assistance 
(support@ceda.ac.uk), providing full details of the extractions 
you are trying to submit.`

// timestampLayout names large display outputs.
const timestampLayout = "20060102.150405"

// Request describes one output operation.
type Request struct {
	// StagingObject is the staging file name. It is deleted once Write returns.
	StagingObject string
	Header        []string
	// Destination is a file path or Display.
	Destination string
	Delimiter   string
	Format      string
}

// Result reports what was written.
type Result struct {
	Records int
	NoData  bool
	// Path is the written file, empty when the data went to the display writer.
	Path     string
	Strategy string
	Bytes    int64
}

// Writer writes staging files to their destination.
type Writer struct {
	storage   storage.StorageConnectionResolver
	threshold int64
	recorder  metrics.MetricRecorder
	display   io.Writer
	now       func() time.Time
}

// NewWriter creates a Writer that displays to stdout.
//
// Parameters:
//
//	resolver: Supplies the staging connection the staging files are read from.
//	cfg: Its LargeOutputThreshold selects the byte-for-byte copy path; non-positive means the default.
//	recorder: Receives the output strategy and size. nil means a no-op recorder.
//
// Returns:
//
//	A Writer. SetDisplay replaces stdout.
func NewWriter(resolver storage.StorageConnectionResolver, cfg *config.MidasConfig, recorder metrics.MetricRecorder) *Writer {
	threshold := cfg.LargeOutputThreshold
	if threshold <= 0 {
		threshold = config.DefaultLargeOutputThreshold
	}
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Writer{
		storage:   resolver,
		threshold: threshold,
		recorder:  recorder,
		display:   os.Stdout,
		now:       time.Now,
	}
}

// SetDisplay replaces the display writer.
func (w *Writer) SetDisplay(out io.Writer) {
	w.display = out
}

// Write produces the output for req and deletes the staging file on every path.
//
// Text output of an empty staging file is NoDataMessage alone, without the header. A staging
// file above the threshold is copied byte for byte after the header, so the delimiter is not
// applied; when the destination is Display it is saved as out_<timestamp>.txt in the staging
// directory instead of being printed. Smaller files are written with the header and the
// requested delimiter. The parquet format always writes a file, empty or not.
//
// Parameters:
//
//	ctx: The context for storage operations.
//	req: The staging object, header, destination, delimiter and format.
//
// Returns:
//
//	A Result describing the strategy used, and an error aggregating any write failure with
//	a failure to delete the staging file.
func (w *Writer) Write(ctx context.Context, req Request) (res Result, err error) {
	staging, err := w.storage.ResolveStorageConnection(ctx, storage.ConnectionStaging)
	if err != nil {
		return Result{}, exception.NewBatchError(moduleName, "failed to resolve staging storage", err)
	}
	defer func() {
		if derr := staging.DeleteObject(ctx, "", req.StagingObject); derr != nil {
			logger.Warnf("Failed to delete staging file %s: %v", req.StagingObject, derr)
			err = multierror.Append(err, derr).ErrorOrNil()
		}
	}()

	info, err := staging.Stat(ctx, "", req.StagingObject)
	if err != nil {
		return Result{}, exception.NewBatchErrorf(moduleName, "staging file %s is missing", req.StagingObject, err)
	}
	logger.Infof("Staging file holds %s.", humanize.Bytes(uint64(info.Size)))

	switch {
	case strings.EqualFold(req.Format, FormatParquet):
		res, err = w.writeParquet(ctx, staging, req)
	case info.Size > w.threshold:
		logger.Infof("Staging file is larger than %s; copying it without reformatting.", humanize.Bytes(uint64(w.threshold)))
		res, err = w.writeLarge(ctx, staging, req)
	default:
		res, err = w.writeSmall(ctx, staging, req)
	}
	if err != nil {
		return Result{}, err
	}
	res.Bytes = info.Size
	w.recorder.RecordOutput(ctx, res.Strategy, info.Size, res.Records)
	return res, nil
}

// writeLarge copies the header and the staging bytes unchanged.
func (w *Writer) writeLarge(ctx context.Context, staging storage.StorageConnection, req Request) (res Result, err error) {
	res.Strategy = StrategyLarge

	var out io.WriteCloser
	if req.Destination == Display {
		name := fmt.Sprintf("out_%s.txt", w.now().Format(timestampLayout))
		if out, err = staging.Create(ctx, "", name); err != nil {
			return res, exception.NewBatchErrorf(moduleName, "failed to create %s", name, err)
		}
		if info, serr := staging.Stat(ctx, "", name); serr == nil {
			res.Path = info.Path
		} else {
			res.Path = name
		}
		logger.Infof("This output is too big to display so data has been saved to: %s", res.Path)
	} else if out, res.Path, err = OpenDestination(ctx, req.Destination); err != nil {
		return res, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	in, err := staging.Download(ctx, "", req.StagingObject)
	if err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to open staging file %s", req.StagingObject, err)
	}
	defer in.Close()

	if _, err := io.WriteString(out, strings.Join(req.Header, ", ")+"\n"); err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to write header to %s", res.Path, err)
	}
	counter := &lineCounter{}
	if _, err := io.Copy(io.MultiWriter(out, counter), in); err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to copy staging data to %s", res.Path, err)
	}
	res.Records = counter.lines
	res.NoData = counter.lines == 0
	return res, nil
}

// writeSmall loads the staging file, applies the delimiter and writes the rows.
func (w *Writer) writeSmall(ctx context.Context, staging storage.StorageConnection, req Request) (Result, error) {
	res := Result{Strategy: StrategySmall}

	in, err := staging.Download(ctx, "", req.StagingObject)
	if err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to open staging file %s", req.StagingObject, err)
	}
	body, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to read staging file %s", req.StagingObject, err)
	}

	rows := []string{strings.Join(req.Header, ", ") + "\n"}
	if len(body) > 0 {
		for _, line := range strings.SplitAfter(string(body), "\n") {
			if line != "" {
				rows = append(rows, line)
			}
		}
	}
	res.Records = len(rows) - 1
	res.NoData = res.Records == 0

	data := NoDataMessage
	if !res.NoData {
		delim := Delimiter(req.Delimiter)
		for i, row := range rows {
			rows[i] = Reformat(row, delim)
		}
		data = strings.Join(rows, "")
	} else {
		logger.Infof("No data found.")
	}

	if req.Destination == Display {
		if _, err := fmt.Fprintln(w.display, data); err != nil {
			return res, exception.NewBatchError(moduleName, "failed to write to display", err)
		}
		return res, nil
	}

	out, path, err := OpenDestination(ctx, req.Destination)
	if err != nil {
		return res, err
	}
	res.Path = path
	_, werr := io.WriteString(out, data)
	cerr := out.Close()
	if werr != nil || cerr != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to write %s", path, multierror.Append(werr, cerr))
	}
	logger.Infof("Output written to %s", path)
	return res, nil
}

// writeParquet converts the staging rows into a Parquet file with one UTF8 column per header name.
func (w *Writer) writeParquet(ctx context.Context, staging storage.StorageConnection, req Request) (res Result, err error) {
	res.Strategy = StrategyParquet

	open := func(ctx context.Context) (io.WriteCloser, error) {
		if req.Destination != Display {
			out, path, err := OpenDestination(ctx, req.Destination)
			res.Path = path
			return out, err
		}
		name := fmt.Sprintf("out_%s.parquet", w.now().Format(timestampLayout))
		out, err := staging.Create(ctx, "", name)
		if err != nil {
			return nil, err
		}
		res.Path = name
		if info, serr := staging.Stat(ctx, "", name); serr == nil {
			res.Path = info.Path
		}
		return out, nil
	}
	pw, err := writer.NewParquetWriter("output", req.Header, nil, open)
	if err != nil {
		return res, err
	}
	if err := pw.Open(ctx, nil); err != nil {
		return res, err
	}
	defer func() {
		if cerr := pw.Close(ctx); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
		res.Records = pw.Records()
		res.NoData = res.Records == 0
	}()

	in, err := staging.Download(ctx, "", req.StagingObject)
	if err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to open staging file %s", req.StagingObject, err)
	}
	defer in.Close()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	batch := make([][]string, 0, 1000)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			batch = append(batch, processor.SplitFields(line))
		}
		if len(batch) == cap(batch) {
			if err := pw.Write(ctx, batch); err != nil {
				return res, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return res, exception.NewBatchErrorf(moduleName, "failed to read staging file %s", req.StagingObject, err)
	}
	if len(batch) > 0 {
		if err := pw.Write(ctx, batch); err != nil {
			return res, err
		}
	}
	logger.Infof("Parquet output written to %s", res.Path)
	return res, nil
}

// Delimiter maps a delimiter option to the separator written between fields.
// "default", "comma" and "," keep the original ", " separator.
func Delimiter(option string) string {
	switch option {
	case "", "default", "comma", ",":
		return ""
	case "tab":
		return "\t"
	default:
		return option
	}
}

// Reformat replaces the ", " field separators of row with delim. An empty delim leaves row unchanged.
func Reformat(row, delim string) string {
	if delim == "" {
		return row
	}
	return strings.Join(strings.Split(row, ", "), delim)
}

type lineCounter struct {
	lines int
}

func (c *lineCounter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			c.lines++
		}
	}
	return len(p), nil
}
