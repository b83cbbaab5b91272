package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	coreMetrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/infrastructure/metrics"
)

func TestPrometheusRecorder_Counters(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	se := model.NewJobExecution("extract", nil).AddStepExecution("filter")
	ctx := port.GetContextWithStepExecution(context.Background(), se)

	r.RecordItemRead(ctx, "filter")
	r.RecordItemRead(ctx, "filter")
	r.RecordItemFilter(ctx, "filter", coreMetrics.FilterWindow)
	r.RecordItemWrite(ctx, "filter", 5)
	r.RecordPartition(ctx, "TEMP_DRNL_OB", true)
	r.RecordOutput(ctx, "small", 2048, 5)
	r.RecordStationsFound(ctx, 3)

	expected := `
# HELP midas_lines_read_total Total partition lines read.
# TYPE midas_lines_read_total counter
midas_lines_read_total{job_name="extract",step_name="filter"} 2
# HELP midas_lines_filtered_total Total lines discarded, by reason.
# TYPE midas_lines_filtered_total counter
midas_lines_filtered_total{job_name="extract",reason="window",step_name="filter"} 1
# HELP midas_rows_staged_total Total rows written to the staging file.
# TYPE midas_rows_staged_total counter
midas_rows_staged_total{job_name="extract",step_name="filter"} 5
# HELP midas_partitions_scanned_total Total partition files scanned, by table and whether the scan stopped early.
# TYPE midas_partitions_scanned_total counter
midas_partitions_scanned_total{early_break="true",table="TEMP_DRNL_OB"} 1
# HELP midas_output_records_total Total records written to outputs.
# TYPE midas_output_records_total counter
midas_output_records_total{strategy="small"} 5
`
	err := testutil.GatherAndCompare(r.GetRegistry(), strings.NewReader(expected),
		"midas_lines_read_total", "midas_lines_filtered_total", "midas_rows_staged_total",
		"midas_partitions_scanned_total", "midas_output_records_total")
	assert.NoError(t, err)
}

func TestPrometheusRecorder_UnknownJob(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	r.RecordItemRead(context.Background(), "filter")

	n, err := testutil.GatherAndCount(r.GetRegistry(), "midas_lines_read_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrometheusRecorder_JobEnd(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	job := model.NewJobExecution("extract", nil)
	job.MarkAsStarted()
	job.MarkAsCompleted(model.ExitStatusNoData)
	r.RecordJobEnd(context.Background(), job)

	n, err := testutil.GatherAndCount(r.GetRegistry(), "midas_job_status_total", "midas_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	r.RecordStationsFound(context.Background(), 12)
	path := filepath.Join(t.TempDir(), "midas.prom")

	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "midas_stations_found_count 1")
}
