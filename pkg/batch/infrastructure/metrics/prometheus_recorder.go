package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	port "github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
// Metrics live on a private registry and are exported with WriteTextfile at shutdown.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job Metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	// Step Metrics
	stepDurationSeconds *prometheus.HistogramVec
	stepReadCount       *prometheus.CounterVec
	stepWriteCount      *prometheus.CounterVec
	stepFilterCount     *prometheus.CounterVec
	stepCommitCount     *prometheus.CounterVec

	// Extraction Metrics
	partitionCounter   *prometheus.CounterVec
	outputBytes        *prometheus.HistogramVec
	outputRecords      *prometheus.CounterVec
	stationsFound      prometheus.Histogram
	operationDurations *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midas_job_duration_seconds",
			Help:    "Duration of midas-extract runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status", "exit_status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_job_status_total",
			Help: "Total number of runs by final status.",
		}, []string{"job_name", "status"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midas_step_duration_seconds",
			Help:    "Duration of step executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "step_name", "status"}),
		stepReadCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_lines_read_total",
			Help: "Total partition lines read.",
		}, []string{"job_name", "step_name"}),
		stepWriteCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_rows_staged_total",
			Help: "Total rows written to the staging file.",
		}, []string{"job_name", "step_name"}),
		stepFilterCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_lines_filtered_total",
			Help: "Total lines discarded, by reason.",
		}, []string{"job_name", "step_name", "reason"}),
		stepCommitCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_chunk_commit_total",
			Help: "Total chunks flushed to the staging writer.",
		}, []string{"job_name", "step_name"}),
		partitionCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_partitions_scanned_total",
			Help: "Total partition files scanned, by table and whether the scan stopped early.",
		}, []string{"table", "early_break"}),
		outputBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midas_staging_bytes",
			Help:    "Size of the staging file at output time.",
			Buckets: prometheus.ExponentialBuckets(1024, 8, 8),
		}, []string{"strategy"}),
		outputRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midas_output_records_total",
			Help: "Total records written to outputs.",
		}, []string{"strategy"}),
		stationsFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "midas_stations_found",
			Help:    "Number of stations returned by a lookup.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		operationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midas_operation_duration_seconds",
			Help:    "Duration of named operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		r.jobDurationSeconds,
		r.jobStatusCounter,
		r.stepDurationSeconds,
		r.stepReadCount,
		r.stepWriteCount,
		r.stepFilterCount,
		r.stepCommitCount,
		r.partitionCounter,
		r.outputBytes,
		r.outputRecords,
		r.stationsFound,
		r.operationDurations,
	)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path in the node-exporter textfile format.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// RecordJobStart records the start of a run.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {
	logger.Debugf("Metrics: Job '%s' started.", execution.JobName)
}

// RecordJobEnd records the end of a run.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	if execution.EndTime == nil {
		return
	}
	duration := execution.Duration().Seconds()
	r.jobDurationSeconds.WithLabelValues(
		execution.JobName,
		execution.Status.String(),
		execution.ExitStatus.String(),
	).Observe(duration)

	logger.Debugf("Metrics: Job '%s' ended. Duration: %.3fs", execution.JobName, duration)
}

// RecordStepStart records the start of a StepExecution.
func (r *PrometheusRecorder) RecordStepStart(ctx context.Context, execution *model.StepExecution) {
	logger.Debugf("Metrics: Step '%s' started.", execution.StepName)
}

// RecordStepEnd records the duration of a StepExecution.
// Item counters are incremented while the step runs, so the final StepExecution totals are not added here.
func (r *PrometheusRecorder) RecordStepEnd(ctx context.Context, execution *model.StepExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()
	r.stepDurationSeconds.WithLabelValues(jobName(execution), execution.StepName, execution.Status.String()).Observe(duration)
	logger.Debugf("Metrics: Step '%s' ended. Duration: %.3fs", execution.StepName, duration)
}

// RecordItemRead records one line read.
func (r *PrometheusRecorder) RecordItemRead(ctx context.Context, stepName string) {
	r.stepReadCount.WithLabelValues(jobNameFromContext(ctx), stepName).Inc()
}

// RecordItemFilter records one discarded line.
func (r *PrometheusRecorder) RecordItemFilter(ctx context.Context, stepName string, reason string) {
	r.stepFilterCount.WithLabelValues(jobNameFromContext(ctx), stepName, reason).Inc()
}

// RecordItemWrite records rows written to staging.
func (r *PrometheusRecorder) RecordItemWrite(ctx context.Context, stepName string, count int) {
	r.stepWriteCount.WithLabelValues(jobNameFromContext(ctx), stepName).Add(float64(count))
}

// RecordChunkCommit records chunk commits.
func (r *PrometheusRecorder) RecordChunkCommit(ctx context.Context, stepName string, count int) {
	r.stepCommitCount.WithLabelValues(jobNameFromContext(ctx), stepName).Inc()
}

// RecordPartition records one partition scan.
func (r *PrometheusRecorder) RecordPartition(ctx context.Context, table string, earlyBreak bool) {
	label := "false"
	if earlyBreak {
		label = "true"
	}
	r.partitionCounter.WithLabelValues(table, label).Inc()
}

// RecordOutput records the staging size and the records written.
func (r *PrometheusRecorder) RecordOutput(ctx context.Context, strategy string, bytes int64, records int) {
	r.outputBytes.WithLabelValues(strategy).Observe(float64(bytes))
	r.outputRecords.WithLabelValues(strategy).Add(float64(records))
}

// RecordStationsFound records the size of a lookup result.
func (r *PrometheusRecorder) RecordStationsFound(ctx context.Context, count int) {
	r.stationsFound.Observe(float64(count))
}

// RecordDuration records the execution time of a named operation. Tags are logged only.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDurations.WithLabelValues(name).Observe(duration.Seconds())
	if len(tags) > 0 {
		logger.Debugf("Metrics: %s took %s %v", name, duration, tags)
	}
}

func jobName(se *model.StepExecution) string {
	if se == nil || se.JobExecution == nil {
		return "unknown"
	}
	return se.JobExecution.JobName
}

func jobNameFromContext(ctx context.Context) string {
	return jobName(port.GetStepExecutionFromContext(ctx))
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
