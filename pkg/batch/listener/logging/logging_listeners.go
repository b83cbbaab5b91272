// Package logging provides listeners that report run and step progress through the logger.
package logging

import (
	"context"

	port "github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// --- Job Execution Listener ---

type LoggingJobListener struct{}

func NewLoggingJobListener() *LoggingJobListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Debugf("JobExecutionListener: BeforeJob - JobName: %s, ID: %s, Params: %+v", jobExecution.JobName, jobExecution.ID, jobExecution.Parameters)
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Debugf("JobExecutionListener: AfterJob - JobName: %s, Status: %s, ExitStatus: %s, Duration: %s",
		jobExecution.JobName, jobExecution.Status, jobExecution.ExitStatus, jobExecution.Duration())
	for _, f := range jobExecution.Failures {
		logger.Debugf("JobExecutionListener: failure: %s", f)
	}
}

var _ port.JobExecutionListener = (*LoggingJobListener)(nil)

// --- Step Execution Listener ---

type LoggingStepListener struct{}

func NewLoggingStepListener() *LoggingStepListener {
	return &LoggingStepListener{}
}

func (l *LoggingStepListener) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) {
	logger.Debugf("StepExecutionListener: BeforeStep - StepName: %s, ID: %s", stepExecution.StepName, stepExecution.ID)
}

func (l *LoggingStepListener) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	logger.Infof("Step '%s' %s: read %d lines, staged %d rows, filtered %d, skipped %d partition remainder(s).",
		stepExecution.StepName, stepExecution.Status, stepExecution.ReadCount, stepExecution.WriteCount,
		stepExecution.FilterCount, stepExecution.SkipCount)
}

var _ port.StepExecutionListener = (*LoggingStepListener)(nil)

// --- Chunk Listener ---

// ProgressChunkListener logs the number of lines read each time another interval is crossed.
type ProgressChunkListener struct {
	interval int
	reported int
}

// NewProgressChunkListener creates a listener reporting every interval lines. interval <= 0 disables it.
func NewProgressChunkListener(interval int) *ProgressChunkListener {
	return &ProgressChunkListener{interval: interval}
}

func (l *ProgressChunkListener) BeforeChunk(ctx context.Context, stepExecution *model.StepExecution) {}

func (l *ProgressChunkListener) AfterChunk(ctx context.Context, stepExecution *model.StepExecution) {
	if l.interval <= 0 {
		return
	}
	marks := stepExecution.ReadCount / l.interval
	if marks > l.reported {
		l.reported = marks
		partition, _ := stepExecution.ExecutionContext.GetString(model.ContextKeyPartition)
		logger.Infof("Progress: %d lines read, %d rows matched (partition: %s)", stepExecution.ReadCount, stepExecution.WriteCount, partition)
	}
}

var _ port.ChunkListener = (*ProgressChunkListener)(nil)
