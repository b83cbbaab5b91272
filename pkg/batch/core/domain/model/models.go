// Package model holds the execution records of an extraction run.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// JobStatus represents the state of a run or a step.
type JobStatus string

const (
	BatchStatusStarting  JobStatus = "STARTING"
	BatchStatusStarted   JobStatus = "STARTED"
	BatchStatusCompleted JobStatus = "COMPLETED"
	BatchStatusFailed    JobStatus = "FAILED"
	BatchStatusStopped   JobStatus = "STOPPED"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsFinished checks if the JobStatus represents a finished state.
func (s JobStatus) IsFinished() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusStopped:
		return true
	default:
		return false
	}
}

// ExitStatus is the outcome reported once a step or run has finished.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusStopped   ExitStatus = "STOPPED"
	// ExitStatusNoData marks a successful run that matched zero rows.
	ExitStatusNoData ExitStatus = "NO_DATA"
)

// String returns the string representation of the ExitStatus.
func (s ExitStatus) String() string {
	return string(s)
}

// ExecutionContext keys written by the partition reader.
const (
	ContextKeyPartition      = "partition.name"
	ContextKeyPartitionIndex = "partition.index"
	ContextKeyEarlyBreaks    = "partition.early_breaks"
)

// ExecutionContext is a bag of values recorded during a step (current partition, early breaks, ...).
type ExecutionContext map[string]interface{}

// NewExecutionContext creates an empty ExecutionContext.
func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

// Put stores value under key.
func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

// Get returns the value stored under key.
func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	v, ok := ec[key]
	return v, ok
}

// GetString returns the string stored under key.
func (ec ExecutionContext) GetString(key string) (string, bool) {
	v, ok := ec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the int stored under key.
func (ec ExecutionContext) GetInt(key string) (int, bool) {
	v, ok := ec[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// Increment adds delta to the int stored under key.
func (ec ExecutionContext) Increment(key string, delta int) int {
	n, _ := ec.GetInt(key)
	n += delta
	ec[key] = n
	return n
}

// Keys returns the keys in sorted order.
func (ec ExecutionContext) Keys() []string {
	keys := make([]string, 0, len(ec))
	for k := range ec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FailureList holds user-facing error messages.
type FailureList []string

// JobExecution records one command invocation (a station lookup or an extraction).
type JobExecution struct {
	ID             string
	JobName        string
	Parameters     map[string]string
	StartTime      time.Time
	EndTime        *time.Time
	Status         JobStatus
	ExitStatus     ExitStatus
	Failures       FailureList
	StepExecutions []*StepExecution
}

// NewJobExecution creates a JobExecution in the STARTING state.
func NewJobExecution(jobName string, params map[string]string) *JobExecution {
	if params == nil {
		params = make(map[string]string)
	}
	return &JobExecution{
		ID:         NewID(),
		JobName:    jobName,
		Parameters: params,
		StartTime:  time.Now(),
		Status:     BatchStatusStarting,
		ExitStatus: ExitStatusUnknown,
		Failures:   make(FailureList, 0),
	}
}

// MarkAsStarted updates the JobExecution status to STARTED.
func (je *JobExecution) MarkAsStarted() {
	je.Status = BatchStatusStarted
}

// MarkAsCompleted finishes the JobExecution with the given exit status.
func (je *JobExecution) MarkAsCompleted(exit ExitStatus) {
	je.Status = BatchStatusCompleted
	je.ExitStatus = exit
	now := time.Now()
	je.EndTime = &now
}

// MarkAsFailed finishes the JobExecution and records err.
func (je *JobExecution) MarkAsFailed(err error) {
	je.Status = BatchStatusFailed
	je.ExitStatus = ExitStatusFailed
	now := time.Now()
	je.EndTime = &now
	if err != nil {
		je.Failures = appendFailure(je.Failures, err)
	}
}

// Duration returns the elapsed time, up to now for an unfinished run.
func (je *JobExecution) Duration() time.Duration {
	if je.EndTime == nil {
		return time.Since(je.StartTime)
	}
	return je.EndTime.Sub(je.StartTime)
}

// AddStepExecution creates a StepExecution attached to this run.
func (je *JobExecution) AddStepExecution(stepName string) *StepExecution {
	se := NewStepExecution(NewID(), je, stepName)
	je.StepExecutions = append(je.StepExecutions, se)
	return se
}

// StepExecution records one pass of a reader, processor and writer.
type StepExecution struct {
	ID             string
	StepName       string
	JobExecution   *JobExecution
	JobExecutionID string
	StartTime      time.Time
	EndTime        *time.Time
	Status         JobStatus
	ExitStatus     ExitStatus
	Failures       FailureList
	// ReadCount counts items returned by the reader (lines).
	ReadCount int
	// WriteCount counts items handed to the writer (staged rows).
	WriteCount int
	// FilterCount counts items the processor discarded.
	FilterCount int
	// CommitCount counts chunks flushed to the writer.
	CommitCount int
	// SkipCount counts partition remainders abandoned after an early break.
	SkipCount        int
	ExecutionContext ExecutionContext
	LastUpdated      time.Time
}

// NewStepExecution creates a new instance of StepExecution.
func NewStepExecution(id string, jobExecution *JobExecution, stepName string) *StepExecution {
	now := time.Now()
	se := &StepExecution{
		ID:               id,
		StepName:         stepName,
		JobExecution:     jobExecution,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		Failures:         make(FailureList, 0),
		ExecutionContext: NewExecutionContext(),
		LastUpdated:      now,
	}
	if jobExecution != nil {
		se.JobExecutionID = jobExecution.ID
	}
	return se
}

// isValidStepTransition checks if the state transition for StepExecution is valid.
func isValidStepTransition(current, next JobStatus) bool {
	switch current {
	case BatchStatusStarting:
		return next == BatchStatusStarted || next == BatchStatusFailed || next == BatchStatusStopped
	case BatchStatusStarted:
		return next == BatchStatusCompleted || next == BatchStatusFailed || next == BatchStatusStopped
	default:
		return false
	}
}

// TransitionTo safely transitions the state of StepExecution.
func (se *StepExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidStepTransition(se.Status, newStatus) {
		return fmt.Errorf("StepExecution (ID: %s): Invalid state transition: %s -> %s", se.ID, se.Status, newStatus)
	}
	se.Status = newStatus
	se.LastUpdated = time.Now()
	return nil
}

// MarkAsStarted updates the StepExecution status to STARTED.
func (se *StepExecution) MarkAsStarted() {
	if err := se.TransitionTo(BatchStatusStarted); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to STARTED: %v", se.ID, err)
		se.Status = BatchStatusStarted
	}
}

// MarkAsCompleted updates the StepExecution status to COMPLETED.
func (se *StepExecution) MarkAsCompleted() {
	if err := se.TransitionTo(BatchStatusCompleted); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to COMPLETED: %v", se.ID, err)
		se.Status = BatchStatusCompleted
	}
	se.ExitStatus = ExitStatusCompleted
	se.finish()
}

// MarkAsFailed updates the StepExecution status to FAILED and adds error information.
func (se *StepExecution) MarkAsFailed(err error) {
	if terr := se.TransitionTo(BatchStatusFailed); terr != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to FAILED: %v", se.ID, terr)
		se.Status = BatchStatusFailed
	}
	se.ExitStatus = ExitStatusFailed
	se.finish()
	if err != nil {
		se.Failures = appendFailure(se.Failures, err)
	}
}

// MarkAsStopped updates the StepExecution status to STOPPED (context cancellation).
func (se *StepExecution) MarkAsStopped() {
	if err := se.TransitionTo(BatchStatusStopped); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to STOPPED: %v", se.ID, err)
		se.Status = BatchStatusStopped
	}
	se.ExitStatus = ExitStatusStopped
	se.finish()
}

func (se *StepExecution) finish() {
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
}

// DebugString returns a one-line summary of the StepExecution counters.
func (se *StepExecution) DebugString() string {
	return fmt.Sprintf(
		"&{ID:%s StepName:%s Status:%s ExitStatus:%s ReadCount:%d WriteCount:%d FilterCount:%d CommitCount:%d SkipCount:%d Context:[%s]}",
		se.ID, se.StepName, se.Status, se.ExitStatus,
		se.ReadCount, se.WriteCount, se.FilterCount, se.CommitCount, se.SkipCount,
		strings.Join(se.ExecutionContext.Keys(), ","),
	)
}

// appendFailure adds the user-facing message of err, skipping duplicates.
func appendFailure(list FailureList, err error) FailureList {
	msg := exception.ExtractErrorMessage(err)
	for _, existing := range list {
		if existing == msg {
			return list
		}
	}
	return append(list, msg)
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}
