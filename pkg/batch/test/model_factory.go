package test

import (
	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
)

// NewTestStepExecution creates a StepExecution attached to a fresh JobExecution.
func NewTestStepExecution(jobName, stepName string) *model.StepExecution {
	return model.NewJobExecution(jobName, nil).AddStepExecution(stepName)
}
