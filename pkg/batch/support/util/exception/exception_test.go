package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

func TestNewBatchError(t *testing.T) {
	originalErr := errors.New("permission denied")
	be := exception.NewBatchError("output", "failed to write result.txt", originalErr)

	assert.Equal(t, "output", be.Module)
	assert.Equal(t, "failed to write result.txt", be.Message)
	assert.Equal(t, originalErr, be.Unwrap())
	assert.Equal(t, "[output] failed to write result.txt: permission denied", be.Error())
	assert.NotEmpty(t, be.StackTrace)
}

func TestNewBatchErrorf(t *testing.T) {
	// Only message args.
	be1 := exception.NewBatchErrorf("reader", "line %d not readable", 10)
	assert.Nil(t, be1.Unwrap())
	assert.Equal(t, "[reader] line 10 not readable", be1.Error())

	// A trailing error becomes the cause.
	be2 := exception.NewBatchErrorf("table", "Tablename not known: %s", "ZZ", exception.ErrUnknownTable)
	assert.Equal(t, "Tablename not known: ZZ", be2.Message)
	assert.ErrorIs(t, be2, exception.ErrUnknownTable)
	assert.ErrorIs(t, be2, exception.ErrConfiguration)
}

func TestExtractErrorMessage(t *testing.T) {
	be := exception.NewBatchErrorf("bbox", "West cannot be greater than east", exception.ErrInvalidBoundingBox)
	wrapped := fmt.Errorf("stations: %w", be)

	assert.Equal(t, "West cannot be greater than east", exception.ExtractErrorMessage(wrapped))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))
	assert.Empty(t, exception.ExtractErrorMessage(nil))
	assert.True(t, exception.IsBatchError(wrapped))
	assert.False(t, exception.IsBatchError(errors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exception.ExitOK},
		{"input", exception.NewBatchErrorf("timewindow", "bad", exception.ErrInvalidTime), exception.ExitUsage},
		{"resource", exception.NewBatchErrorf("config", "missing", exception.ErrMissingDirectory), exception.ExitResourceError},
		{"configuration", exception.NewBatchErrorf("table", "unknown", exception.ErrUnknownTable), exception.ExitFailure},
		{"other", errors.New("boom"), exception.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exception.ExitCode(tt.err))
		})
	}
}
