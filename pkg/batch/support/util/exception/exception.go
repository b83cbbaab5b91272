// Package exception provides the error types shared by midas-extract.
// Every fatal condition is a BatchError that wraps one of the kind sentinels below,
// so callers classify failures with errors.Is and the CLI can map them to exit codes.
// Row-level data anomalies are never errors; they are skipped by the filter.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind sentinels. A BatchError wraps exactly one of these through its OriginalErr chain.
var (
	// ErrConfiguration marks unknown tables, missing columns and similar lookup failures.
	ErrConfiguration = errors.New("configuration error")
	// ErrInputValidation marks malformed user input: timestamps, bounding boxes, column indices, conditions.
	ErrInputValidation = errors.New("invalid input")
	// ErrResource marks missing directories or unreadable files required before extraction starts.
	ErrResource = errors.New("resource error")
)

// Specific conditions. Each also matches its kind via errors.Is.
var (
	ErrUnknownTable       = fmt.Errorf("%w: unknown table", ErrConfiguration)
	ErrColumnNotFound     = fmt.Errorf("%w: column not found", ErrConfiguration)
	ErrNoPartitionsFound  = fmt.Errorf("%w: no partitions found", ErrConfiguration)
	ErrInvalidTime        = fmt.Errorf("%w: invalid time", ErrInputValidation)
	ErrInvalidBoundingBox = fmt.Errorf("%w: invalid bounding box", ErrInputValidation)
	ErrInvalidColumn      = fmt.Errorf("%w: invalid column selection", ErrInputValidation)
	ErrInvalidCondition   = fmt.Errorf("%w: invalid condition", ErrInputValidation)
	ErrUnknownRegion      = fmt.Errorf("%w: unknown region", ErrInputValidation)
	ErrMissingDirectory   = fmt.Errorf("%w: directory does not exist", ErrResource)
)

// BatchError is the error type returned by every midas-extract component.
type BatchError struct {
	// Module indicates where the error occurred (e.g., "table", "catalog", "filter", "output").
	Module string
	// Message is the user-facing description.
	Message string
	// OriginalErr is the wrapped cause, usually one of the sentinels above.
	OriginalErr error
	// StackTrace is captured at construction for DEBUG output.
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
func NewBatchError(module, message string, originalErr error) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a BatchError with a formatted message.
// If the last argument is an error it becomes OriginalErr instead of a format argument.
//
// Examples:
//
//	NewBatchErrorf("table", "Tablename not known: %s", name, ErrUnknownTable)
//	NewBatchErrorf("output", "failed to write %s", path, err)
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return &BatchError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsBatchError reports whether err is, or wraps, a BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// ExtractErrorMessage returns the user-facing message of err.
// For a BatchError anywhere in the chain this is its Message field.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

// Exit codes returned by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitUsage         = 2
	ExitResourceError = 3
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrResource):
		return ExitResourceError
	case errors.Is(err, ErrInputValidation):
		return ExitUsage
	default:
		return ExitFailure
	}
}
