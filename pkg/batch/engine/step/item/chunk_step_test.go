// Package item_test provides unit tests for the ChunkStep.
package item_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	"github.com/tigerroll/midas-extract/pkg/batch/engine/step/item"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

// --- Mocks ---

// MockItemReader is a mock implementation of port.ItemReader.
type MockItemReader struct {
	mock.Mock
}

func (m *MockItemReader) Read(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockItemReader) Open(ctx context.Context, ec model.ExecutionContext) error {
	return m.Called(ctx, ec).Error(0)
}
func (m *MockItemReader) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

// MockSkippingReader also implements port.PartitionSkipper.
type MockSkippingReader struct {
	MockItemReader
}

func (m *MockSkippingReader) SkipPartition(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// upperProcessor upper-cases items, filters "drop" and asks for a skip on "skip".
type upperProcessor struct{}

func (upperProcessor) Process(ctx context.Context, item string) (string, bool, error) {
	switch item {
	case "drop":
		return "", false, nil
	case "skip":
		return "", false, port.ErrSkipPartition
	case "boom":
		return "", false, errors.New("bad item")
	}
	return strings.ToUpper(item), true, nil
}

// MockItemWriter is a mock implementation of port.ItemWriter.
type MockItemWriter struct {
	mock.Mock
}

func (m *MockItemWriter) Write(ctx context.Context, items []string) error {
	return m.Called(ctx, items).Error(0)
}
func (m *MockItemWriter) Open(ctx context.Context, ec model.ExecutionContext) error {
	return m.Called(ctx, ec).Error(0)
}
func (m *MockItemWriter) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

func expectItems(r *mock.Mock, items ...string) {
	r.On("Open", mock.Anything, mock.Anything).Return(nil)
	r.On("Close", mock.Anything).Return(nil)
	for _, it := range items {
		r.On("Read", mock.Anything).Return(it, nil).Once()
	}
	r.On("Read", mock.Anything).Return("", port.ErrNoMoreItems)
}

func newWriter() *MockItemWriter {
	w := &MockItemWriter{}
	w.On("Open", mock.Anything, mock.Anything).Return(nil)
	w.On("Close", mock.Anything).Return(nil)
	return w
}

func TestChunkStep_WritesChunksInOrder(t *testing.T) {
	reader := &MockItemReader{}
	expectItems(&reader.Mock, "a", "drop", "b", "c", "d")
	writer := newWriter()
	writer.On("Write", mock.Anything, []string{"A"}).Return(nil).Once()
	writer.On("Write", mock.Anything, []string{"B", "C"}).Return(nil).Once()
	writer.On("Write", mock.Anything, []string{"D"}).Return(nil).Once()

	step := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 2)
	se := testutil.NewTestStepExecution("extract", "filter")
	require.NoError(t, step.Execute(context.Background(), se))

	assert.Equal(t, model.BatchStatusCompleted, se.Status)
	assert.Equal(t, model.ExitStatusCompleted, se.ExitStatus)
	assert.Equal(t, 5, se.ReadCount)
	assert.Equal(t, 1, se.FilterCount)
	assert.Equal(t, 4, se.WriteCount)
	assert.Equal(t, 3, se.CommitCount)
	reader.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestChunkStep_SkipPartition(t *testing.T) {
	reader := &MockSkippingReader{}
	expectItems(&reader.Mock, "a", "skip", "b")
	reader.On("SkipPartition", mock.Anything).Return(nil).Once()
	writer := newWriter()
	writer.On("Write", mock.Anything, []string{"A", "B"}).Return(nil).Once()

	step := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10)
	se := testutil.NewTestStepExecution("extract", "filter")
	require.NoError(t, step.Execute(context.Background(), se))

	assert.Equal(t, 1, se.SkipCount)
	assert.Equal(t, 2, se.WriteCount)
	reader.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestChunkStep_SkipWithoutSkipper(t *testing.T) {
	reader := &MockItemReader{}
	expectItems(&reader.Mock, "skip")
	writer := newWriter()

	step := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10)
	se := testutil.NewTestStepExecution("extract", "filter")
	err := step.Execute(context.Background(), se)

	assert.ErrorIs(t, err, port.ErrSkipPartition)
	assert.Equal(t, model.BatchStatusFailed, se.Status)
	writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestChunkStep_Failures(t *testing.T) {
	t.Run("processor", func(t *testing.T) {
		reader := &MockItemReader{}
		expectItems(&reader.Mock, "boom")
		writer := newWriter()

		se := testutil.NewTestStepExecution("extract", "filter")
		err := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10).Execute(context.Background(), se)
		require.Error(t, err)
		assert.Equal(t, model.ExitStatusFailed, se.ExitStatus)
		assert.Len(t, se.Failures, 1)
		reader.AssertCalled(t, "Close", mock.Anything)
		writer.AssertCalled(t, "Close", mock.Anything)
	})

	t.Run("writer", func(t *testing.T) {
		reader := &MockItemReader{}
		expectItems(&reader.Mock, "a")
		writer := newWriter()
		diskFull := errors.New("no space left on device")
		writer.On("Write", mock.Anything, []string{"A"}).Return(diskFull)

		se := testutil.NewTestStepExecution("extract", "filter")
		err := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10).Execute(context.Background(), se)
		assert.ErrorIs(t, err, diskFull)
		assert.Equal(t, model.BatchStatusFailed, se.Status)
		assert.Equal(t, 0, se.WriteCount)
	})

	t.Run("open", func(t *testing.T) {
		reader := &MockItemReader{}
		missing := errors.New("missing partition")
		reader.On("Open", mock.Anything, mock.Anything).Return(missing)
		writer := &MockItemWriter{}

		se := testutil.NewTestStepExecution("extract", "filter")
		err := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10).Execute(context.Background(), se)
		assert.ErrorIs(t, err, missing)
		writer.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	})
}

func TestChunkStep_Cancelled(t *testing.T) {
	reader := &MockItemReader{}
	expectItems(&reader.Mock, "a")
	writer := newWriter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	se := testutil.NewTestStepExecution("extract", "filter")
	err := item.NewChunkStep[string, string]("filter", reader, upperProcessor{}, writer, 10).Execute(ctx, se)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.BatchStatusStopped, se.Status)
}
