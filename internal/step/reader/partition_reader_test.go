package reader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/domain/partition"
	"github.com/tigerroll/midas-extract/internal/step/reader"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

func setup(t *testing.T) (storage.StorageConnection, []partition.Partition) {
	t.Helper()
	a := testutil.NewArchive(t)
	a.WritePartition(t, "TD", "midas_tempdrnl_200001-200012.txt", "a1", "a2", "a3")
	a.WritePartition(t, "TD", "midas_tempdrnl_200101-200112.txt", "b1\r", "b2")

	conn, err := a.Storage.ResolveStorageConnection(context.Background(), storage.ConnectionData)
	require.NoError(t, err)

	var parts []partition.Partition
	for _, name := range []string{"midas_tempdrnl_200001-200012.txt", "midas_tempdrnl_200101-200112.txt"} {
		p, ok := partition.Parse("TD/yearly_files/" + name)
		require.True(t, ok)
		parts = append(parts, p)
	}
	return conn, parts
}

func readAll(t *testing.T, r *reader.PartitionLineReader) []reader.Line {
	t.Helper()
	var lines []reader.Line
	for {
		l, err := r.Read(context.Background())
		if errors.Is(err, port.ErrNoMoreItems) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, l)
	}
}

func TestPartitionLineReader_ReadsInOrder(t *testing.T) {
	conn, parts := setup(t)
	r := reader.NewPartitionLineReader(conn, "TD", parts, nil, nil)
	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(context.Background(), ec))

	lines := readAll(t, r)
	var texts []string
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, texts)
	assert.Equal(t, 3, lines[2].Number)
	assert.Equal(t, 1, lines[3].Number)
	assert.Equal(t, "TD/yearly_files/midas_tempdrnl_200101-200112.txt", lines[3].Partition)

	name, ok := ec.GetString(model.ContextKeyPartition)
	require.True(t, ok)
	assert.Equal(t, "midas_tempdrnl_200101-200112.txt", name)
	require.NoError(t, r.Close(context.Background()))
}

func TestPartitionLineReader_SkipPartition(t *testing.T) {
	conn, parts := setup(t)
	r := reader.NewPartitionLineReader(conn, "TD", parts, nil, nil)
	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(context.Background(), ec))

	l, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", l.Text)
	require.NoError(t, r.SkipPartition(context.Background()))

	lines := readAll(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, "b1", lines[0].Text)

	breaks, ok := ec.GetInt(model.ContextKeyEarlyBreaks)
	require.True(t, ok)
	assert.Equal(t, 1, breaks)
}

func TestPartitionLineReader_MissingFile(t *testing.T) {
	conn, _ := setup(t)
	p, ok := partition.Parse("TD/yearly_files/midas_tempdrnl_199901-199912.txt")
	require.True(t, ok)

	r := reader.NewPartitionLineReader(conn, "TD", []partition.Partition{p}, nil, nil)
	require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))
	_, err := r.Read(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrNoMoreItems)
}
