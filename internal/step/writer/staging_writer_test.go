package writer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/step/writer"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

func TestStagingFileWriter(t *testing.T) {
	a := testutil.NewArchive(t)
	ctx := context.Background()
	conn, err := a.Storage.ResolveStorageConnection(ctx, storage.ConnectionStaging)
	require.NoError(t, err)

	w := writer.NewStagingFileWriter(conn, "temp_test")
	assert.Error(t, w.Write(ctx, []string{"early"}))

	require.NoError(t, w.Open(ctx, model.NewExecutionContext()))
	require.NoError(t, w.Write(ctx, []string{"row 1", "row 2"}))
	require.NoError(t, w.Write(ctx, []string{"row 3"}))
	require.NoError(t, w.Close(ctx))
	require.NoError(t, w.Close(ctx))

	assert.Equal(t, 3, w.Rows())
	assert.Equal(t, "temp_test", w.Object())

	data, err := os.ReadFile(filepath.Join(a.TmpDir, "temp_test"))
	require.NoError(t, err)
	assert.Equal(t, "row 1\nrow 2\nrow 3\n", string(data))
}
