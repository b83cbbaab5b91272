package output_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/output"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

const stagingObject = "temp_output_test"

var header = []string{"ob_end_time", "src_id", "max_air_temp"}

func stage(t *testing.T, a *testutil.Archive, rows ...string) {
	t.Helper()
	testutil.WriteFile(t, a.TmpDir, stagingObject, rows...)
}

func TestWrite_SmallToFile(t *testing.T) {
	a := testutil.NewArchive(t)
	stage(t, a, "2001-01-01 09:00, 214, 12.3", "2001-01-02 09:00, 214, 11.0")
	dest := filepath.Join(t.TempDir(), "out", "result.txt")

	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	res, err := w.Write(context.Background(), output.Request{
		StagingObject: stagingObject,
		Header:        header,
		Destination:   dest,
		Delimiter:     "tab",
	})
	require.NoError(t, err)

	assert.Equal(t, output.StrategySmall, res.Strategy)
	assert.Equal(t, 2, res.Records)
	assert.False(t, res.NoData)
	assert.Equal(t, dest, res.Path)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ob_end_time\tsrc_id\tmax_air_temp\n2001-01-01 09:00\t214\t12.3\n2001-01-02 09:00\t214\t11.0\n", string(data))
	assert.Empty(t, a.TmpFiles(t), "staging file is removed")
}

func TestWrite_SmallToDisplay(t *testing.T) {
	a := testutil.NewArchive(t)
	stage(t, a, "2001-01-01 09:00, 214, 12.3")

	var buf bytes.Buffer
	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	w.SetDisplay(&buf)
	res, err := w.Write(context.Background(), output.Request{
		StagingObject: stagingObject,
		Header:        header,
		Destination:   output.Display,
		Delimiter:     "default",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Path)
	assert.Equal(t, "ob_end_time, src_id, max_air_temp\n2001-01-01 09:00, 214, 12.3\n\n", buf.String())
	assert.Empty(t, a.TmpFiles(t))
}

func TestWrite_NoData(t *testing.T) {
	a := testutil.NewArchive(t)
	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)

	stage(t, a)
	var buf bytes.Buffer
	w.SetDisplay(&buf)
	res, err := w.Write(context.Background(), output.Request{StagingObject: stagingObject, Header: header, Destination: output.Display})
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Equal(t, 0, res.Records)
	assert.Equal(t, output.NoDataMessage+"\n", buf.String())

	stage(t, a)
	dest := filepath.Join(t.TempDir(), "empty.txt")
	res, err = w.Write(context.Background(), output.Request{StagingObject: stagingObject, Header: header, Destination: dest})
	require.NoError(t, err)
	assert.True(t, res.NoData)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, output.NoDataMessage, string(data))
}

func TestWrite_LargeCopiesBytes(t *testing.T) {
	a := testutil.NewArchive(t)
	a.Config.Midas.LargeOutputThreshold = 10
	rows := []string{"2001-01-01 09:00, 214, 12.3", "2001-01-02 09:00, 214,  11.0"}
	stage(t, a, rows...)
	dest := filepath.Join(t.TempDir(), "large.txt")

	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	res, err := w.Write(context.Background(), output.Request{
		StagingObject: stagingObject,
		Header:        header,
		Destination:   dest,
		Delimiter:     "tab",
	})
	require.NoError(t, err)

	assert.Equal(t, output.StrategyLarge, res.Strategy)
	assert.Equal(t, 2, res.Records)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ob_end_time, src_id, max_air_temp\n"+strings.Join(rows, "\n")+"\n", string(data), "delimiter is not applied")
	assert.Empty(t, a.TmpFiles(t))
}

func TestWrite_LargeDisplaySavesFile(t *testing.T) {
	a := testutil.NewArchive(t)
	a.Config.Midas.LargeOutputThreshold = 10
	stage(t, a, "2001-01-01 09:00, 214, 12.3")

	var buf bytes.Buffer
	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	w.SetDisplay(&buf)
	res, err := w.Write(context.Background(), output.Request{StagingObject: stagingObject, Header: header, Destination: output.Display})
	require.NoError(t, err)

	assert.Empty(t, buf.String())
	files := a.TmpFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "out_"))
	assert.True(t, strings.HasSuffix(files[0], ".txt"))
	assert.Equal(t, files[0], filepath.Base(res.Path))
}

func TestWrite_Parquet(t *testing.T) {
	a := testutil.NewArchive(t)
	stage(t, a, "2001-01-01 09:00, 214, 12.3", "", "2001-01-02 09:00, 214")
	dest := filepath.Join(t.TempDir(), "out.parquet")

	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	res, err := w.Write(context.Background(), output.Request{
		StagingObject: stagingObject,
		Header:        header,
		Destination:   dest,
		Format:        output.FormatParquet,
	})
	require.NoError(t, err)

	assert.Equal(t, output.StrategyParquet, res.Strategy)
	assert.Equal(t, 2, res.Records)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
	assert.Empty(t, a.TmpFiles(t))
}

func TestWrite_MissingStaging(t *testing.T) {
	a := testutil.NewArchive(t)
	w := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	_, err := w.Write(context.Background(), output.Request{StagingObject: "temp_missing", Header: header, Destination: output.Display})
	assert.Error(t, err)
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, "", output.Delimiter("default"))
	assert.Equal(t, "", output.Delimiter(","))
	assert.Equal(t, "\t", output.Delimiter("tab"))
	assert.Equal(t, "|", output.Delimiter("|"))
	assert.Equal(t, "a|b|c\n", output.Reformat("a, b, c\n", "|"))
	assert.Equal(t, "a, b", output.Reformat("a, b", ""))
}
