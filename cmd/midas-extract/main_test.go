package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/catalog"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

func newArchive(t *testing.T) *testutil.Archive {
	t.Helper()
	a := testutil.NewArchive(t)
	a.WriteSchema(t, "SRTB.txt", "SRC_ID", "SRC_NAME", "HIGH_PRCN_LAT", "HIGH_PRCN_LON", "LOC_GEOG_AREA_ID")
	a.WriteSchema(t, "GEOGRAPHIC_AREA.txt", "WTHN_GEOG_AREA_ID", "GEOG_AREA_TYPE", "GEOG_AREA_NAME")
	a.WriteSchema(t, "SCTB.txt", "ID", "ID_TYPE", "SRC_ID", "SRC_CAP_BGN_DATE", "SRC_CAP_END_DATE")
	a.WriteMetadata(t, "SRCE/SRCE.DATA.COMMAS_REMOVED",
		"214, EXETER AIRPORT, 50.737, -3.405, 11",
		"926, PLYMOUTH, 50.354, -4.121, 11",
	)
	a.WriteMetadata(t, "GEAR/GEAR.DATA", "11, COUNTY, DEVON")
	a.WriteMetadata(t, "SRCC/SRCC.DATA", "1, RAIN, 926, 1990-01-01, 2010-12-31")

	a.WriteSchema(t, "TDTB.txt", testutil.DailyTempColumns...)
	a.WritePartition(t, "TD", "midas_tempdrnl_200101-200112.txt",
		testutil.DailyTempRow("2001-01-01 09:00", "214", "7.5", "1.2"),
		testutil.DailyTempRow("2001-02-01 09:00", "214", "6.1", "0.4"),
	)
	return a
}

func execute(t *testing.T, a *testutil.Archive, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(context.Background(), "", nil)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--data-dir", a.DataDir, "--metadata-dir", a.MetadataDir, "--log-level", "SILENT"))
	err := root.Execute()
	return out.String(), err
}

func TestStationsCommand(t *testing.T) {
	a := newArchive(t)
	metricsFile := filepath.Join(t.TempDir(), "midas.prom")

	out, err := execute(t, a, "stations", "-c", "devon", "--metrics-textfile", metricsFile)
	require.NoError(t, err)
	assert.Equal(t, "Number of stations found: 2\n\nSRC IDs follow:\n==================\n214\n926\n", out)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "midas_stations_found_count 1")
}

func TestStationsCommand_OutputFile(t *testing.T) {
	a := newArchive(t)
	dest := filepath.Join(t.TempDir(), "ids.txt")

	_, err := execute(t, a, "stations", "-c", "DEVON", "-d", "rain", "-s", "2000", "-e", "2000", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "926\r\n", string(data))
}

func TestStationsCommand_Errors(t *testing.T) {
	a := newArchive(t)

	_, err := execute(t, a, "stations", "-d", "rain")
	assert.ErrorIs(t, err, catalog.ErrNoSpatialFilter)
	assert.Equal(t, exception.ExitUsage, exception.ExitCode(err))

	_, err = execute(t, a, "stations", "-b", "50,10,52,0")
	assert.ErrorIs(t, err, exception.ErrInvalidBoundingBox)

	root := newRootCmd(context.Background(), "", nil)
	root.SetArgs([]string{"stations", "-c", "devon", "--data-dir", filepath.Join(a.DataDir, "missing"), "--log-level", "SILENT"})
	err = root.Execute()
	assert.Equal(t, exception.ExitResourceError, exception.ExitCode(err))
}

func TestExtractCommand(t *testing.T) {
	a := newArchive(t)

	out, err := execute(t, a, "extract", "-t", "TD", "-s", "200101", "-e", "200101", "-c", "1,7", "-i", "214", "-d", "tab", "-p", a.TmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ob_end_time\tsrc_id\n2001-01-01 09:00\t214\n\n", out)
	assert.Empty(t, a.TmpFiles(t))
}

func TestExtractCommand_GroupFile(t *testing.T) {
	a := newArchive(t)
	group := testutil.WriteFile(t, t.TempDir(), "ids.txt", "926", "214")
	dest := filepath.Join(t.TempDir(), "td.txt")

	_, err := execute(t, a, "extract", "-t", "TDXX", "-s", "2001", "-e", "200101", "-g", group, "-o", dest, "-p", a.TmpDir)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2001-01-01 09:00, DCNN")
}

func TestExtractCommand_MissingTable(t *testing.T) {
	a := newArchive(t)
	_, err := execute(t, a, "extract", "-s", "2001")
	require.Error(t, err)
	assert.Equal(t, `Must provide table ID with "-t" argument.`, exception.ExtractErrorMessage(err))
}

func TestTablesCommand(t *testing.T) {
	a := newArchive(t)
	out, err := execute(t, a, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "TEMP_DRNL_OB")
	assert.Contains(t, out, "registry")
}

func TestStationsQuery(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o := stationsOptions{counties: "devon, cornwall", start: "2004-01-01 10:00", dataTypes: "RAIN"}
	q, err := o.query(now)
	require.NoError(t, err)

	assert.Equal(t, []string{"DEVON", "CORNWALL"}, q.Counties)
	assert.Equal(t, []string{"rain"}, q.DataTypes)
	require.NotNil(t, q.Window)
	assert.Equal(t, "200401011000", q.Window.Start)
	assert.Equal(t, "202405011200", q.Window.End)
}

func TestExtractRequest(t *testing.T) {
	o := extractOptions{table: "TD", columns: "all", srcIDs: "214,926,214", outputPath: output.Display}
	req, err := o.request()
	require.NoError(t, err)
	assert.Nil(t, req.Columns)
	assert.Equal(t, []string{"214", "926"}, req.StationIDs)

	o.columns = "0"
	_, err = o.request()
	assert.ErrorIs(t, err, exception.ErrInvalidColumn)
}
