package extract_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/domain/table"
	"github.com/tigerroll/midas-extract/internal/extract"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	testutil "github.com/tigerroll/midas-extract/pkg/batch/test"
)

var (
	row2000    = testutil.DailyTempRow("2000-06-01 09:00", "214", "20.1", "11.0")
	rowJan01   = testutil.DailyTempRow("2001-01-01 09:00", "214", "7.5", "1.2")
	rowJan15   = testutil.DailyTempRow("2001-01-15 09:00", "926", "5.0", "-2.3")
	rowFeb01   = testutil.DailyTempRow("2001-02-01 09:00", "214", "6.1", "0.4")
	rowMar01   = testutil.DailyTempRow("2001-03-01 09:00", "926", "9.9", "3.3")
	fullHeader = strings.ToLower(strings.Join(testutil.DailyTempColumns, ", "))
)

func newArchive(t *testing.T) *testutil.Archive {
	t.Helper()
	a := testutil.NewArchive(t)
	a.WriteSchema(t, "TDTB.txt", testutil.DailyTempColumns...)
	a.WritePartition(t, "TD", "midas_tempdrnl_200001-200012.txt", row2000)
	a.WritePartition(t, "TD", "midas_tempdrnl_200101-200112.txt", rowJan01, "", rowJan15, rowFeb01, rowMar01)
	a.WritePartition(t, "TD", "midas_tempdrnl_200201-200212.txt", testutil.DailyTempRow("2002-01-01 09:00", "214", "1", "1"))
	return a
}

func newService(a *testutil.Archive) (*extract.Service, *output.Writer) {
	out := output.NewWriter(a.Storage, &a.Config.Midas, nil)
	svc := extract.NewService(table.NewResolver(a.Storage), a.Storage, out, &a.Config.Midas,
		metrics.NewNoOpMetricRecorder(), metrics.NewNoOpTracer())
	return svc, out
}

func january(dest string) extract.Request {
	return extract.Request{Table: "TD", Start: "200101010000", End: "200101312359", Output: dest}
}

func TestExtract_Window(t *testing.T) {
	a := newArchive(t)
	svc, _ := newService(a)
	dest := filepath.Join(t.TempDir(), "td.txt")

	res, err := svc.Extract(context.Background(), january(dest))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Records)
	assert.Equal(t, output.StrategySmall, res.Strategy)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, fullHeader+"\n"+rowJan01+"\n"+rowJan15+"\n", string(data))
	assert.Empty(t, a.TmpFiles(t), "staging file is removed")
}

func TestExtract_StationsAndColumns(t *testing.T) {
	a := newArchive(t)
	svc, out := newService(a)
	var buf bytes.Buffer
	out.SetDisplay(&buf)

	req := january("")
	req.StationIDs = []string{"926"}
	req.Columns = []int{1, 7, 9}
	req.Delimiter = "|"
	res, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, "ob_end_time|src_id|max_air_temp\n2001-01-15 09:00|926|5.0\n\n", buf.String())
}

func TestExtract_Conditions(t *testing.T) {
	a := newArchive(t)
	svc, out := newService(a)
	var buf bytes.Buffer
	out.SetDisplay(&buf)

	req := january(output.Display)
	req.Conditions = "min_air_temp=less_than=0"
	res, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, fullHeader+"\n"+rowJan15+"\n\n", buf.String())
}

func TestExtract_NoData(t *testing.T) {
	a := newArchive(t)
	svc, _ := newService(a)
	dest := filepath.Join(t.TempDir(), "empty.txt")

	req := january(dest)
	req.StationIDs = []string{"99999"}
	res, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.NoData)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, output.NoDataMessage, string(data))
}

func TestExtract_NoPartitionsInWindow(t *testing.T) {
	a := newArchive(t)
	svc, _ := newService(a)
	dest := filepath.Join(t.TempDir(), "none.txt")

	res, err := svc.Extract(context.Background(), extract.Request{Table: "TD", Start: "1990", End: "1991", Output: dest})
	require.NoError(t, err)
	assert.True(t, res.NoData)
}

func TestExtract_LargeOutputIsByteForByte(t *testing.T) {
	a := newArchive(t)
	a.Config.Midas.LargeOutputThreshold = 10
	svc, _ := newService(a)
	dest := filepath.Join(t.TempDir(), "large.txt")

	req := january(dest)
	req.Delimiter = "tab"
	res, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, output.StrategyLarge, res.Strategy)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, fullHeader+"\n"+rowJan01+"\n"+rowJan15+"\n", string(data))
}

func TestExtract_InvalidRequests(t *testing.T) {
	a := newArchive(t)
	a.WriteSchema(t, "SRTB.txt", "SRC_ID", "SRC_NAME")
	svc, _ := newService(a)
	ctx := context.Background()

	tests := []struct {
		name string
		req  extract.Request
		want error
	}{
		{"no table", extract.Request{}, exception.ErrInputValidation},
		{"unknown table", extract.Request{Table: "ZZ"}, exception.ErrUnknownTable},
		{"registry table", extract.Request{Table: "SRCE"}, exception.ErrNoPartitionsFound},
		{"bad time", extract.Request{Table: "TD", Start: "2001x"}, exception.ErrInvalidTime},
		{"start after end", extract.Request{Table: "TD", Start: "2002", End: "2001"}, exception.ErrInvalidTime},
		{"column out of range", extract.Request{Table: "TD", Columns: []int{11}}, exception.ErrInvalidColumn},
		{"unknown condition column", extract.Request{Table: "TD", Conditions: "wind=exact=1"}, exception.ErrColumnNotFound},
		{"bad condition", extract.Request{Table: "TD", Conditions: "src_id=near=1"}, exception.ErrInvalidCondition},
		{"bad region", extract.Request{Table: "TD", Region: "9"}, exception.ErrUnknownRegion},
		{"bad format", extract.Request{Table: "TD", Format: "xml"}, exception.ErrInputValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Extract(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, a.TmpFiles(t))
}

func TestParseColumns(t *testing.T) {
	cols, err := extract.ParseColumns("all")
	require.NoError(t, err)
	assert.Nil(t, cols)

	cols, err = extract.ParseColumns("1, 7,9")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7, 9}, cols)

	_, err = extract.ParseColumns("1,0")
	assert.ErrorIs(t, err, exception.ErrInvalidColumn)
	_, err = extract.ParseColumns("x")
	assert.ErrorIs(t, err, exception.ErrInvalidColumn)
}

func TestParseStationIDs(t *testing.T) {
	assert.Equal(t, []string{"214", "926", "1001"}, extract.ParseStationIDs("214,926 214\n1001\r\n"))
	assert.Empty(t, extract.ParseStationIDs(""))
}
