package catalog

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/tigerroll/midas-extract/internal/domain/table"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

// Station is a row of the SOURCE registry.
type Station struct {
	SrcID  string `csv:"SRC_ID"`
	Lat    string `csv:"HIGH_PRCN_LAT"`
	Lon    string `csv:"HIGH_PRCN_LON"`
	AreaID string `csv:"LOC_GEOG_AREA_ID"`
}

// Area is a row of the GEOGRAPHIC_AREA registry.
type Area struct {
	ID   string `csv:"WTHN_GEOG_AREA_ID"`
	Type string `csv:"GEOG_AREA_TYPE"`
	Name string `csv:"GEOG_AREA_NAME"`
}

// Capability is a row of the SRC_CAPABILITY registry: a station reporting one data type over a period.
type Capability struct {
	SrcID  string `csv:"SRC_ID"`
	IDType string `csv:"ID_TYPE"`
	Begin  string `csv:"SRC_CAP_BGN_DATE"`
	End    string `csv:"SRC_CAP_END_DATE"`
}

// registry locates a registry data file and its column list in the metadata storage.
type registry struct {
	dir      string
	file     string
	columns  string
	required []string
}

var (
	sourceRegistry = registry{
		dir: "SRCE", file: "SRCE.DATA.COMMAS_REMOVED", columns: "SRTB.txt",
		required: []string{"SRC_ID", "HIGH_PRCN_LAT", "HIGH_PRCN_LON", "LOC_GEOG_AREA_ID"},
	}
	areaRegistry = registry{
		dir: "GEAR", file: "GEAR.DATA", columns: "GEOGRAPHIC_AREA.txt",
		required: []string{"WTHN_GEOG_AREA_ID", "GEOG_AREA_TYPE", "GEOG_AREA_NAME"},
	}
	capabilityRegistry = registry{
		dir: "SRCC", file: "SRCC.DATA", columns: "SCTB.txt",
		required: []string{"SRC_ID", "ID_TYPE", "SRC_CAP_BGN_DATE", "SRC_CAP_END_DATE"},
	}
)

// loadRegistry decodes every data row of reg into a slice of T.
func loadRegistry[T any](ctx context.Context, conn storage.StorageConnection, reg registry) ([]T, error) {
	columns, err := table.ReadColumns(ctx, conn, reg.columns)
	if err != nil {
		return nil, err
	}
	header := make([]string, len(columns))
	present := make(map[string]bool, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
		present[header[i]] = true
	}
	for _, name := range reg.required {
		if !present[name] {
			return nil, exception.NewBatchErrorf(moduleName, "column %s missing from %s/%s", name, table.SchemaDir, reg.columns, exception.ErrColumnNotFound)
		}
	}

	rc, err := conn.Download(ctx, reg.dir, reg.file)
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to open registry %s/%s", reg.dir, reg.file, exception.ErrResource)
	}
	defer rc.Close()

	dec, err := csvutil.NewDecoder(newRowReader(rc, len(header)), header...)
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to create decoder for %s", reg.file, err)
	}

	var rows []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, exception.NewBatchErrorf(moduleName, "failed to decode %s/%s", reg.dir, reg.file, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowReader yields the comma separated fields of registry data lines.
// Export banners and SQL*Plus footers are dropped, as are lines without a comma.
// Records are padded or truncated to the header width.
type rowReader struct {
	scanner *bufio.Scanner
	width   int
}

func newRowReader(r io.Reader, width int) *rowReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &rowReader{scanner: s, width: width}
}

// Read implements csvutil.Reader.
func (r *rowReader) Read() ([]string, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if !isDataRow(line) {
			continue
		}
		fields := strings.Split(line, ",")
		record := make([]string, r.width)
		for i := 0; i < r.width && i < len(fields); i++ {
			record[i] = strings.TrimSpace(fields[i])
		}
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func isDataRow(line string) bool {
	if strings.Contains(line, "[") || strings.Contains(line, "SQL") || strings.Contains(line, "Oracle") {
		return false
	}
	return strings.Contains(line, ",")
}
