package table

import (
	"sort"
	"strings"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

// shortToLong maps the four letter table codes to the archive table names.
var shortToLong = map[string]string{
	"STXX": "SOIL_TEMP_OB",
	"SRCC": "SRC_CAPABILITY",
	"GLXX": "GBL_WX_OB",
	"SRCE": "SOURCE",
	"TMSL": "TEMP_MIN_SOIL_OB",
	"MRXX": "MARINE_OB",
	"ROXX": "RADT_OB_V2",
	"TDXX": "TEMP_DRNL_OB",
	"WDXX": "WEATHER_DRNL_OB",
	"RDXX": "RAIN_DRNL_OB",
	"RSXX": "RAIN_SUBHRLY_OB",
	"RHXX": "RAIN_HRLY_OB",
	"WMXX": "WIND_MEAN_OB",
	"WHXX": "WEATHER_HRLY_OB",
}

var longToShort = func() map[string]string {
	m := make(map[string]string, len(shortToLong))
	for short, long := range shortToLong {
		m[long] = short
	}
	return m
}()

// registryOnly tables are held in the metadata registries and have no yearly partitions.
var registryOnly = map[string]bool{
	"SRC_CAPABILITY":   true,
	"SOURCE":           true,
	"TEMP_MIN_SOIL_OB": true,
	"MARINE_OB":        true,
}

// regions maps the numeric region codes to the region tag used in global weather file names.
var regions = map[string]string{
	"1": "glblwx-africa",
	"2": "glblwx-asia",
	"3": "glblwx-south-america",
	"4": "glblwx-north-central-america",
	"5": "glblwx-south-west-pacific",
	"6": "glblwx-europe",
	"7": "glblwx-antarctic",
}

// regionalTable is the only table whose partitions carry a region tag.
const regionalTable = "GLXX"

// Descriptor identifies a table independently of its schema.
type Descriptor struct {
	// ShortID is the four letter code, e.g. "TDXX".
	ShortID string
	// ID is the two letter directory name, e.g. "TD".
	ID       string
	LongName string
}

// Partitioned reports whether the table has partition files under the data root.
func (d Descriptor) Partitioned() bool {
	return !registryOnly[d.LongName]
}

// Regional reports whether the table's partitions are split by region.
func (d Descriptor) Regional() bool {
	return d.ShortID == regionalTable
}

func newDescriptor(short string) Descriptor {
	return Descriptor{ShortID: short, ID: short[:2], LongName: shortToLong[short]}
}

// Resolve maps a user supplied table name to its descriptor. Matching is case-insensitive.
// Tokens of four characters or fewer are short codes, retried with "XX" appended when unknown,
// so "td" resolves to TDXX. Longer tokens are long names.
func Resolve(token string) (Descriptor, error) {
	name := strings.ToUpper(strings.TrimSpace(token))
	if name == "" {
		return Descriptor{}, exception.NewBatchErrorf(moduleName, "Tablename not known: %q", token, exception.ErrUnknownTable)
	}

	if len(name) <= 4 {
		if _, ok := shortToLong[name]; ok {
			return newDescriptor(name), nil
		}
		if _, ok := shortToLong[name+"XX"]; ok {
			return newDescriptor(name + "XX"), nil
		}
	} else if short, ok := longToShort[name]; ok {
		return newDescriptor(short), nil
	}
	return Descriptor{}, exception.NewBatchErrorf(moduleName, "Tablename not known: %s", token, exception.ErrUnknownTable)
}

// KnownTables lists every table ordered by short code.
func KnownTables() []Descriptor {
	shorts := make([]string, 0, len(shortToLong))
	for short := range shortToLong {
		shorts = append(shorts, short)
	}
	sort.Strings(shorts)

	out := make([]Descriptor, len(shorts))
	for i, short := range shorts {
		out[i] = newDescriptor(short)
	}
	return out
}

// RegionTag returns the file name tag of a region code such as "6".
func RegionTag(code string) (string, error) {
	tag, ok := regions[strings.TrimSpace(code)]
	if !ok {
		return "", exception.NewBatchErrorf(moduleName, "unknown region code %q (expected 1-7)", code, exception.ErrUnknownRegion)
	}
	return tag, nil
}

// RegionCodes returns the known region codes in order.
func RegionCodes() []string {
	codes := make([]string, 0, len(regions))
	for code := range regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
