package extract

import (
	"strconv"
	"strings"

	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

// Request describes one extraction. It is not modified once Extract starts.
type Request struct {
	// Table is a short code (TD, TDXX) or long name (TEMP_DRNL_OB).
	Table string
	// Start and End are 1 to 12 digit timestamps; empty selects the archive start or now.
	Start string
	End   string
	// Columns holds 1-based column positions. Nil selects every column.
	Columns []int
	// Conditions is "column=kind=value" terms separated by ";".
	Conditions string
	StationIDs []string
	// Region is a region code 1 to 7, only meaningful for the global weather table.
	Region    string
	Delimiter string
	// Output is a file path or output.Display.
	Output string
	Format string
}

// Params returns the request as job parameters for logs and traces.
func (r Request) Params() map[string]string {
	cols := "all"
	if r.Columns != nil {
		parts := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			parts[i] = strconv.Itoa(c)
		}
		cols = strings.Join(parts, ",")
	}
	return map[string]string{
		"table":      r.Table,
		"start":      r.Start,
		"end":        r.End,
		"columns":    cols,
		"conditions": r.Conditions,
		"src_ids":    strconv.Itoa(len(r.StationIDs)),
		"region":     r.Region,
		"delimiter":  r.Delimiter,
		"output":     r.destination(),
		"format":     r.format(),
	}
}

func (r Request) destination() string {
	if r.Output == "" {
		return output.Display
	}
	return r.Output
}

func (r Request) format() string {
	if r.Format == "" {
		return output.FormatText
	}
	return strings.ToLower(r.Format)
}

// ParseColumns reads "all" or a comma separated list of 1-based column positions.
//
// Parameters:
//
//	s: The user input, for example "all" or "1,3,7".
//
// Returns:
//
//	nil for "all" or an empty string, otherwise the positions in the given order.
//	Non-numeric or non-positive entries return an error wrapping exception.ErrInvalidColumn.
func ParseColumns(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	var cols []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, exception.NewBatchErrorf(moduleName, "column %q must be a positive integer", part, exception.ErrInvalidColumn)
		}
		cols = append(cols, n)
	}
	return cols, nil
}

// ParseStationIDs splits a comma or whitespace separated list of station ids, dropping
// duplicates while keeping the first-seen order.
func ParseStationIDs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	seen := make(map[string]bool, len(fields))
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		ids = append(ids, f)
	}
	return ids
}
