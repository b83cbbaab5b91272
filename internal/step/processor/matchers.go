// Package processor filters partition lines by time window, station id and column conditions.
package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

const moduleName = "row_filter"

// MaxIDBatchSize is the largest number of station ids joined into one pattern.
const MaxIDBatchSize = 5000

// fieldSplitter separates the fields of a partition line.
var fieldSplitter = regexp.MustCompile(`,\s+`)

// BuildDateExtractor compiles a pattern capturing the timestamp held in field index
// (0-based) of a line. Groups 2 to 6 hold year, month, day, hour and minute.
func BuildDateExtractor(index int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(fmt.Sprintf(`^([^,]+, ){%d}(\d{4})-(\d{2})-(\d{2})\s+(\d{2}):(\d{2})`, index))
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "cannot build date pattern for column %d", index+1, err)
	}
	return re, nil
}

// BuildIDExtractors compiles one pattern per batch of at most batchSize ids, each matching a
// line whose field index (0-based) equals one of the batch's ids.
// batchSize is clamped to (0, MaxIDBatchSize]; a non-positive value means MaxIDBatchSize.
func BuildIDExtractors(index int, ids []string, batchSize int) ([]*regexp.Regexp, error) {
	if batchSize <= 0 || batchSize > MaxIDBatchSize {
		batchSize = MaxIDBatchSize
	}
	var patterns []*regexp.Regexp
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		quoted := make([]string, end-start)
		for i, id := range ids[start:end] {
			quoted[i] = regexp.QuoteMeta(strings.TrimSpace(id))
		}
		re, err := regexp.Compile(fmt.Sprintf(`^([^,]+, ){%d}(%s),`, index, strings.Join(quoted, "|")))
		if err != nil {
			return nil, exception.NewBatchErrorf(moduleName, "cannot build station id pattern for ids %d to %d", start+1, end, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// MatchTimestamp extracts the 12 digit timestamp of line using a BuildDateExtractor pattern.
func MatchTimestamp(re *regexp.Regexp, line string) (int64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	ts, err := strconv.ParseInt(strings.Join(m[2:7], ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// MatchAny reports whether any pattern matches line.
func MatchAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// SplitFields splits a line on commas followed by whitespace.
func SplitFields(line string) []string {
	return fieldSplitter.Split(line, -1)
}
