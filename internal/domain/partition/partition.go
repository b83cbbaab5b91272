// Package partition parses partition file names and selects the ones overlapping a time window.
package partition

import (
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
)

// fileNamePattern matches "<prefix>_<region>_<YYYYMM>-<YYYYMM>.txt". The region may be blank.
var fileNamePattern = regexp.MustCompile(`^\w+_([a-zA-Z\-]*)_(\d{6})-(\d{6})\.txt$`)

// Partition is one data file of a table covering [StartYM, EndYM].
type Partition struct {
	// Object is the object name relative to the data storage root.
	Object  string
	Region  string
	StartYM int
	EndYM   int
}

// Name returns the file name without its directory.
func (p Partition) Name() string {
	return path.Base(p.Object)
}

// Parse reads the partition metadata from an object name.
// The second result is false when the file name does not follow the partition naming scheme.
func Parse(object string) (Partition, bool) {
	m := fileNamePattern.FindStringSubmatch(path.Base(object))
	if m == nil {
		return Partition{}, false
	}
	startYM, _ := strconv.Atoi(m[2])
	endYM, _ := strconv.Atoi(m[3])
	return Partition{Object: object, Region: m[1], StartYM: startYM, EndYM: endYM}, true
}

// Overlaps reports whether the partition range intersects the window, both ends inclusive.
func (p Partition) Overlaps(w timewindow.Window) bool {
	return p.EndYM >= w.StartYM() && p.StartYM <= w.EndYM()
}

// Select returns the partitions overlapping the window in lexical file name order.
func Select(parts []Partition, w timewindow.Window) []Partition {
	selected := make([]Partition, 0, len(parts))
	for _, p := range parts {
		if p.Overlaps(w) {
			selected = append(selected, p)
		}
	}
	Sort(selected)
	return selected
}

// Sort orders partitions by file name.
func Sort(parts []Partition) {
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Name() < parts[j].Name()
	})
}
