// Package bbox implements latitude/longitude bounding boxes with antimeridian wraparound.
package bbox

import (
	"strconv"
	"strings"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

const moduleName = "bbox"

// BBox is a box given as north, west, south and east edges in degrees.
// Longitudes may lie anywhere in [-360, 360], so a box such as W=-200, E=-150 spans the antimeridian.
type BBox struct {
	North float64
	West  float64
	South float64
	East  float64
}

// New returns a validated box.
func New(north, west, south, east float64) (BBox, error) {
	b := BBox{North: north, West: west, South: south, East: east}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}

// Parse reads "N,W,S,E". When north is smaller than south the two are swapped before validation.
func Parse(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, exception.NewBatchErrorf(moduleName, "bounding box must be given as N,W,S,E: %q", s, exception.ErrInvalidBoundingBox)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, exception.NewBatchErrorf(moduleName, "bounding box value %q is not a number", p, exception.ErrInvalidBoundingBox)
		}
		v[i] = f
	}
	n, w, south, e := v[0], v[1], v[2], v[3]
	if n < south {
		n, south = south, n
	}
	return New(n, w, south, e)
}

// Validate checks edge ordering and ranges.
func (b BBox) Validate() error {
	if b.South > b.North {
		return exception.NewBatchErrorf(moduleName,
			"South cannot be greater than north in bounding box specification: south = %v; north = %v",
			b.South, b.North, exception.ErrInvalidBoundingBox)
	}
	if b.West > b.East {
		return exception.NewBatchErrorf(moduleName,
			"West cannot be greater than east in bounding box specification: west = %v; east = %v",
			b.West, b.East, exception.ErrInvalidBoundingBox)
	}
	ranges := []struct {
		name      string
		v, lo, hi float64
	}{
		{"North", b.North, -90, 90},
		{"South", b.South, -90, 90},
		{"West", b.West, -360, 360},
		{"East", b.East, -360, 360},
	}
	for _, r := range ranges {
		if !inRange(r.v, r.lo, r.hi) {
			return exception.NewBatchErrorf(moduleName, "%s cannot be out of range %v - %v but is: %v",
				r.name, r.lo, r.hi, r.v, exception.ErrInvalidBoundingBox)
		}
	}
	return nil
}

// Contains reports whether the point lies inside the box, edges included.
// The box is assumed valid.
func (b BBox) Contains(lat, lon float64) bool {
	if !inRange(lat, b.South, b.North) {
		return false
	}

	switch {
	case b.West < 0 && b.East < 0:
		if lon > 0 {
			lon -= 360
		}
		return inRange(lon, b.West, b.East)
	case b.West >= 0 && b.East >= 0:
		if lon < 0 {
			lon += 360
		}
		return inRange(lon, b.West, b.East)
	default:
		// The box straddles the Greenwich meridian: test [W, 0] and [0, E] separately.
		west, east := lon, lon
		if lon >= 0 {
			west -= 360
		} else {
			east += 360
		}
		return inRange(west, b.West, 0) || inRange(east, 0, b.East)
	}
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
