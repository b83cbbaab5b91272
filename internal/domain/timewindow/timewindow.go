// Package timewindow handles the compact YYYYMMDDhhmm timestamps used to bound an extraction.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

const moduleName = "timewindow"

// Layout is the time.Format layout of a full timestamp.
const Layout = "200601021504"

// DefaultStart is the earliest timestamp in the archive.
const DefaultStart = "185901010000"

// Mode selects how a partial timestamp is completed.
type Mode int

const (
	// Start completes to the earliest instant the prefix can denote.
	Start Mode = iota
	// End completes to the latest instant the prefix can denote.
	End
)

// Pad completes a 1 to 12 digit timestamp to exactly 12 digits.
//
// Start mode completes to the earliest instant the prefix can denote, so "2004" becomes
// "200401010000" and "2004011" becomes "200401100000".
// End mode completes to the latest instant: "2004" becomes "200412312359", "200402" becomes
// "200402292359" and "2004010" becomes "200401092359". A trailing half field is completed
// digit by digit and clamped to the field's range.
//
// Parameters:
//
//	ts: The digits given by the user.
//	mode: Start or End.
//
// Returns:
//
//	The 12 digit timestamp, or an error wrapping exception.ErrInvalidTime when ts is not a
//	digit string or does not denote a real date.
func Pad(ts string, mode Mode) (string, error) {
	if len(ts) == 0 || len(ts) > 12 || !isDigits(ts) {
		return "", exception.NewBatchErrorf(moduleName, "time must be 1 to 12 digits in the form YYYYMMDDhhmm: %q", ts, exception.ErrInvalidTime)
	}

	rest := ts
	year := take(&rest, 4)
	month := take(&rest, 2)
	day := take(&rest, 2)
	hour := take(&rest, 2)
	minute := take(&rest, 2)

	var s string
	if mode == Start {
		year += strings.Repeat("0", 4-len(year))
		s = year + completeLow(month, 1) + completeLow(day, 1) + completeLow(hour, 0) + completeLow(minute, 0)
	} else {
		year += strings.Repeat("9", 4-len(year))
		month = completeHigh(month, 12)
		y, _ := strconv.Atoi(year)
		m, _ := strconv.Atoi(month)
		if m < 1 || m > 12 {
			return "", exception.NewBatchErrorf(moduleName, "month out of range in time %q", ts, exception.ErrInvalidTime)
		}
		s = year + month + completeHigh(day, lastDay(y, time.Month(m))) + completeHigh(hour, 23) + completeHigh(minute, 59)
	}

	if _, err := time.Parse(Layout, s); err != nil {
		return "", exception.NewBatchErrorf(moduleName, "time %q is not a valid date", ts, exception.ErrInvalidTime)
	}
	return s, nil
}

// take removes and returns up to n leading digits of s.
func take(s *string, n int) string {
	if len(*s) < n {
		n = len(*s)
	}
	head := (*s)[:n]
	*s = (*s)[n:]
	return head
}

// completeLow completes a two digit field to its smallest value.
func completeLow(field string, lowest int) string {
	switch len(field) {
	case 2:
		return field
	case 1:
		if field == "0" && lowest > 0 {
			return fmt.Sprintf("%02d", lowest)
		}
		return field + "0"
	default:
		return fmt.Sprintf("%02d", lowest)
	}
}

// completeHigh completes a two digit field to its largest value not above highest.
// A leading digit that cannot start any valid value is completed with 9 and rejected later.
func completeHigh(field string, highest int) string {
	switch len(field) {
	case 2:
		return field
	case 1:
		tens := int(field[0]-'0') * 10
		if tens > highest {
			return field + "9"
		}
		return fmt.Sprintf("%02d", min(tens+9, highest))
	default:
		return fmt.Sprintf("%02d", highest)
	}
}

// lastDay returns the number of days in the month, honoring leap years.
func lastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Window is an inclusive [Start, End] range of 12 digit timestamps.
type Window struct {
	Start string
	End   string
}

// New builds a window from user input. An empty start defaults to DefaultStart and an empty
// end defaults to now. Both are padded and the start must not be after the end.
func New(start, end string, now time.Time) (Window, error) {
	if start == "" {
		start = DefaultStart
	}
	if end == "" {
		end = now.Format(Layout)
	}
	s, err := Pad(start, Start)
	if err != nil {
		return Window{}, err
	}
	e, err := Pad(end, End)
	if err != nil {
		return Window{}, err
	}
	if s > e {
		return Window{}, exception.NewBatchErrorf(moduleName, "start time %s is after end time %s", s, e, exception.ErrInvalidTime)
	}
	return Window{Start: s, End: e}, nil
}

// StartValue returns Start as an integer for comparison with row timestamps.
func (w Window) StartValue() int64 {
	v, _ := strconv.ParseInt(w.Start, 10, 64)
	return v
}

// EndValue returns End as an integer for comparison with row timestamps.
func (w Window) EndValue() int64 {
	v, _ := strconv.ParseInt(w.End, 10, 64)
	return v
}

// StartYM is the YYYYMM prefix of Start, used against partition file names.
func (w Window) StartYM() int {
	v, _ := strconv.Atoi(w.Start[:6])
	return v
}

// EndYM is the YYYYMM prefix of End.
func (w Window) EndYM() int {
	v, _ := strconv.Atoi(w.End[:6])
	return v
}

// Contains reports whether ts lies in the window, both ends included.
func (w Window) Contains(ts int64) bool {
	return ts >= w.StartValue() && ts <= w.EndValue()
}

func (w Window) String() string {
	return w.Start + "-" + w.End
}
