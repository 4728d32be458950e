// Package fwversion rewrites the firmware version recorded as four
// #define marker lines in a C source or header file.
//
// The version has the form major.minor.dateCode.revision, where dateCode is
// the two-digit year followed by the zero-padded day of the year at the time
// of the rewrite. Running the rewriter twice on the same day bumps the
// revision; the first run on a new day resets it to 0.
package fwversion

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidDateCode is returned by ParseDateCode for anything other than
// five digits naming a real day.
var ErrInvalidDateCode = errors.New("invalid date code")

// Version is the firmware version tuple stored in the target file.
type Version struct {
	Major    int    `json:"major" yaml:"major"`
	Minor    int    `json:"minor" yaml:"minor"`
	DateCode string `json:"date_code" yaml:"date_code"`
	Revision int    `json:"revision" yaml:"revision"`
}

// String renders the version as major.minor.dateCode.revision.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%s.%d", v.Major, v.Minor, v.DateCode, v.Revision)
}

// DateCode returns the 5-digit date code for t: the last two digits of the
// year followed by the 3-digit day of the year.
func DateCode(t time.Time) string {
	return fmt.Sprintf("%02d%03d", t.Year()%100, t.YearDay())
}

// ParseDateCode converts a date code back to the day it names, in loc.
// Two-digit years are read as 20yy.
func ParseDateCode(code string, loc *time.Location) (time.Time, error) {
	if len(code) != 5 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateCode, code)
	}
	yy, err := strconv.Atoi(code[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateCode, code)
	}
	day, err := strconv.Atoi(code[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateCode, code)
	}

	start := time.Date(2000+yy, time.January, 1, 0, 0, 0, 0, loc)
	t := start.AddDate(0, 0, day-1)
	if day < 1 || t.Year() != start.Year() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateCode, code)
	}
	return t, nil
}
