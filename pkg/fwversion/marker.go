package fwversion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Marker identifies one of the four version lines.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerMajor
	MarkerMinor
	MarkerDate
	MarkerRevision
)

// ErrMalformedMarker is returned when a marker line has no integer between
// parentheses.
var ErrMalformedMarker = errors.New("malformed marker line")

var markerNames = map[Marker]string{
	MarkerMajor:    "FW_MAJOR_VERSION",
	MarkerMinor:    "FW_MINOR_VERSION",
	MarkerDate:     "FW_VERSION_VERSION",
	MarkerRevision: "FW_REVISION_VERSION",
}

// markerOrder is the order lines are tested in.
var markerOrder = []Marker{MarkerMajor, MarkerMinor, MarkerDate, MarkerRevision}

// Name returns the preprocessor symbol of the marker.
func (m Marker) Name() string {
	return markerNames[m]
}

func (m Marker) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	return "none"
}

// Format renders a complete marker line without its terminator.
func (m Marker) Format(value string) string {
	return fmt.Sprintf("    #define %s (%s)", m.Name(), value)
}

// MarkerError describes a marker line that could not be parsed.
type MarkerError struct {
	Marker Marker
	Line   int
	Text   string
	Err    error
}

func (e *MarkerError) Error() string {
	msg := fmt.Sprintf("line %d: %s: %q", e.Line, e.Marker, e.Text)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match ErrMalformedMarker.
func (e *MarkerError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedMarker}
	}
	return []error{ErrMalformedMarker, e.Err}
}

// Classify reports which marker, if any, the line carries.
func Classify(line string) Marker {
	for _, m := range markerOrder {
		if strings.Contains(line, "#define "+m.Name()) {
			return m
		}
	}
	return MarkerNone
}

// parenValue returns the text between the first '(' and the ')' after it.
func parenValue(line string) (string, bool) {
	_, rest, ok := strings.Cut(line, "(")
	if !ok {
		return "", false
	}
	value, _, ok := strings.Cut(rest, ")")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func parseInt(m Marker, lineNo int, line string) (int, error) {
	text := strings.TrimRight(line, "\r\n")
	value, ok := parenValue(text)
	if !ok {
		return 0, &MarkerError{Marker: m, Line: lineNo, Text: text}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &MarkerError{Marker: m, Line: lineNo, Text: text, Err: err}
	}
	return n, nil
}
